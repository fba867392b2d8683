package finalizer

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergiomvj/faceblog-provisioner/internal/mail"
	"github.com/sergiomvj/faceblog-provisioner/internal/model"
)

type fakeTenants struct {
	activated   []string
	deployURL   string
	activateErr error
}

func (f *fakeTenants) Activate(ctx context.Context, id, deployURL string) error {
	if f.activateErr != nil {
		return f.activateErr
	}
	f.activated = append(f.activated, id)
	f.deployURL = deployURL
	return nil
}

type fakeKeys struct {
	createErr error
	gotName   string
	gotScopes []string
}

func (f *fakeKeys) Create(ctx context.Context, tenantID *string, name string, scopes []string) (*model.APIKey, string, error) {
	if f.createErr != nil {
		return nil, "", f.createErr
	}
	f.gotName = name
	f.gotScopes = scopes
	return &model.APIKey{ID: "key-1", TenantID: tenantID, Name: name, KeyPrefix: "fbp_12345678"}, "fbp_rawsecret", nil
}

type fakeMailer struct {
	enabled bool
	sendErr error
	sent    []mail.WelcomeParams
}

func (f *fakeMailer) Enabled() bool { return f.enabled }

func (f *fakeMailer) SendWelcome(ctx context.Context, params mail.WelcomeParams) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, params)
	return nil
}

func testInput() Input {
	return Input{
		Tenant:       &model.Tenant{ID: "ten-1", Name: "Coffee Corner", Subdomain: "coffee"},
		DeployURL:    "https://coffee.faceblog.app",
		OwnerEmail:   "owner@example.com",
		OwnerName:    "Dana",
		TempPassword: "s3cret",
	}
}

func TestFinalize_Success(t *testing.T) {
	tenants := &fakeTenants{}
	keys := &fakeKeys{}
	mailer := &fakeMailer{enabled: true}
	f := New(tenants, keys, mailer, zerolog.Nop())

	result, err := f.Finalize(context.Background(), testInput())
	require.NoError(t, err)

	assert.Equal(t, "fbp_12345678", result.APIKeyPrefix)
	assert.True(t, result.WelcomeMail)

	assert.Equal(t, []string{"ten-1"}, tenants.activated)
	assert.Equal(t, "https://coffee.faceblog.app", tenants.deployURL)
	assert.Equal(t, "coffee blog key", keys.gotName)
	assert.Equal(t, defaultKeyScopes, keys.gotScopes)

	require.Len(t, mailer.sent, 1)
	sent := mailer.sent[0]
	assert.Equal(t, "owner@example.com", sent.To)
	assert.Equal(t, "Coffee Corner", sent.BlogName)
	assert.Equal(t, "https://coffee.faceblog.app/admin", sent.AdminURL)
	assert.Equal(t, "fbp_rawsecret", sent.APIKey)
	assert.Equal(t, "s3cret", sent.TempPassword)
}

func TestFinalize_MailFailureIsNotFatal(t *testing.T) {
	tenants := &fakeTenants{}
	mailer := &fakeMailer{enabled: true, sendErr: errors.New("smtp down")}
	f := New(tenants, &fakeKeys{}, mailer, zerolog.Nop())

	result, err := f.Finalize(context.Background(), testInput())
	require.NoError(t, err)
	assert.False(t, result.WelcomeMail)
	assert.Equal(t, []string{"ten-1"}, tenants.activated)
}

func TestFinalize_MailDisabled(t *testing.T) {
	f := New(&fakeTenants{}, &fakeKeys{}, &fakeMailer{enabled: false}, zerolog.Nop())

	result, err := f.Finalize(context.Background(), testInput())
	require.NoError(t, err)
	assert.False(t, result.WelcomeMail)
	assert.NotEmpty(t, result.APIKeyPrefix)
}

func TestFinalize_ActivationFails(t *testing.T) {
	keys := &fakeKeys{}
	mailer := &fakeMailer{enabled: true}
	f := New(&fakeTenants{activateErr: errors.New("db down")}, keys, mailer, zerolog.Nop())

	_, err := f.Finalize(context.Background(), testInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "activate tenant")
	assert.Empty(t, keys.gotName)
	assert.Empty(t, mailer.sent)
}

func TestFinalize_KeyCreationFails(t *testing.T) {
	tenants := &fakeTenants{}
	mailer := &fakeMailer{enabled: true}
	f := New(tenants, &fakeKeys{createErr: errors.New("db down")}, mailer, zerolog.Nop())

	_, err := f.Finalize(context.Background(), testInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create blog api key")

	// Activation happened before the failure and is not rolled back.
	assert.Equal(t, []string{"ten-1"}, tenants.activated)
	assert.Empty(t, mailer.sent)
}
