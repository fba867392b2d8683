// Package finalizer runs the last provisioning step: tenant activation,
// blog API key, welcome mail.
package finalizer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sergiomvj/faceblog-provisioner/internal/mail"
	"github.com/sergiomvj/faceblog-provisioner/internal/model"
)

// Default scopes for the key handed to a fresh blog.
var defaultKeyScopes = []string{"posts:read", "posts:write", "media:write", "settings:read"}

type TenantStore interface {
	Activate(ctx context.Context, id, deployURL string) error
}

type KeyStore interface {
	Create(ctx context.Context, tenantID *string, name string, scopes []string) (*model.APIKey, string, error)
}

type Mailer interface {
	Enabled() bool
	SendWelcome(ctx context.Context, params mail.WelcomeParams) error
}

type Finalizer struct {
	tenants TenantStore
	keys    KeyStore
	mailer  Mailer
	logger  zerolog.Logger
}

func New(tenants TenantStore, keys KeyStore, mailer Mailer, logger zerolog.Logger) *Finalizer {
	return &Finalizer{
		tenants: tenants,
		keys:    keys,
		mailer:  mailer,
		logger:  logger.With().Str("component", "finalizer").Logger(),
	}
}

// Input carries what finalization needs from earlier steps. TempPassword is
// the owner's initial password, minted when the account was created.
type Input struct {
	Tenant       *model.Tenant
	DeployURL    string
	OwnerEmail   string
	OwnerName    string
	TempPassword string
}

// Finalize activates the tenant, mints the blog's API key and mails the
// owner their credentials. A welcome mail failure is logged but never fails
// the step; the blog is already live by then.
func (f *Finalizer) Finalize(ctx context.Context, in Input) (*model.FinalizationResult, error) {
	if err := f.tenants.Activate(ctx, in.Tenant.ID, in.DeployURL); err != nil {
		return nil, fmt.Errorf("activate tenant: %w", err)
	}

	key, rawKey, err := f.keys.Create(ctx, &in.Tenant.ID, in.Tenant.Subdomain+" blog key", defaultKeyScopes)
	if err != nil {
		return nil, fmt.Errorf("create blog api key: %w", err)
	}

	result := &model.FinalizationResult{APIKeyPrefix: key.KeyPrefix}

	if f.mailer == nil || !f.mailer.Enabled() {
		f.logger.Debug().Str("tenant_id", in.Tenant.ID).Msg("mail service not configured, skipping welcome mail")
		return result, nil
	}

	err = f.mailer.SendWelcome(ctx, mail.WelcomeParams{
		To:           in.OwnerEmail,
		Name:         in.OwnerName,
		BlogName:     in.Tenant.Name,
		BlogURL:      in.DeployURL,
		AdminURL:     in.DeployURL + "/admin",
		APIKey:       rawKey,
		TempPassword: in.TempPassword,
	})
	if err != nil {
		f.logger.Warn().Err(err).Str("tenant_id", in.Tenant.ID).Msg("welcome mail failed")
		return result, nil
	}

	result.WelcomeMail = true
	return result, nil
}
