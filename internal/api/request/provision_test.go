package request

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeProvision(t *testing.T, body map[string]any) (Provision, error) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	r, err := http.NewRequest(http.MethodPost, "/provision", bytes.NewReader(data))
	require.NoError(t, err)

	var req Provision
	return req, Decode(r, &req)
}

func validProvisionBody() map[string]any {
	return map[string]any{
		"blog_name":   "Acme Blog",
		"subdomain":   "acme",
		"owner_email": "a@acme.com",
	}
}

func TestProvisionDecode_MinimalBody(t *testing.T) {
	req, err := decodeProvision(t, validProvisionBody())
	require.NoError(t, err)
	assert.Equal(t, "Acme Blog", req.BlogName)
	assert.Equal(t, "acme", req.Subdomain)
	assert.Equal(t, "a@acme.com", req.OwnerEmail)
	assert.Empty(t, req.TemplateID)
}

func TestProvisionDecode_FullBody(t *testing.T) {
	body := validProvisionBody()
	body["custom_domain"] = "blog.acme.com"
	body["owner_name"] = "Alice"
	body["theme"] = "dark"
	body["primary_color"] = "#336699"
	body["niche"] = "tech"
	body["description"] = "Engineering notes from Acme."
	body["template_id"] = "default-blog"
	body["callback_url"] = "https://hooks.acme.com/provisioned"

	req, err := decodeProvision(t, body)
	require.NoError(t, err)
	assert.Equal(t, "blog.acme.com", req.CustomDomain)
	assert.Equal(t, "#336699", req.PrimaryColor)
	assert.Equal(t, "https://hooks.acme.com/provisioned", req.CallbackURL)
}

func TestProvisionDecode_MissingRequired(t *testing.T) {
	tests := []struct {
		name string
		omit string
	}{
		{"missing blog_name", "blog_name"},
		{"missing subdomain", "subdomain"},
		{"missing owner_email", "owner_email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validProvisionBody()
			delete(body, tt.omit)

			_, err := decodeProvision(t, body)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation error")
		})
	}
}

func TestProvisionDecode_BadFields(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value any
	}{
		{"uppercase subdomain", "subdomain", "Acme"},
		{"subdomain with spaces", "subdomain", "my blog"},
		{"bad email", "owner_email", "not-an-email"},
		{"bad custom domain", "custom_domain", "not a domain"},
		{"bad color", "primary_color", "bluish"},
		{"bad callback url", "callback_url", "::not-a-url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validProvisionBody()
			body[tt.field] = tt.value

			_, err := decodeProvision(t, body)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation error")
		})
	}
}

func TestReservedSubdomain(t *testing.T) {
	assert.True(t, ReservedSubdomain("www"))
	assert.True(t, ReservedSubdomain("api"))
	assert.True(t, ReservedSubdomain("metrics"))
	assert.False(t, ReservedSubdomain("acme"))
	assert.False(t, ReservedSubdomain("wwwx"))
}
