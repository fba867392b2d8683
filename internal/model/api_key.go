package model

import "time"

// APIKey represents an API key for authenticating against the platform API.
// Keys created during finalization belong to the tenant they were issued for.
type APIKey struct {
	ID        string     `json:"id"`
	TenantID  *string    `json:"tenant_id,omitempty"`
	Name      string     `json:"name"`
	KeyHash   string     `json:"-"`
	KeyPrefix string     `json:"key_prefix,omitempty"`
	Scopes    []string   `json:"scopes"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}
