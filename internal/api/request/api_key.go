package request

// CreateAPIKey holds the request body for creating an API key. A nil
// tenant_id makes a platform key that can drive the provisioner itself.
type CreateAPIKey struct {
	Name     string   `json:"name" validate:"required,min=1,max=255"`
	Scopes   []string `json:"scopes" validate:"required,min=1"`
	TenantID *string  `json:"tenant_id"`
}
