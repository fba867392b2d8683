package model

import "time"

type Tenant struct {
	ID           string     `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Subdomain    string     `json:"subdomain" db:"subdomain"`
	CustomDomain *string    `json:"custom_domain,omitempty" db:"custom_domain"`
	TemplateID   string     `json:"template_id" db:"template_id"`
	Theme        string     `json:"theme" db:"theme"`
	PrimaryColor string     `json:"primary_color" db:"primary_color"`
	Niche        string     `json:"niche" db:"niche"`
	Description  *string    `json:"description,omitempty" db:"description"`
	DeployURL    *string    `json:"deploy_url,omitempty" db:"deploy_url"`
	Status       string     `json:"status" db:"status"`
	ActivatedAt  *time.Time `json:"activated_at,omitempty" db:"activated_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Domain returns the address the blog is reachable at: the custom domain
// when one is configured, otherwise the platform subdomain.
func (t *Tenant) Domain(baseDomain string) string {
	if t.CustomDomain != nil && *t.CustomDomain != "" {
		return *t.CustomDomain
	}
	return t.Subdomain + "." + baseDomain
}
