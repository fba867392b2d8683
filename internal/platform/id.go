package platform

import "github.com/google/uuid"

// NewID returns the canonical identifier format for tenants, users, keys,
// and provisioning jobs.
func NewID() string {
	return uuid.New().String()
}
