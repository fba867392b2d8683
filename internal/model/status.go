package model

// Tenant status constants.
const (
	StatusProvisioning = "provisioning"
	StatusActive       = "active"
	StatusFailed       = "failed"
	StatusSuspended    = "suspended"
	StatusDeleted      = "deleted"
)
