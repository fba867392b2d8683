package dns

import "errors"

var (
	// ErrProviderUnavailable means no DNS provider is configured or the
	// configured one cannot be reached.
	ErrProviderUnavailable = errors.New("dns provider unavailable")

	// ErrDomainInUse means the custom domain is already registered on the
	// edge, usually by another tenant.
	ErrDomainInUse = errors.New("domain already in use")
)
