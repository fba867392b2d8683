package model

// DomainConfig is the outcome of the configure-domain step.
type DomainConfig struct {
	Domain       string `json:"domain"`
	CustomDomain bool   `json:"custom_domain"`
	ZoneID       string `json:"zone_id,omitempty"`
	CertIssued   bool   `json:"cert_issued"`
}

// DeploymentResult is the outcome of the deploy step.
type DeploymentResult struct {
	Provider string `json:"provider"`
	URL      string `json:"url"`
	Ref      string `json:"ref,omitempty"`
}

// FinalizationResult is the outcome of the finalize step. The raw API key
// never leaves the finalizer; only its display prefix is reported.
type FinalizationResult struct {
	APIKeyPrefix string `json:"api_key_prefix"`
	WelcomeMail  bool   `json:"welcome_mail"`
}
