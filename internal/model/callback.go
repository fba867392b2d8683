package model

// CallbackPayload is the JSON body POSTed to a job's callback URL when the
// provisioning pipeline reaches a terminal state.
type CallbackPayload struct {
	JobID     string `json:"job_id"`
	TenantID  string `json:"tenant_id,omitempty"`
	Subdomain string `json:"subdomain"`
	State     string `json:"state"`
	Progress  int    `json:"progress"`
	DeployURL string `json:"deploy_url,omitempty"`
	Error     string `json:"error,omitempty"`
}
