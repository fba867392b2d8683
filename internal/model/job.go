package model

import "time"

// Provisioning job states. Completed and failed are terminal: once a job
// reaches either, no further transitions are applied.
const (
	JobStateInitializing = "initializing"
	JobStateRunning      = "running"
	JobStateCompleted    = "completed"
	JobStateFailed       = "failed"
)

// Pipeline step names, in execution order.
const (
	StepCreateTenant     = "create-tenant"
	StepGenerateInstance = "generate-instance"
	StepConfigureDomain  = "configure-domain"
	StepDeploy           = "deploy"
	StepFinalize         = "finalize"
)

// Per-step status constants.
const (
	StepStatusPending   = "pending"
	StepStatusRunning   = "running"
	StepStatusCompleted = "completed"
	StepStatusFailed    = "failed"
	StepStatusSkipped   = "skipped"
)

// StepRecord is the progress record of a single pipeline step.
type StepRecord struct {
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	Message    string     `json:"message,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// ProvisioningJob tracks one run of the provisioning pipeline. Progress is a
// coarse percentage: it jumps to a step's checkpoint when the step starts and
// reaches 100 only when the whole job completes. On failure it stays frozen
// at the failing step's checkpoint.
type ProvisioningJob struct {
	ID               string       `json:"id"`
	TenantID         string       `json:"tenant_id,omitempty"`
	Subdomain        string       `json:"subdomain"`
	State            string       `json:"state"`
	Progress         int          `json:"progress"`
	CurrentStep      string       `json:"current_step,omitempty"`
	Steps            []StepRecord `json:"steps"`
	Error            string       `json:"error,omitempty"`
	FailedStep       string       `json:"failed_step,omitempty"`
	InstancePath     string       `json:"instance_path,omitempty"`
	DeployURL        string       `json:"deploy_url,omitempty"`
	CallbackURL      string       `json:"callback_url,omitempty"`
	EstimatedSeconds int          `json:"estimated_seconds,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
	StartedAt        *time.Time   `json:"started_at,omitempty"`
	FinishedAt       *time.Time   `json:"finished_at,omitempty"`
}

// Terminal reports whether the job has reached a final state.
func (j *ProvisioningJob) Terminal() bool {
	return j.State == JobStateCompleted || j.State == JobStateFailed
}

// Step returns the record for the named step, or nil.
func (j *ProvisioningJob) Step(name string) *StepRecord {
	for i := range j.Steps {
		if j.Steps[i].Name == name {
			return &j.Steps[i]
		}
	}
	return nil
}

// Clone returns a deep copy. Job stores hand out clones so readers never
// observe a job mid-update.
func (j *ProvisioningJob) Clone() *ProvisioningJob {
	cp := *j
	cp.Steps = make([]StepRecord, len(j.Steps))
	copy(cp.Steps, j.Steps)
	if j.StartedAt != nil {
		t := *j.StartedAt
		cp.StartedAt = &t
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		cp.FinishedAt = &t
	}
	for i := range cp.Steps {
		if s := j.Steps[i].StartedAt; s != nil {
			t := *s
			cp.Steps[i].StartedAt = &t
		}
		if f := j.Steps[i].FinishedAt; f != nil {
			t := *f
			cp.Steps[i].FinishedAt = &t
		}
	}
	return &cp
}
