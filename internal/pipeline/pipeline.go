// Package pipeline drives the provisioning workflow: an explicit ordered
// list of steps executed by a generic runner, one detached goroutine per
// job. Steps never roll back; the first failure aborts the remainder and
// whatever already happened stays in place.
package pipeline

import (
	"context"
	"errors"

	"github.com/sergiomvj/faceblog-provisioner/internal/model"
)

// ErrJobTerminal is returned when an operation targets a job that already
// reached completed or failed.
var ErrJobTerminal = errors.New("job already terminal")

// Progress checkpoints. A step's checkpoint is applied when the step starts,
// so a failing job stays frozen at the failing step's checkpoint.
const (
	progressStarted = 10
	progressDone    = 100

	checkpointCreateTenant     = 25
	checkpointGenerateInstance = 40
	checkpointConfigureDomain  = 60
	checkpointDeploy           = 75
	checkpointFinalize         = 90
)

// estimatedSeconds is the rough wall-clock estimate reported to callers
// when a job is accepted.
const estimatedSeconds = 120

// Request is everything the pipeline needs to provision one blog. It is
// validated before a job is created; the pipeline trusts its contents.
type Request struct {
	BlogName     string
	Subdomain    string
	CustomDomain string
	OwnerEmail   string
	OwnerName    string
	Theme        string
	PrimaryColor string
	Niche        string
	Description  string
	TemplateID   string
	CallbackURL  string
}

// Step is one named unit of the pipeline. Run returns a human-readable
// completion message for the job's step log. OnSuccess, if set, mutates the
// job inside the same store update that marks the step completed.
type Step struct {
	Name       string
	Checkpoint int
	Run        func(ctx context.Context) (string, error)
	OnSuccess  func(j *model.ProvisioningJob)
}

// pendingSteps pre-populates the job's step log so callers see the full
// plan before any step has run.
func pendingSteps() []model.StepRecord {
	names := []string{
		model.StepCreateTenant,
		model.StepGenerateInstance,
		model.StepConfigureDomain,
		model.StepDeploy,
		model.StepFinalize,
	}
	records := make([]model.StepRecord, len(names))
	for i, name := range names {
		records[i] = model.StepRecord{Name: name, Status: model.StepStatusPending}
	}
	return records
}
