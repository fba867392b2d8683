package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sergiomvj/faceblog-provisioner/internal/jobstore"
	"github.com/sergiomvj/faceblog-provisioner/internal/metrics"
	"github.com/sergiomvj/faceblog-provisioner/internal/model"
)

// Runner executes a job's steps in order against the job store. It is the
// job's single writer: every state, progress and step-log mutation goes
// through it or through a Step.OnSuccess hook it applies.
type Runner struct {
	store       jobstore.Store
	stepTimeout time.Duration
	logger      zerolog.Logger
}

func NewRunner(store jobstore.Store, stepTimeout time.Duration, logger zerolog.Logger) *Runner {
	return &Runner{
		store:       store,
		stepTimeout: stepTimeout,
		logger:      logger.With().Str("component", "pipeline").Logger(),
	}
}

// Run moves the job to running and executes the steps. The first failing
// step aborts the remainder: the job becomes failed with the step's error
// recorded and progress frozen at the step's checkpoint. Nothing is rolled
// back.
func (r *Runner) Run(ctx context.Context, jobID string, steps []Step) error {
	log := r.logger.With().Str("job_id", jobID).Logger()

	start := time.Now().UTC()
	_, err := r.store.Update(ctx, jobID, func(j *model.ProvisioningJob) error {
		if j.Terminal() {
			return ErrJobTerminal
		}
		j.State = model.JobStateRunning
		j.Progress = progressStarted
		j.StartedAt = &start
		return nil
	})
	if err != nil {
		return fmt.Errorf("start job %s: %w", jobID, err)
	}
	metrics.JobsStarted.Inc()
	metrics.JobsInflight.Inc()
	defer metrics.JobsInflight.Dec()
	log.Info().Msg("provisioning started")

	for _, step := range steps {
		if err := r.runStep(ctx, jobID, step, log); err != nil {
			reason := failureReason(ctx, err)
			r.failJob(ctx, jobID, step.Name, reason, log)
			return err
		}
	}

	finished := time.Now().UTC()
	_, err = r.store.Update(ctx, jobID, func(j *model.ProvisioningJob) error {
		j.State = model.JobStateCompleted
		j.Progress = progressDone
		j.CurrentStep = ""
		j.FinishedAt = &finished
		return nil
	})
	if err != nil {
		return fmt.Errorf("complete job %s: %w", jobID, err)
	}
	metrics.JobsCompleted.Inc()
	log.Info().Msg("provisioning completed")
	return nil
}

func (r *Runner) runStep(ctx context.Context, jobID string, step Step, log zerolog.Logger) error {
	started := time.Now().UTC()
	_, err := r.store.Update(ctx, jobID, func(j *model.ProvisioningJob) error {
		j.CurrentStep = step.Name
		j.Progress = step.Checkpoint
		record := j.Step(step.Name)
		if record == nil {
			j.Steps = append(j.Steps, model.StepRecord{Name: step.Name})
			record = &j.Steps[len(j.Steps)-1]
		}
		record.Status = model.StepStatusRunning
		record.StartedAt = &started
		return nil
	})
	if err != nil {
		return fmt.Errorf("record step start: %w", err)
	}
	log.Info().Str("step", step.Name).Int("progress", step.Checkpoint).Msg("step started")

	stepCtx := ctx
	cancel := func() {}
	if r.stepTimeout > 0 {
		stepCtx, cancel = context.WithTimeout(ctx, r.stepTimeout)
	}
	message, runErr := step.Run(stepCtx)
	cancel()

	status := model.StepStatusCompleted
	if runErr != nil {
		status = model.StepStatusFailed
	}
	metrics.StepDuration.WithLabelValues(step.Name, status).Observe(time.Since(started).Seconds())

	if runErr != nil {
		return runErr
	}

	finished := time.Now().UTC()
	_, err = r.store.Update(ctx, jobID, func(j *model.ProvisioningJob) error {
		record := j.Step(step.Name)
		if record != nil {
			record.Status = model.StepStatusCompleted
			record.Message = message
			record.FinishedAt = &finished
		}
		if step.OnSuccess != nil {
			step.OnSuccess(j)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record step result: %w", err)
	}
	log.Info().Str("step", step.Name).Msg(message)
	return nil
}

// failJob records the terminal failure. It deliberately leaves progress at
// the failing step's checkpoint and uses a detached context so the write
// succeeds even when the job's context was canceled.
func (r *Runner) failJob(ctx context.Context, jobID, stepName, reason string, log zerolog.Logger) {
	finished := time.Now().UTC()
	_, err := r.store.Update(context.WithoutCancel(ctx), jobID, func(j *model.ProvisioningJob) error {
		j.State = model.JobStateFailed
		j.Error = reason
		j.FailedStep = stepName
		j.FinishedAt = &finished
		if record := j.Step(stepName); record != nil {
			record.Status = model.StepStatusFailed
			record.Error = reason
			record.FinishedAt = &finished
		}
		markRemainderSkipped(j)
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("step", stepName).Msg("record job failure")
	}
	metrics.JobsFailed.WithLabelValues(stepName).Inc()
	log.Error().Str("step", stepName).Str("reason", reason).Msg("provisioning failed")
}

// failureReason maps a step error to the recorded failure reason. Job
// cancellation and per-step deadlines are surfaced as "canceled" and
// "timeout"; everything else is recorded verbatim.
func failureReason(parent context.Context, err error) string {
	if errors.Is(parent.Err(), context.Canceled) {
		return "canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return err.Error()
}
