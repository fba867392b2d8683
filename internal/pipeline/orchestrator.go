package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/sergiomvj/faceblog-provisioner/internal/jobstore"
	"github.com/sergiomvj/faceblog-provisioner/internal/model"
	"github.com/sergiomvj/faceblog-provisioner/internal/platform"
)

// Orchestrator owns the fire-and-forget side of provisioning: it creates
// jobs, launches one goroutine per job, and retains the cancellation handle
// for each until the job finishes.
type Orchestrator struct {
	store    jobstore.Store
	runner   *Runner
	deps     Deps
	notifier *Notifier
	logger   zerolog.Logger

	// sem bounds concurrent jobs; nil means unbounded.
	sem *semaphore.Weighted

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

type Options struct {
	Store jobstore.Store
	Deps  Deps
	// StepTimeout bounds each step; 0 disables the per-step deadline.
	StepTimeout time.Duration
	// MaxConcurrentJobs bounds parallel pipelines; 0 means unbounded.
	MaxConcurrentJobs int
	Logger            zerolog.Logger
}

func NewOrchestrator(opts Options) *Orchestrator {
	o := &Orchestrator{
		store:    opts.Store,
		runner:   NewRunner(opts.Store, opts.StepTimeout, opts.Logger),
		deps:     opts.Deps,
		notifier: NewNotifier(opts.Logger),
		logger:   opts.Logger.With().Str("component", "orchestrator").Logger(),
		cancels:  make(map[string]context.CancelFunc),
	}
	if opts.MaxConcurrentJobs > 0 {
		o.sem = semaphore.NewWeighted(int64(opts.MaxConcurrentJobs))
	}
	return o
}

// StartJob registers a job for the request and launches its pipeline in a
// goroutine detached from the caller's context. The returned snapshot
// already carries the job id callers poll with.
func (o *Orchestrator) StartJob(ctx context.Context, req Request) (*model.ProvisioningJob, error) {
	job := &model.ProvisioningJob{
		ID:               platform.NewID(),
		Subdomain:        req.Subdomain,
		State:            model.JobStateInitializing,
		Steps:            pendingSteps(),
		CallbackURL:      req.CallbackURL,
		EstimatedSeconds: estimatedSeconds,
	}
	if err := o.store.Create(ctx, job); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	o.mu.Lock()
	o.cancels[job.ID] = cancel
	o.mu.Unlock()

	o.wg.Add(1)
	go o.run(runCtx, cancel, job.ID, req)

	o.logger.Info().Str("job_id", job.ID).Str("subdomain", req.Subdomain).Msg("job accepted")
	return job, nil
}

func (o *Orchestrator) run(ctx context.Context, cancel context.CancelFunc, jobID string, req Request) {
	defer o.wg.Done()
	defer func() {
		o.mu.Lock()
		delete(o.cancels, jobID)
		o.mu.Unlock()
		cancel()
	}()

	if o.sem != nil {
		if err := o.sem.Acquire(ctx, 1); err != nil {
			o.markCanceled(jobID)
			o.notify(jobID)
			return
		}
		defer o.sem.Release(1)
	}

	steps := BuildSteps(o.deps, req)
	if err := o.runner.Run(ctx, jobID, steps); err != nil {
		o.logger.Debug().Err(err).Str("job_id", jobID).Msg("pipeline run ended with error")
	}

	o.notify(jobID)
}

// Cancel aborts a job that has not reached a terminal state. The in-flight
// step fails with reason "canceled"; side effects of completed steps stay
// in place. Unknown ids return jobstore.ErrNotFound, finished jobs
// ErrJobTerminal.
func (o *Orchestrator) Cancel(ctx context.Context, id string) error {
	job, err := o.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.Terminal() {
		return ErrJobTerminal
	}

	o.mu.Lock()
	cancel, ok := o.cancels[id]
	o.mu.Unlock()
	if ok {
		cancel()
		return nil
	}

	// No live goroutine for this job, e.g. it was left behind by a previous
	// process in a persistent store. Mark it failed directly.
	finished := time.Now().UTC()
	_, err = o.store.Update(ctx, id, func(j *model.ProvisioningJob) error {
		if j.Terminal() {
			return ErrJobTerminal
		}
		j.State = model.JobStateFailed
		j.Error = "canceled"
		j.FailedStep = j.CurrentStep
		j.FinishedAt = &finished
		markRemainderSkipped(j)
		return nil
	})
	return err
}

// Shutdown cancels all running jobs and waits for their goroutines to
// finish writing terminal state.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	for _, cancel := range o.cancels {
		cancel()
	}
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// markCanceled records cancellation for a job whose pipeline never started,
// such as one waiting on the concurrency semaphore.
func (o *Orchestrator) markCanceled(jobID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := o.store.Update(ctx, jobID, func(j *model.ProvisioningJob) error {
		if j.Terminal() {
			return nil
		}
		finished := time.Now().UTC()
		j.State = model.JobStateFailed
		j.Error = "canceled"
		j.FailedStep = j.CurrentStep
		j.FinishedAt = &finished
		markRemainderSkipped(j)
		return nil
	})
	if err != nil {
		o.logger.Error().Err(err).Str("job_id", jobID).Msg("record canceled job")
	}
}

func markRemainderSkipped(j *model.ProvisioningJob) {
	for i := range j.Steps {
		if j.Steps[i].Status == model.StepStatusPending || j.Steps[i].Status == model.StepStatusRunning {
			j.Steps[i].Status = model.StepStatusSkipped
		}
	}
}

// notify fires the completion callback once the job is terminal. It runs on
// a fresh context: the job's own context is typically gone by now.
func (o *Orchestrator) notify(jobID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	job, err := o.store.Get(ctx, jobID)
	if err != nil {
		o.logger.Warn().Err(err).Str("job_id", jobID).Msg("load job for callback")
		return
	}
	if job.CallbackURL == "" {
		return
	}

	o.notifier.Notify(ctx, job.CallbackURL, model.CallbackPayload{
		JobID:     job.ID,
		TenantID:  job.TenantID,
		Subdomain: job.Subdomain,
		State:     job.State,
		Progress:  job.Progress,
		DeployURL: job.DeployURL,
		Error:     job.Error,
	})
}
