package jobstore

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Janitor periodically removes terminal jobs older than the retention
// window. The schedule is a cron expression ("@hourly" by default).
type Janitor struct {
	store     Store
	retention time.Duration
	clock     clock.Clock
	logger    zerolog.Logger
	cron      *cron.Cron
}

func NewJanitor(store Store, retention time.Duration, clk clock.Clock, logger zerolog.Logger) *Janitor {
	if clk == nil {
		clk = clock.New()
	}
	return &Janitor{
		store:     store,
		retention: retention,
		clock:     clk,
		logger:    logger.With().Str("component", "job-janitor").Logger(),
	}
}

// Start schedules the sweep. It returns an error for an invalid schedule and
// is a no-op when retention is zero or negative.
func (j *Janitor) Start(schedule string) error {
	if j.retention <= 0 {
		j.logger.Info().Msg("job retention disabled, janitor not started")
		return nil
	}

	j.cron = cron.New()
	if _, err := j.cron.AddFunc(schedule, j.sweep); err != nil {
		return fmt.Errorf("parse sweep schedule %q: %w", schedule, err)
	}
	j.cron.Start()

	j.logger.Info().Str("schedule", schedule).Dur("retention", j.retention).Msg("job janitor started")
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	if j.cron == nil {
		return
	}
	<-j.cron.Stop().Done()
}

func (j *Janitor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := j.clock.Now().UTC().Add(-j.retention)
	removed, err := j.store.Sweep(ctx, cutoff)
	if err != nil {
		j.logger.Error().Err(err).Msg("job sweep failed")
		return
	}
	if removed > 0 {
		j.logger.Info().Int("removed", removed).Time("cutoff", cutoff).Msg("swept expired jobs")
	}
}

// SweepNow runs one sweep immediately, outside the schedule.
func (j *Janitor) SweepNow(ctx context.Context) (int, error) {
	cutoff := j.clock.Now().UTC().Add(-j.retention)
	return j.store.Sweep(ctx, cutoff)
}
