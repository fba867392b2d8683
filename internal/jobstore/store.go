// Package jobstore tracks provisioning jobs. Jobs are written by a single
// pipeline runner and read concurrently by API handlers; stores hand out
// deep copies so readers never see a job mid-update.
package jobstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sergiomvj/faceblog-provisioner/internal/model"
)

var (
	ErrNotFound      = errors.New("job not found")
	ErrAlreadyExists = errors.New("job already exists")

	// ErrTerminal is returned by Update when fn tries to move a job out of
	// a completed or failed state.
	ErrTerminal = errors.New("job already terminal")
)

// ListFilter narrows and paginates List results. Jobs are ordered newest
// first; Cursor is the ID of the last job from the previous page.
type ListFilter struct {
	State     string
	Subdomain string
	Cursor    string
	Limit     int
}

// Store is the provisioning job store.
type Store interface {
	// Create inserts a new job. Returns ErrAlreadyExists on an ID collision.
	Create(ctx context.Context, job *model.ProvisioningJob) error

	// Get returns a copy of the job or ErrNotFound.
	Get(ctx context.Context, id string) (*model.ProvisioningJob, error)

	// Update applies fn to the stored job under the store's write lock and
	// returns the updated copy. If fn returns an error nothing is written.
	// Terminal states absorb: changing the state of a completed or failed
	// job fails with ErrTerminal. Progress never moves backwards and is
	// capped at 100; fn writes outside that range are clamped.
	Update(ctx context.Context, id string, fn func(*model.ProvisioningJob) error) (*model.ProvisioningJob, error)

	// List returns jobs newest first plus a flag indicating more pages.
	List(ctx context.Context, filter ListFilter) ([]*model.ProvisioningJob, bool, error)

	// Delete removes a job. Deleting an unknown ID returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Sweep removes terminal jobs that finished before the cutoff and
	// returns how many were removed.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

// guardUpdate enforces the write invariants shared by every store: terminal
// states absorb and progress is monotonic within [prev, 100]. prev is the
// job as stored before fn ran, next the candidate about to be written.
func guardUpdate(prev, next *model.ProvisioningJob) error {
	if prev.Terminal() && next.State != prev.State {
		return fmt.Errorf("job %s: %w", prev.ID, ErrTerminal)
	}
	if next.Progress < prev.Progress {
		next.Progress = prev.Progress
	}
	if next.Progress > 100 {
		next.Progress = 100
	}
	return nil
}
