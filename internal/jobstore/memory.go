package jobstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/sergiomvj/faceblog-provisioner/internal/model"
)

// MemoryStore keeps jobs in process memory. It is the default store; jobs do
// not survive a restart.
type MemoryStore struct {
	// clock is swappable so sweep behavior can be tested.
	clock clock.Clock

	mu   sync.RWMutex
	jobs map[string]*model.ProvisioningJob
}

func NewMemoryStore(clk clock.Clock) *MemoryStore {
	if clk == nil {
		clk = clock.New()
	}
	return &MemoryStore{
		clock: clk,
		jobs:  make(map[string]*model.ProvisioningJob),
	}
}

func (s *MemoryStore) Create(ctx context.Context, job *model.ProvisioningJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; ok {
		return fmt.Errorf("job %s: %w", job.ID, ErrAlreadyExists)
	}

	cp := job.Clone()
	now := s.clock.Now().UTC()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.jobs[cp.ID] = cp

	*job = *cp.Clone()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*model.ProvisioningJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return job.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, fn func(*model.ProvisioningJob) error) (*model.ProvisioningJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}

	next := job.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := guardUpdate(job, next); err != nil {
		return nil, err
	}
	next.UpdatedAt = s.clock.Now().UTC()
	s.jobs[id] = next

	return next.Clone(), nil
}

func (s *MemoryStore) List(ctx context.Context, filter ListFilter) ([]*model.ProvisioningJob, bool, error) {
	s.mu.RLock()
	all := make([]*model.ProvisioningJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		if filter.State != "" && job.State != filter.State {
			continue
		}
		if filter.Subdomain != "" && job.Subdomain != filter.Subdomain {
			continue
		}
		all = append(all, job.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	start := 0
	if filter.Cursor != "" {
		for i, job := range all {
			if job.ID == filter.Cursor {
				start = i + 1
				break
			}
		}
	}
	all = all[start:]

	if filter.Limit > 0 && len(all) > filter.Limit {
		return all[:filter.Limit], true, nil
	}
	return all, false, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	delete(s.jobs, id)
	return nil
}

func (s *MemoryStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, job := range s.jobs {
		if !job.Terminal() {
			continue
		}
		finished := job.UpdatedAt
		if job.FinishedAt != nil {
			finished = *job.FinishedAt
		}
		if finished.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed, nil
}
