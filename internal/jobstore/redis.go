package jobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/sergiomvj/faceblog-provisioner/internal/model"
)

const (
	redisKeyPrefix = "provisioner:job:"
	redisIndexKey  = "provisioner:jobs"
)

// RedisStore keeps jobs in Redis so they survive API restarts. Each job is a
// JSON value under provisioner:job:<id>; a sorted set scored by creation time
// provides newest-first listing. Writes from this process are serialized with
// a local mutex, matching the single-writer discipline of the pipeline.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration

	mu sync.Mutex
}

// NewRedisStore connects to Redis and verifies the connection. When
// retention is positive, job keys carry a TTL slightly beyond it so stale
// entries disappear even if the janitor never runs.
func NewRedisStore(ctx context.Context, addr, password string, dbNum int, retention time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: dbNum})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{client: client, retention: retention}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(id string) string {
	return redisKeyPrefix + id
}

func (s *RedisStore) ttl() time.Duration {
	if s.retention <= 0 {
		return 0
	}
	return s.retention + time.Hour
}

func (s *RedisStore) write(ctx context.Context, job *model.ProvisioningJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.ID, err)
	}
	if err := s.client.Set(ctx, s.key(job.ID), data, s.ttl()).Err(); err != nil {
		return fmt.Errorf("write job %s: %w", job.ID, err)
	}
	return nil
}

func (s *RedisStore) read(ctx context.Context, id string) (*model.ProvisioningJob, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read job %s: %w", id, err)
	}

	var job model.ProvisioningJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("unmarshal job %s: %w", id, err)
	}
	return &job, nil
}

func (s *RedisStore) Create(ctx context.Context, job *model.ProvisioningJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := job.Clone()
	now := time.Now().UTC()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now

	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", cp.ID, err)
	}

	ok, err := s.client.SetNX(ctx, s.key(cp.ID), data, s.ttl()).Result()
	if err != nil {
		return fmt.Errorf("create job %s: %w", cp.ID, err)
	}
	if !ok {
		return fmt.Errorf("job %s: %w", cp.ID, ErrAlreadyExists)
	}

	if err := s.client.ZAdd(ctx, redisIndexKey, redis.Z{
		Score:  float64(cp.CreatedAt.UnixNano()),
		Member: cp.ID,
	}).Err(); err != nil {
		return fmt.Errorf("index job %s: %w", cp.ID, err)
	}

	*job = *cp
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*model.ProvisioningJob, error) {
	return s.read(ctx, id)
}

func (s *RedisStore) Update(ctx context.Context, id string, fn func(*model.ProvisioningJob) error) (*model.ProvisioningJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.read(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := job.Clone()
	if err := fn(job); err != nil {
		return nil, err
	}
	if err := guardUpdate(prev, job); err != nil {
		return nil, err
	}
	job.UpdatedAt = time.Now().UTC()

	if err := s.write(ctx, job); err != nil {
		return nil, err
	}
	return job.Clone(), nil
}

func (s *RedisStore) List(ctx context.Context, filter ListFilter) ([]*model.ProvisioningJob, bool, error) {
	ids, err := s.client.ZRevRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return nil, false, fmt.Errorf("list jobs: %w", err)
	}

	jobs := make([]*model.ProvisioningJob, 0, len(ids))
	for _, id := range ids {
		job, err := s.read(ctx, id)
		if err != nil {
			// Key expired under the index entry. Drop the stale entry.
			if ctx.Err() == nil {
				s.client.ZRem(ctx, redisIndexKey, id)
			}
			continue
		}
		if filter.State != "" && job.State != filter.State {
			continue
		}
		if filter.Subdomain != "" && job.Subdomain != filter.Subdomain {
			continue
		}
		jobs = append(jobs, job)
	}

	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
		}
		return jobs[i].ID > jobs[j].ID
	})

	start := 0
	if filter.Cursor != "" {
		for i, job := range jobs {
			if job.ID == filter.Cursor {
				start = i + 1
				break
			}
		}
	}
	jobs = jobs[start:]

	if filter.Limit > 0 && len(jobs) > filter.Limit {
		return jobs[:filter.Limit], true, nil
	}
	return jobs, false, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	s.client.ZRem(ctx, redisIndexKey, id)
	if n == 0 {
		return fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *RedisStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	ids, err := s.client.ZRevRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("sweep jobs: %w", err)
	}

	removed := 0
	for _, id := range ids {
		job, err := s.read(ctx, id)
		if err != nil {
			s.client.ZRem(ctx, redisIndexKey, id)
			continue
		}
		if !job.Terminal() {
			continue
		}
		finished := job.UpdatedAt
		if job.FinishedAt != nil {
			finished = *job.FinishedAt
		}
		if finished.Before(cutoff) {
			if err := s.Delete(ctx, id); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
