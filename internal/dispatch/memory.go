package dispatch

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and single-node runs.
// It mirrors the claim semantics of the Redis store: a dequeued job is
// owned by exactly one caller.
type MemoryStore struct {
	mu     sync.Mutex
	jobs   map[string]*Job
	status map[string][]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:   make(map[string]*Job),
		status: make(map[string][]string),
	}
}

func (s *MemoryStore) EnqueueJob(_ context.Context, j *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[j.ID]; ok {
		return ErrJobAlreadyExists
	}
	clone := *j
	s.jobs[j.ID] = &clone
	return nil
}

func (s *MemoryStore) DequeueJobs(_ context.Context, queues []string, limit int) ([]*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	wanted := make(map[string]bool, len(queues))
	for _, q := range queues {
		wanted[q] = true
	}

	var due []*Job
	for _, j := range s.jobs {
		if !wanted[j.Queue] {
			continue
		}
		if j.State != StatePending && j.State != StateRetrying {
			continue
		}
		if j.RunAt.After(now) {
			continue
		}
		due = append(due, j)
	}
	sort.Slice(due, func(i, k int) bool { return due[i].RunAt.Before(due[k].RunAt) })
	if len(due) > limit {
		due = due[:limit]
	}

	out := make([]*Job, 0, len(due))
	for _, j := range due {
		j.State = StateRunning
		started := now
		j.StartedAt = &started
		j.UpdatedAt = now
		clone := *j
		out = append(out, &clone)
	}
	return out, nil
}

func (s *MemoryStore) GetJob(_ context.Context, jobID string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	clone := *j
	return &clone, nil
}

func (s *MemoryStore) UpdateJob(_ context.Context, j *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[j.ID]; !ok {
		return ErrJobNotFound
	}
	clone := *j
	clone.UpdatedAt = time.Now().UTC()
	s.jobs[j.ID] = &clone
	return nil
}

func (s *MemoryStore) AppendStatus(_ context.Context, jobID string, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[jobID] = append(s.status[jobID], line)
	return nil
}

func (s *MemoryStore) GetStatus(_ context.Context, jobID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.status[jobID]
	out := make([]string, len(lines))
	copy(out, lines)
	return out, nil
}
