package job

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/deliberate-api/deliberate/internal/deliberation"
)

// Store is an in-memory job store.
// Thread-safe for concurrent access from handlers and background workers.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*Job),
	}
}

// Create registers a new pending job and returns it.
func (s *Store) Create(thesis, context string, models []string) *Job {
	j := &Job{
		ID:        NewID(),
		Status:    StatusPending,
		Thesis:    thesis,
		Context:   context,
		Models:    append([]string(nil), models...),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = j
	return copyJob(j)
}

// Get retrieves a job by ID. Returns an error if the job is unknown.
func (s *Store) Get(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("unknown job: %s", id)
	}
	return copyJob(j), nil
}

// List returns up to limit jobs, newest first.
func (s *Store) List(limit int) []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		all = append(all, copyJob(j))
	}
	sort.Slice(all, func(i, k int) bool {
		return all[i].CreatedAt.After(all[k].CreatedAt)
	})

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

// SetRunning transitions a job to running.
func (s *Store) SetRunning(id string) {
	s.update(id, func(j *Job) {
		j.Status = StatusRunning
	})
}

// SetRound records the round a running job has reached.
func (s *Store) SetRound(id string, round int) {
	s.update(id, func(j *Job) {
		j.CurrentRound = round
	})
}

// Complete records a terminal successful result.
func (s *Store) Complete(id string, result *deliberation.DeliberationResult) {
	now := time.Now().UTC()
	s.update(id, func(j *Job) {
		j.Status = StatusCompleted
		j.Result = result
		j.CompletedAt = &now
	})
}

// Fail records a terminal failure with its reason.
func (s *Store) Fail(id string, reason string) {
	now := time.Now().UTC()
	s.update(id, func(j *Job) {
		j.Status = StatusFailed
		j.Error = reason
		j.CompletedAt = &now
	})
}

func (s *Store) update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		fn(j)
	}
}

// copyJob returns a shallow copy so callers never alias stored state.
// Result and Models are treated as immutable once set.
func copyJob(j *Job) *Job {
	c := *j
	return &c
}
