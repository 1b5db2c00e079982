package job

import (
	"context"
	"sync"
)

// Compile-time check that MemoryRepository implements Repository.
var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository is an in-memory implementation of Repository.
// It uses a map with RWMutex for thread-safe access.
// Suitable for development and testing; production runs use the Redis or
// Postgres store so the API and worker processes share state.
type MemoryRepository struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryRepository creates a new in-memory job repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		jobs: make(map[string]*Job),
	}
}

// Insert persists a job record. Clones to avoid external mutations.
func (r *MemoryRepository) Insert(_ context.Context, j *Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[j.JobID] = j.Clone()
	return nil
}

// FindByID retrieves a job by its ID.
// Returns a clone to prevent external mutations.
func (r *MemoryRepository) FindByID(_ context.Context, jobID string) (*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	return j.Clone(), nil
}

// UpdateFields patches a stored job record.
func (r *MemoryRepository) UpdateFields(_ context.Context, jobID string, f Fields) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	return f.apply(j)
}

// Claim moves a non-terminal job to processing with the given progress.
func (r *MemoryRepository) Claim(_ context.Context, jobID string, progress int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok || j.IsTerminal() {
		return false, nil
	}
	if err := ProgressFields(progress).apply(j); err != nil {
		return false, err
	}
	return true, nil
}
