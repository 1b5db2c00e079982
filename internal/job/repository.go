package job

import (
	"context"
	"errors"
	"time"
)

// ErrJobNotFound is returned when a job cannot be found by ID.
var ErrJobNotFound = errors.New("job not found")

// ErrTerminalState is returned when a write targets a job that has already
// reached done or failed. Stale duplicate executions hit this instead of
// resurrecting a finished job.
var ErrTerminalState = errors.New("job is in a terminal state")

// Fields is a partial write to a job record. Nil members are left
// untouched. It mirrors the field-set update the store exposes, so every
// progress step is a single keyed write with no cross-document locking.
type Fields struct {
	Status      *Status
	Progress    *int
	URL         *string
	Filename    *string
	Caption     *string
	Error       *string
	CompletedAt *time.Time
}

// ProgressFields builds the patch the worker writes on each progress step.
func ProgressFields(percent int) Fields {
	s := StatusProcessing
	p := clampProgress(percent)
	return Fields{Status: &s, Progress: &p}
}

// SuccessFields builds the terminal patch for a finished video.
func SuccessFields(url, filename, caption string) Fields {
	s := StatusDone
	p := 100
	now := time.Now().UTC()
	return Fields{
		Status:      &s,
		Progress:    &p,
		URL:         &url,
		Filename:    &filename,
		Caption:     &caption,
		CompletedAt: &now,
	}
}

// FailureFields builds the terminal patch for a failed job.
func FailureFields(diagnostic string) Fields {
	s := StatusFailed
	now := time.Now().UTC()
	return Fields{Status: &s, Error: &diagnostic, CompletedAt: &now}
}

// apply writes the patch onto a job record in place. It refuses to touch a
// terminal record and stamps UpdatedAt.
func (f Fields) apply(j *Job) error {
	if j.IsTerminal() {
		return ErrTerminalState
	}
	if f.Status != nil {
		j.Status = *f.Status
	}
	if f.Progress != nil {
		j.Progress = clampProgress(*f.Progress)
	}
	if f.URL != nil {
		j.URL = *f.URL
	}
	if f.Filename != nil {
		j.Filename = *f.Filename
	}
	if f.Caption != nil {
		j.Caption = *f.Caption
	}
	if f.Error != nil {
		j.Error = *f.Error
	}
	if f.CompletedAt != nil {
		j.CompletedAt = *f.CompletedAt
	}
	j.UpdatedAt = time.Now().UTC()
	return nil
}

// Repository defines the interface for job persistence. It is the shared
// record all processes cooperate through: the producer inserts, the worker
// claims and patches, the poller reads.
type Repository interface {
	// Insert persists a new job record. The record must exist before the
	// matching task is enqueued.
	Insert(ctx context.Context, j *Job) error

	// FindByID retrieves a job by its identifier.
	// Returns ErrJobNotFound if the record does not exist.
	FindByID(ctx context.Context, jobID string) (*Job, error)

	// UpdateFields patches the named fields of a job record.
	// Returns ErrJobNotFound for unknown IDs and ErrTerminalState when the
	// record already reached done or failed.
	UpdateFields(ctx context.Context, jobID string, f Fields) error

	// Claim atomically moves a non-terminal job to processing with the
	// given initial progress. It returns false when the job is already
	// terminal or missing, which tells a worker holding a redelivered
	// task to drop it.
	Claim(ctx context.Context, jobID string, progress int) (bool, error)
}
