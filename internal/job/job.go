// Package job provides the Job record for the video generation pipeline,
// the Repository port used by the producer, worker, and poller, and the
// Service that implements submission and status lookups.
package job

import (
	"time"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusQueued indicates the job record exists and a task is waiting
	// for an available worker.
	StatusQueued Status = "queued"
	// StatusProcessing indicates a worker is generating the video.
	StatusProcessing Status = "processing"
	// StatusDone indicates the video was generated and published.
	StatusDone Status = "done"
	// StatusFailed indicates generation failed; Error carries the diagnostic.
	StatusFailed Status = "failed"
)

// StatusNotFound is reported by the poller for unknown job IDs.
// It is never stored on a Job record.
const StatusNotFound Status = "not_found"

// IsTerminal returns true if the status represents a final state.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed
}

// validTransitions defines which state transitions are allowed.
// failed is reachable from any non-terminal state.
var validTransitions = map[Status][]Status{
	StatusQueued:     {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusProcessing, StatusDone, StatusFailed},
	StatusDone:       {},
	StatusFailed:     {},
}

// CanTransition checks if a transition from one status to another is valid.
func CanTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Job is one user-requested video generation unit of work. The record in
// the store is the single source of truth: the producer writes it once at
// creation and the worker mutates it on every progress step. Callers never
// cache a Job across calls.
type Job struct {
	// JobID is the opaque unique identifier, generated at submission.
	JobID string `json:"job_id"`
	// Status is the current lifecycle state.
	Status Status `json:"status"`
	// Progress is the completion percentage (0-100).
	Progress int `json:"progress"`
	// ShopName identifies the store the request came from. Write-once.
	ShopName string `json:"shop_name,omitempty"`
	// Title is the product title the video advertises. Write-once.
	Title string `json:"title,omitempty"`
	// URL is the public URL of the finished video. Set only on success.
	URL string `json:"url,omitempty"`
	// Filename is the artifact name in the video directory. Set only on success.
	Filename string `json:"filename,omitempty"`
	// Caption is the generated social caption. Set only on success.
	Caption string `json:"caption,omitempty"`
	// Error is a human-readable diagnostic. Set only on failure.
	Error string `json:"error,omitempty"`
	// CreatedAt is when the job was submitted.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the record was last written.
	UpdatedAt time.Time `json:"updated_at"`
	// CompletedAt is when the job reached a terminal state.
	CompletedAt time.Time `json:"completed_at,omitzero"`
}

// New creates a queued Job with the given identifier and request metadata.
func New(jobID, shopName, title string) *Job {
	now := time.Now().UTC()
	return &Job{
		JobID:     jobID,
		Status:    StatusQueued,
		Progress:  0,
		ShopName:  shopName,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// Clone returns a copy of the job for safe reads.
func (j *Job) Clone() *Job {
	c := *j
	return &c
}

// clampProgress bounds a reported percentage to 0-100.
func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
