// Package id provides unique identifier generation for jobs.
package id

import (
	"github.com/google/uuid"
)

// Generate creates a new unique job ID.
// Job IDs are opaque UUIDv4 strings; they are the sole lookup key for a
// job record and the reference carried by its queue task.
func Generate() string {
	return uuid.NewString()
}

// Valid reports whether s parses as a job ID.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
