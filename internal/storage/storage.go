// Package storage manages the shared video directory: uploaded media the
// producer resolves to stable worker-visible paths, finished renders, and
// the public URL each finished video is published under.
package storage

import (
	"context"
	"io"
)

// Storage is the artifact storage port. The local implementation serves
// finished videos from the video directory under /static; the S3
// implementation publishes them to a bucket instead.
type Storage interface {
	// SaveUpload persists producer-supplied media (e.g. custom music)
	// under the given name and returns a stable path workers can read.
	SaveUpload(ctx context.Context, name string, data io.Reader) (path string, err error)

	// Publish makes a finished video in the video directory publicly
	// reachable and returns its URL.
	Publish(ctx context.Context, filename string) (url string, err error)

	// Dir returns the video directory path.
	Dir() string
}
