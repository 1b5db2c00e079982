// Package caption provides the port for the external caption generation
// collaborator. Captioning is cosmetic: callers that get an error fall
// back to a deterministic caption and never fail the job over it.
package caption

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConfigured is returned by Disabled when no caption service is set up.
var ErrNotConfigured = errors.New("caption: service not configured")

// Generator defines the interface for caption providers.
type Generator interface {
	// Caption produces a short social caption for the given product.
	Caption(ctx context.Context, title, description string) (string, error)
}

// Fallback returns the deterministic caption used when the provider fails.
// It is always non-empty.
func Fallback(title string) string {
	if title == "" {
		return "Check this out! #Trending #Fashion"
	}
	return fmt.Sprintf("Check out %s! #Trending #Fashion", title)
}

// Disabled is the Generator used when no caption service is configured.
// Every call errors, so callers always take the fallback path.
type Disabled struct{}

// Caption always returns ErrNotConfigured.
func (Disabled) Caption(_ context.Context, _, _ string) (string, error) {
	return "", ErrNotConfigured
}
