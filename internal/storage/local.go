package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Compile-time check that LocalStorage implements Storage.
var _ Storage = (*LocalStorage)(nil)

// LocalStorage implements the Storage interface on local disk. Finished
// videos stay in the video directory and are served by the API process at
// <base>/static/<file>.
type LocalStorage struct {
	dir     string
	baseURL string
}

// NewLocalStorage creates a LocalStorage rooted at dir.
// The directory is created if it doesn't exist. baseURL is the public
// base the API is reachable on, without a trailing slash.
func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "adreel-video")
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create video directory: %w", err)
	}

	return &LocalStorage{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Dir returns the video directory path.
func (s *LocalStorage) Dir() string {
	return s.dir
}

// SaveUpload writes producer-supplied media into the video directory under
// the given name and returns the absolute path.
func (s *LocalStorage) SaveUpload(ctx context.Context, name string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	dest := filepath.Join(s.dir, filepath.Base(name))
	f, err := os.Create(dest) // #nosec G304 - name is constrained to the video dir
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(dest)
		return "", fmt.Errorf("write upload file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(dest)
		return "", fmt.Errorf("close upload file: %w", err)
	}

	return dest, nil
}

// Publish verifies the finished video exists and returns its static URL.
func (s *LocalStorage) Publish(_ context.Context, filename string) (string, error) {
	filename = filepath.Base(filename)
	if _, err := os.Stat(filepath.Join(s.dir, filename)); err != nil {
		return "", fmt.Errorf("stat video %s: %w", filename, err)
	}
	return fmt.Sprintf("%s/static/%s", s.baseURL, filename), nil
}
