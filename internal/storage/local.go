package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrOutputDirRequired is returned when no output directory is given.
var ErrOutputDirRequired = errors.New("output directory is required")

// LocalStorage writes segments into an output directory on local disk.
type LocalStorage struct {
	dir string
}

// NewLocalStorage creates a new LocalStorage for dir.
// The directory is not created until Prepare is called.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if dir == "" {
		return nil, ErrOutputDirRequired
	}
	return &LocalStorage{dir: dir}, nil
}

// Dir returns the output directory path.
func (s *LocalStorage) Dir() string {
	return s.dir
}

// Prepare creates the output directory if it doesn't exist.
func (s *LocalStorage) Prepare(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

// Path returns the file path for name inside the output directory.
func (s *LocalStorage) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Publish checks that the segment exists and returns its path unchanged.
func (s *LocalStorage) Publish(ctx context.Context, path string) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("stat segment: %w", err)
	}
	return path, nil
}

// Verify interface implementation at compile time.
var _ Storage = (*LocalStorage)(nil)
