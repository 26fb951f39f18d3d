// Package storage provides destinations for exported segment files.
// Segments are always written to a local output directory; implementations
// may additionally publish them elsewhere, such as S3.
package storage

import "context"

// Storage defines where exported segments are written and published.
type Storage interface {
	// Prepare creates the output location. It is called once, before
	// the first segment is written.
	Prepare(ctx context.Context) error

	// Path returns the local file path for a segment file name.
	Path(name string) string

	// Publish makes a written segment available at its final destination
	// and returns its location (a local path or a URL).
	Publish(ctx context.Context, path string) (location string, err error)
}
