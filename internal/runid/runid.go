// Package runid names segmentation runs. An id is used as the S3 key prefix
// that groups the segments of one run, so ids sort by start time.
package runid

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// layout is a compact UTC timestamp without characters that need escaping
// in object keys.
const layout = "20060102T150405Z"

// Generate returns a new id for a run starting now,
// e.g. run-20261016T093000Z-a1b2c3d4.
func Generate() string {
	return New(time.Now())
}

// New returns an id for a run started at t.
func New(t time.Time) string {
	var suffix [4]byte
	// crypto/rand.Read never returns an error.
	_, _ = rand.Read(suffix[:])
	return "run-" + t.UTC().Format(layout) + "-" + hex.EncodeToString(suffix[:])
}
