package audio

import (
	"context"
	"errors"
)

// ErrEmptyInput is returned when a decoder produced no audio frames.
var ErrEmptyInput = errors.New("decoded audio is empty")

// Interval is a [StartMs, EndMs) span of a buffer in milliseconds.
type Interval struct {
	StartMs int
	EndMs   int
}

// DurationMs returns the interval length.
func (i Interval) DurationMs() int {
	return i.EndMs - i.StartMs
}

// DetectOpts configures silence detection.
type DetectOpts struct {
	// SilenceThreshDB is the level in dBFS at or below which audio
	// is considered silence.
	// Default: -40 dBFS.
	SilenceThreshDB float64

	// MinSilenceMs is the shortest quiet run in milliseconds that
	// counts as a break between segments.
	// Default: 500 milliseconds.
	MinSilenceMs int

	// SeekStepMs is the stride of the analysis window in milliseconds.
	// Only the PCM detector uses it.
	// Default: 1 millisecond.
	SeekStepMs int
}

// DefaultDetectOpts returns the default options for silence detection.
func DefaultDetectOpts() DetectOpts {
	return DetectOpts{
		SilenceThreshDB: -40,
		MinSilenceMs:    500,
		SeekStepMs:      1,
	}
}

// Loader decodes an audio file into memory.
type Loader interface {
	Load(ctx context.Context, path string) (*Buffer, error)
}

// Detector finds the non-silent parts of a buffer.
type Detector interface {
	// Detect returns the non-silent intervals of buf in ascending order.
	// Intervals are disjoint and relative to the start of buf.
	Detect(ctx context.Context, buf *Buffer, opts DetectOpts) ([]Interval, error)
}

// Encoder writes a buffer to a file in a specific format.
type Encoder interface {
	// Encode writes buf to dst, replacing any existing file.
	Encode(ctx context.Context, buf *Buffer, dst string) error
	// Extension returns the file extension without the leading dot.
	Extension() string
}
