// Package segment splits audio into files at detected silence.
//
// A run loads the input, clips it to the requested window, detects the
// non-silent intervals, pads them with some of the surrounding silence,
// drops the ones that are too short and exports the rest as numbered files
// named after their position in the original input.
package segment

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/silence-splitter/internal/timestamp"
)

// Static errors for segmentation.
var (
	// ErrInvalidParams is returned when Params fail validation.
	ErrInvalidParams = errors.New("invalid segment parameters")
	// ErrUnsupportedFormat is returned when no encoder is registered for the output format.
	ErrUnsupportedFormat = errors.New("unsupported output format")
	// ErrStartBeyondDuration is returned when the start timestamp is at or past the end of the input.
	ErrStartBeyondDuration = errors.New("start timestamp is beyond the end of the audio")
	// ErrEmptyWindow is returned when the end timestamp is not after the start timestamp.
	ErrEmptyWindow = errors.New("end timestamp must be after start timestamp")
)

// Default parameter values.
const (
	DefaultSilenceThreshDB = -40
	DefaultMinSilenceMs    = 500
	DefaultKeepSilenceMs   = 100
	DefaultFormat          = "mp3"
)

// Params configures a segmentation run.
type Params struct {
	// Start is where processing begins in the input.
	Start timestamp.Timestamp
	// End is where processing stops. Nil means the end of the input.
	End *timestamp.Timestamp

	// SilenceThreshDB is the level in dBFS at or below which audio is silence.
	SilenceThreshDB float64 `validate:"lte=0"`
	// MinSilenceMs is the shortest silence that separates two segments.
	MinSilenceMs int `validate:"min=1"`
	// KeepSilenceMs is the silence kept on each side of a segment.
	KeepSilenceMs int `validate:"min=0"`
	// MinChunkMs drops padded segments shorter than this. Zero keeps all.
	MinChunkMs int `validate:"min=0"`

	// Format selects the output encoder, e.g. "mp3" or "wav".
	Format string `validate:"required,oneof=mp3 wav"`
	// Verbose logs progress at info level instead of debug.
	Verbose bool
}

// DefaultParams returns the parameters used when the user sets nothing.
func DefaultParams() Params {
	return Params{
		SilenceThreshDB: DefaultSilenceThreshDB,
		MinSilenceMs:    DefaultMinSilenceMs,
		KeepSilenceMs:   DefaultKeepSilenceMs,
		Format:          DefaultFormat,
	}
}

var validate = validator.New()

// Validate checks the parameter constraints.
func (p Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return nil
}

// StartBeyondDurationError reports a start timestamp at or past the end of
// the input. It matches ErrStartBeyondDuration with errors.Is.
type StartBeyondDurationError struct {
	StartMs    int
	DurationMs int
}

func (e *StartBeyondDurationError) Error() string {
	return fmt.Sprintf("start timestamp set to %s, but the audio file is only %s h:m:s long",
		timestamp.FormatMS(e.StartMs), timestamp.FormatMS(e.DurationMs))
}

func (e *StartBeyondDurationError) Unwrap() error {
	return ErrStartBeyondDuration
}
