// Package ffmpeg runs the ffmpeg and ffprobe command line tools.
package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
)

// Static errors for ffmpeg operations.
var (
	// ErrFFprobeExecution is returned when the ffprobe command fails.
	ErrFFprobeExecution = errors.New("ffprobe execution failed")
	// ErrNoAudioStream is returned when the probed file has no audio stream.
	ErrNoAudioStream = errors.New("no audio stream found")
)

// Runner executes ffmpeg and ffprobe.
type Runner struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	// ffprobePath is the path to the ffprobe binary. Defaults to "ffprobe".
	ffprobePath string
}

// NewRunner creates a new Runner.
// Empty paths default to "ffmpeg" and "ffprobe" (found via PATH).
func NewRunner(ffmpegPath, ffprobePath string) *Runner {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Runner{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

// Run executes ffmpeg with the given arguments. stdin and stdout may be nil.
// On failure it returns an *Error carrying the stderr output.
func (r *Runner) Run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	_, err := r.run(ctx, args, stdin, stdout)
	return err
}

// RunStderr executes ffmpeg and returns everything it wrote to stderr.
// Filters such as silencedetect report their results there.
func (r *Runner) RunStderr(ctx context.Context, args []string, stdin io.Reader) (string, error) {
	return r.run(ctx, args, stdin, nil)
}

func (r *Runner) run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) (string, error) {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, r.ffmpegPath, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return stderr.String(), fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return stderr.String(), &Error{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return stderr.String(), nil
}

// Error represents an error from running ffmpeg, including the stderr output.
type Error struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StreamInfo describes the first audio stream of a media file.
type StreamInfo struct {
	SampleRate int
	Channels   int
	// DurationSec is the container duration in seconds, 0 if unknown.
	DurationSec float64
}

type probeOutput struct {
	Streams []struct {
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe returns the sample rate, channel count and duration of the first
// audio stream in path.
func (r *Runner) Probe(ctx context.Context, path string) (StreamInfo, error) {
	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, r.ffprobePath,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate,channels:format=duration",
		"-of", "json",
		path,
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return StreamInfo{}, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return StreamInfo{}, fmt.Errorf("%w: %w, stderr: %s", ErrFFprobeExecution, err, stderr.String())
	}

	return parseProbeOutput(stdout.Bytes())
}

func parseProbeOutput(data []byte) (StreamInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return StreamInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return StreamInfo{}, ErrNoAudioStream
	}

	rate, err := strconv.Atoi(out.Streams[0].SampleRate)
	if err != nil || rate <= 0 {
		return StreamInfo{}, fmt.Errorf("parse sample rate %q: %w", out.Streams[0].SampleRate, ErrNoAudioStream)
	}
	if out.Streams[0].Channels <= 0 {
		return StreamInfo{}, fmt.Errorf("invalid channel count %d: %w", out.Streams[0].Channels, ErrNoAudioStream)
	}

	info := StreamInfo{
		SampleRate: rate,
		Channels:   out.Streams[0].Channels,
	}
	if out.Format.Duration != "" {
		if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
			info.DurationSec = d
		}
	}
	return info, nil
}
