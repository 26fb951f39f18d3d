package audio

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/maauso/silence-splitter/internal/ffmpeg"
)

// FFmpegLoader decodes any format ffmpeg understands into 16-bit PCM,
// keeping the source sample rate and channel count.
type FFmpegLoader struct {
	runner *ffmpeg.Runner
}

// NewFFmpegLoader creates a new FFmpegLoader.
func NewFFmpegLoader(runner *ffmpeg.Runner) *FFmpegLoader {
	return &FFmpegLoader{runner: runner}
}

// Load implements Loader.
func (l *FFmpegLoader) Load(ctx context.Context, path string) (*Buffer, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("input file: %w", err)
	}

	info, err := l.runner.Probe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}

	args := []string{
		"-v", "error",
		"-nostdin",
		"-i", path,
		"-vn",                  // Ignore any video stream
		"-f", "s16le",          // Raw little-endian 16-bit output
		"-acodec", "pcm_s16le", // PCM codec
		"-ar", strconv.Itoa(info.SampleRate),
		"-ac", strconv.Itoa(info.Channels),
		"pipe:1",
	}

	var pcm bytes.Buffer
	pcm.Grow(expectedPCMSize(info))
	if err := l.runner.Run(ctx, args, nil, &pcm); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	buf, err := FromPCM(pcm.Bytes(), info.SampleRate, info.Channels)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if buf.Frames() == 0 {
		return nil, fmt.Errorf("decode %s: %w", path, ErrEmptyInput)
	}
	return buf, nil
}

// maxPreallocBytes caps the buffer reserved up front for decoded PCM.
const maxPreallocBytes = 1 << 30

// expectedPCMSize estimates the s16 PCM size of a probed stream from its
// container duration. It returns 0 when the duration is unknown.
func expectedPCMSize(info ffmpeg.StreamInfo) int {
	if info.DurationSec <= 0 {
		return 0
	}
	size := info.DurationSec * float64(info.SampleRate) * float64(info.Channels) * 2
	if size > maxPreallocBytes {
		return maxPreallocBytes
	}
	return int(size)
}

// FFmpegDetector runs ffmpeg's silencedetect filter over the buffer and
// returns the gaps between the reported silences.
type FFmpegDetector struct {
	runner *ffmpeg.Runner
}

// NewFFmpegDetector creates a new FFmpegDetector.
func NewFFmpegDetector(runner *ffmpeg.Runner) *FFmpegDetector {
	return &FFmpegDetector{runner: runner}
}

// Detect implements Detector.
func (d *FFmpegDetector) Detect(ctx context.Context, buf *Buffer, opts DetectOpts) ([]Interval, error) {
	total := buf.DurationMs()
	if total == 0 {
		return nil, nil
	}

	filter := fmt.Sprintf("silencedetect=noise=%sdB:d=%.3f",
		strconv.FormatFloat(opts.SilenceThreshDB, 'f', -1, 64),
		float64(opts.MinSilenceMs)/1000.0,
	)

	args := append(rawInputArgs(buf),
		"-af", filter,
		"-f", "null",
		"-",
	)

	output, err := d.runner.RunStderr(ctx, args, bytes.NewReader(buf.PCM()))
	if err != nil {
		return nil, fmt.Errorf("silencedetect: %w", err)
	}

	silences, err := parseSilenceOutput(output, total)
	if err != nil {
		return nil, fmt.Errorf("parse silencedetect output: %w", err)
	}

	return nonSilent(silences, total), nil
}

var (
	silenceStartRe = regexp.MustCompile(`silence_start:\s*(-?[\d.]+)`)
	silenceEndRe   = regexp.MustCompile(`silence_end:\s*(-?[\d.]+)`)
)

// parseSilenceOutput parses ffmpeg silencedetect output into silent ranges in
// milliseconds. A silence that starts but never ends runs to totalMs.
func parseSilenceOutput(output string, totalMs int) ([]Interval, error) {
	var intervals []Interval
	scanner := bufio.NewScanner(strings.NewReader(output))

	var currentStart int
	hasStart := false

	for scanner.Scan() {
		line := scanner.Text()

		if m := silenceStartRe.FindStringSubmatch(line); len(m) > 1 {
			val, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			currentStart = clamp(secondsToMs(val), 0, totalMs)
			hasStart = true
		}

		if m := silenceEndRe.FindStringSubmatch(line); len(m) > 1 && hasStart {
			val, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			intervals = append(intervals, Interval{
				StartMs: currentStart,
				EndMs:   clamp(secondsToMs(val), 0, totalMs),
			})
			hasStart = false
		}
	}

	if hasStart {
		intervals = append(intervals, Interval{StartMs: currentStart, EndMs: totalMs})
	}

	return intervals, scanner.Err()
}

func secondsToMs(sec float64) int {
	return int(math.Round(sec * 1000))
}

// FFmpegEncoder encodes buffers to MP3 with libmp3lame.
type FFmpegEncoder struct {
	runner *ffmpeg.Runner
	// bitrate is passed to -b:a when set, e.g. "128k".
	bitrate string
}

// NewFFmpegEncoder creates a new FFmpegEncoder. An empty bitrate keeps the
// encoder default.
func NewFFmpegEncoder(runner *ffmpeg.Runner, bitrate string) *FFmpegEncoder {
	return &FFmpegEncoder{runner: runner, bitrate: bitrate}
}

// Extension implements Encoder.
func (e *FFmpegEncoder) Extension() string {
	return "mp3"
}

// Encode implements Encoder.
func (e *FFmpegEncoder) Encode(ctx context.Context, buf *Buffer, dst string) error {
	args := append([]string{"-y"}, rawInputArgs(buf)...)
	args = append(args, "-c:a", "libmp3lame")
	if e.bitrate != "" {
		args = append(args, "-b:a", e.bitrate)
	}
	args = append(args, "-f", "mp3", dst)

	if err := e.runner.Run(ctx, args, bytes.NewReader(buf.PCM()), nil); err != nil {
		return fmt.Errorf("encode %s: %w", dst, err)
	}
	return nil
}

// rawInputArgs returns the ffmpeg arguments that read buf as raw PCM on stdin.
func rawInputArgs(buf *Buffer) []string {
	return []string{
		"-hide_banner",
		"-nostats",
		"-f", "s16le",
		"-ar", strconv.Itoa(buf.SampleRate),
		"-ac", strconv.Itoa(buf.Channels),
		"-i", "pipe:0",
	}
}

// Verify interface implementations at compile time.
var (
	_ Loader   = (*FFmpegLoader)(nil)
	_ Detector = (*FFmpegDetector)(nil)
	_ Encoder  = (*FFmpegEncoder)(nil)
)
