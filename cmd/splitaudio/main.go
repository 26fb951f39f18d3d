// Package main provides the splitaudio command, which splits an audio file
// into segments at detected silence.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/maauso/silence-splitter/internal/bootstrap"
	"github.com/maauso/silence-splitter/internal/config"
	"github.com/maauso/silence-splitter/internal/segment"
	"github.com/maauso/silence-splitter/internal/timestamp"
)

// Exit statuses.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

const usageText = `Usage: splitaudio [flags] <audio_file> <output_folder>

Split an audio file into segments at detected silence.

Flags:
  -s, --start string              start of the processed window, HH:MM:SS (default 00:00:00)
  -e, --end string                end of the processed window, HH:MM:SS (default end of file)
  -t, --silence_thresh float      silence threshold in dBFS (default -40)
  -m, --min_silence_len int       minimum silence length in ms (default 500)
  -k, --keep_silence int          silence kept around each segment in ms (default 100)
  -d, --min_chunk_duration int    drop segments shorter than this in ms (default 0)
  -f, --format string             output format, mp3 or wav (default mp3)
  -v, --verbose                   log progress
`

// usageError marks command line errors, which exit with status 2.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

// options holds the parsed command line.
type options struct {
	input     string
	outputDir string
	params    segment.Params
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(exitCode(err, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create structured logger
	logger := cfg.NewLogger(stdout, opts.params.Verbose)
	slog.SetDefault(logger)

	logger.Debug("starting splitaudio",
		slog.String("input", opts.input),
		slog.String("output_dir", opts.outputDir),
		slog.String("config", cfg.String()),
	)

	// Initialize dependencies using bootstrap
	deps, err := bootstrap.NewDependencies(ctx, cfg, opts.outputDir, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	result, err := deps.Segmenter.Run(ctx, opts.input, opts.params)
	if err != nil {
		return err
	}

	logger.Debug("split complete",
		slog.String("window", result.Window.String()),
		slog.Int("segments", len(result.Segments)),
		slog.Int("skipped", len(result.Skipped)),
	)
	return nil
}

// parseArgs parses flags and the two positional arguments. Flags may be
// given before, between or after the positionals.
func parseArgs(args []string, stderr io.Writer) (options, error) {
	p := segment.DefaultParams()
	var start, end string

	fs := flag.NewFlagSet("splitaudio", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	for _, name := range []string{"s", "start"} {
		fs.StringVar(&start, name, "00:00:00", "")
	}
	for _, name := range []string{"e", "end"} {
		fs.StringVar(&end, name, "", "")
	}
	for _, name := range []string{"t", "silence_thresh"} {
		fs.Float64Var(&p.SilenceThreshDB, name, segment.DefaultSilenceThreshDB, "")
	}
	for _, name := range []string{"m", "min_silence_len"} {
		fs.IntVar(&p.MinSilenceMs, name, segment.DefaultMinSilenceMs, "")
	}
	for _, name := range []string{"k", "keep_silence"} {
		fs.IntVar(&p.KeepSilenceMs, name, segment.DefaultKeepSilenceMs, "")
	}
	for _, name := range []string{"d", "min_chunk_duration"} {
		fs.IntVar(&p.MinChunkMs, name, 0, "")
	}
	for _, name := range []string{"f", "format"} {
		fs.StringVar(&p.Format, name, segment.DefaultFormat, "")
	}
	for _, name := range []string{"v", "verbose"} {
		fs.BoolVar(&p.Verbose, name, false, "")
	}

	fail := func(err error) (options, error) {
		fmt.Fprintf(stderr, "error: %v\n\n%s", err, usageText)
		return options{}, &usageError{err: err}
	}

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				fmt.Fprint(stderr, usageText)
				return options{}, flag.ErrHelp
			}
			return fail(err)
		}
		rest := fs.Args()
		if len(rest) == 0 {
			break
		}
		// Everything after a "--" terminator is positional.
		if consumed := len(args) - len(rest); consumed > 0 && args[consumed-1] == "--" {
			positional = append(positional, rest...)
			break
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}

	if len(positional) != 2 {
		return fail(fmt.Errorf("expected <audio_file> and <output_folder>, got %d positional arguments", len(positional)))
	}

	ts, err := timestamp.Parse(start)
	if err != nil {
		return fail(fmt.Errorf("--start: %w", err))
	}
	p.Start = ts
	if end != "" {
		ts, err := timestamp.Parse(end)
		if err != nil {
			return fail(fmt.Errorf("--end: %w", err))
		}
		p.End = &ts
	}

	if err := p.Validate(); err != nil {
		return fail(err)
	}

	return options{
		input:     positional[0],
		outputDir: positional[1],
		params:    p,
	}, nil
}

// exitCode maps the result of run to a process exit status, reporting
// runtime errors on stderr.
func exitCode(err error, stderr io.Writer) int {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	var uerr *usageError
	if errors.As(err, &uerr) {
		// Already reported with the usage text.
		return exitUsage
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	return exitFailure
}
