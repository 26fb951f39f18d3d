package segment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maauso/silence-splitter/internal/audio"
	"github.com/maauso/silence-splitter/internal/storage"
	"github.com/maauso/silence-splitter/internal/timestamp"
)

// Segment is one exported file.
type Segment struct {
	// Index is the 1-based position of the segment in the output.
	Index int
	// Range is the padded span relative to the original input.
	Range Range
	// Name is the output file name.
	Name string
	// Location is where the segment was published (a path or a URL).
	Location string
}

// Result describes a finished run.
type Result struct {
	// Window is the processed span of the input.
	Window Range
	// Segments are the exported segments in chronological order.
	Segments []Segment
	// Skipped are padded ranges dropped for being shorter than MinChunkMs,
	// relative to the original input.
	Skipped []Range
}

// Segmenter runs the load, detect, pad and export pipeline.
type Segmenter struct {
	loader     audio.Loader
	detector   audio.Detector
	encoders   map[string]audio.Encoder
	store      storage.Storage
	logger     *slog.Logger
	seekStepMs int
}

// Option is a function that configures a Segmenter.
type Option func(*Segmenter)

// WithEncoder registers an encoder for its extension, replacing any
// encoder already registered for it.
func WithEncoder(enc audio.Encoder) Option {
	return func(s *Segmenter) {
		s.encoders[enc.Extension()] = enc
	}
}

// WithSeekStep sets the detector window stride in milliseconds.
func WithSeekStep(ms int) Option {
	return func(s *Segmenter) {
		if ms > 0 {
			s.seekStepMs = ms
		}
	}
}

// NewSegmenter creates a new Segmenter.
func NewSegmenter(loader audio.Loader, detector audio.Detector, store storage.Storage, logger *slog.Logger, opts ...Option) *Segmenter {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Segmenter{
		loader:     loader,
		detector:   detector,
		encoders:   make(map[string]audio.Encoder),
		store:      store,
		logger:     logger,
		seekStepMs: audio.DefaultDetectOpts().SeekStepMs,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run splits the audio file at input according to p.
// Nothing is written unless the window is valid and detection succeeds.
// The first export failure aborts the run.
func (s *Segmenter) Run(ctx context.Context, input string, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	enc, ok := s.encoders[p.Format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, p.Format)
	}

	progress := slog.LevelDebug
	if p.Verbose {
		progress = slog.LevelInfo
	}

	buf, err := s.loader.Load(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("load audio: %w", err)
	}

	duration := buf.DurationMs()
	s.logger.Log(ctx, progress, "loaded audio file",
		slog.String("path", input),
		slog.String("length", timestamp.FormatMS(duration)),
		slog.Int("sample_rate", buf.SampleRate),
		slog.Int("channels", buf.Channels),
	)

	window, err := SelectRange(duration, p.Start, p.End)
	if err != nil {
		return nil, err
	}
	sub := buf.Slice(window.StartMs, window.EndMs)

	s.logger.Log(ctx, progress, "detecting silence",
		slog.String("window", window.String()),
		slog.Float64("silence_thresh_db", p.SilenceThreshDB),
		slog.Int("min_silence_ms", p.MinSilenceMs),
	)

	intervals, err := s.detector.Detect(ctx, sub, audio.DetectOpts{
		SilenceThreshDB: p.SilenceThreshDB,
		MinSilenceMs:    p.MinSilenceMs,
		SeekStepMs:      s.seekStepMs,
	})
	if err != nil {
		return nil, fmt.Errorf("detect silence: %w", err)
	}

	kept, skipped := PadAndFilter(intervals, p.KeepSilenceMs, p.MinChunkMs, sub.DurationMs())

	s.logger.Log(ctx, progress, "detection done",
		slog.Int("detected", len(intervals)),
		slog.Int("kept", len(kept)),
		slog.Int("skipped", len(skipped)),
	)

	result := &Result{Window: window}
	for _, r := range skipped {
		abs := r.Shift(window.StartMs)
		result.Skipped = append(result.Skipped, abs)
		s.logger.Log(ctx, progress, "skipping segment, too short",
			slog.String("range", abs.String()),
			slog.Int("duration_ms", r.DurationMs()),
			slog.Int("min_chunk_ms", p.MinChunkMs),
		)
	}

	if err := s.store.Prepare(ctx); err != nil {
		return nil, fmt.Errorf("prepare output: %w", err)
	}

	for i, r := range kept {
		seg, err := s.export(ctx, enc, sub, i+1, r, window.StartMs)
		if err != nil {
			return nil, err
		}
		result.Segments = append(result.Segments, seg)
		s.logger.Log(ctx, progress, "saved segment",
			slog.Int("index", seg.Index),
			slog.String("location", seg.Location),
		)
	}

	return result, nil
}

// export encodes the relative range r of sub as segment index.
func (s *Segmenter) export(ctx context.Context, enc audio.Encoder, sub *audio.Buffer, index int, r Range, offset int) (Segment, error) {
	abs := r.Shift(offset)
	name := FileName(index, abs, enc.Extension())
	dst := s.store.Path(name)

	if err := enc.Encode(ctx, sub.Slice(r.StartMs, r.EndMs), dst); err != nil {
		return Segment{}, fmt.Errorf("export segment %d: %w", index, err)
	}

	location, err := s.store.Publish(ctx, dst)
	if err != nil {
		return Segment{}, fmt.Errorf("publish segment %d: %w", index, err)
	}

	return Segment{
		Index:    index,
		Range:    abs,
		Name:     name,
		Location: location,
	}, nil
}
