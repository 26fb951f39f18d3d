package segment

import (
	"fmt"

	"github.com/maauso/silence-splitter/internal/audio"
	"github.com/maauso/silence-splitter/internal/timestamp"
)

// Range is a [StartMs, EndMs) span in milliseconds.
type Range struct {
	StartMs int
	EndMs   int
}

// DurationMs returns the length of r.
func (r Range) DurationMs() int {
	return r.EndMs - r.StartMs
}

// Shift moves r by offset milliseconds.
func (r Range) Shift(offset int) Range {
	return Range{StartMs: r.StartMs + offset, EndMs: r.EndMs + offset}
}

func (r Range) String() string {
	return fmt.Sprintf("[%s - %s]", timestamp.FormatMS(r.StartMs), timestamp.FormatMS(r.EndMs))
}

// SelectRange resolves the processing window of an input of durationMs.
// A nil End selects up to the end of the input and a later End is clamped.
func SelectRange(durationMs int, start timestamp.Timestamp, end *timestamp.Timestamp) (Range, error) {
	startMs := start.Milliseconds()
	endMs := durationMs
	if end != nil {
		endMs = min(end.Milliseconds(), durationMs)
	}

	// A negative start only comes from a Timestamp built with negative
	// fields and never names a position inside the input.
	if startMs < 0 || startMs >= durationMs {
		return Range{}, &StartBeyondDurationError{StartMs: startMs, DurationMs: durationMs}
	}
	if endMs <= startMs {
		return Range{}, fmt.Errorf("%w: start %s, end %s",
			ErrEmptyWindow, timestamp.FormatMS(startMs), timestamp.FormatMS(endMs))
	}

	return Range{StartMs: startMs, EndMs: endMs}, nil
}

// Pad widens r by keepMs on both sides, clamped to [0, maxMs].
func Pad(r Range, keepMs, maxMs int) Range {
	return Range{
		StartMs: max(0, r.StartMs-keepMs),
		EndMs:   min(maxMs, r.EndMs+keepMs),
	}
}

// PadAndFilter pads every detected interval and splits the result into the
// ranges to export and the ranges shorter than minChunkMs. A minChunkMs of
// zero keeps everything. Order is preserved.
func PadAndFilter(intervals []audio.Interval, keepMs, minChunkMs, maxMs int) (kept, skipped []Range) {
	for _, iv := range intervals {
		r := Pad(Range{StartMs: iv.StartMs, EndMs: iv.EndMs}, keepMs, maxMs)
		if minChunkMs > 0 && r.DurationMs() < minChunkMs {
			skipped = append(skipped, r)
			continue
		}
		kept = append(kept, r)
	}
	return kept, skipped
}

// FileName returns the name of the index-th segment (1-based) at the
// absolute range r, e.g. "S1_00:05-00:07.mp3".
func FileName(index int, r Range, ext string) string {
	return fmt.Sprintf("S%d_%s-%s.%s", index, timestamp.FormatMS(r.StartMs), timestamp.FormatMS(r.EndMs), ext)
}
