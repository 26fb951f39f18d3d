package audio

import (
	"context"
	"fmt"
	"math"
)

// maxAmplitude is the largest magnitude of a signed 16-bit sample.
const maxAmplitude = 32768

// PCMDetector finds silence by sliding a MinSilenceMs window over the buffer
// in SeekStepMs steps and comparing the window RMS against the threshold.
type PCMDetector struct{}

// NewPCMDetector creates a PCMDetector.
func NewPCMDetector() *PCMDetector {
	return &PCMDetector{}
}

// Detect implements Detector.
func (d *PCMDetector) Detect(ctx context.Context, buf *Buffer, opts DetectOpts) ([]Interval, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("detect cancelled: %w", err)
	}
	if opts.SeekStepMs <= 0 {
		opts.SeekStepMs = 1
	}

	total := buf.DurationMs()
	if total == 0 {
		return nil, nil
	}

	return nonSilent(detectSilence(buf, opts), total), nil
}

// detectSilence returns the merged silent ranges of buf.
func detectSilence(buf *Buffer, opts DetectOpts) []Interval {
	total := buf.DurationMs()
	window := opts.MinSilenceMs
	if window <= 0 || total < window {
		return nil
	}

	threshold := math.Pow(10, opts.SilenceThreshDB/20) * maxAmplitude
	energy := cumulativeEnergy(buf, total)

	// Window start offsets: every step, plus the last possible start.
	last := total - window
	var starts []int
	for i := 0; i <= last; i += opts.SeekStepMs {
		if windowRMS(buf, energy, i, i+window) <= threshold {
			starts = append(starts, i)
		}
	}
	if last%opts.SeekStepMs != 0 && windowRMS(buf, energy, last, total) <= threshold {
		starts = append(starts, last)
	}
	if len(starts) == 0 {
		return nil
	}

	var ranges []Interval
	prev := starts[0]
	rangeStart := prev
	for _, s := range starts[1:] {
		continuous := s == prev+opts.SeekStepMs
		hasGap := s > prev+window
		if !continuous && hasGap {
			ranges = append(ranges, Interval{StartMs: rangeStart, EndMs: prev + window})
			rangeStart = s
		}
		prev = s
	}
	ranges = append(ranges, Interval{StartMs: rangeStart, EndMs: prev + window})

	return ranges
}

// nonSilent returns the complement of the silent ranges within [0, total).
func nonSilent(silent []Interval, total int) []Interval {
	if len(silent) == 0 {
		return []Interval{{StartMs: 0, EndMs: total}}
	}
	if silent[0].StartMs <= 0 && silent[0].EndMs >= total {
		return nil
	}

	var out []Interval
	prevEnd := 0
	for _, s := range silent {
		start := clamp(s.StartMs, 0, total)
		if start > prevEnd {
			out = append(out, Interval{StartMs: prevEnd, EndMs: start})
		}
		if end := clamp(s.EndMs, 0, total); end > prevEnd {
			prevEnd = end
		}
	}
	if prevEnd < total {
		out = append(out, Interval{StartMs: prevEnd, EndMs: total})
	}
	return out
}

// cumulativeEnergy returns the running sum of squared samples at each
// millisecond boundary: energy[ms] covers frames [0, frameAt(ms)).
func cumulativeEnergy(buf *Buffer, total int) []uint64 {
	energy := make([]uint64, total+1)
	var sum uint64
	frame := 0
	for ms := 0; ms <= total; ms++ {
		end := buf.frameAt(ms)
		for ; frame < end; frame++ {
			for _, s := range buf.Samples[frame*buf.Channels : (frame+1)*buf.Channels] {
				v := int64(s)
				sum += uint64(v * v)
			}
		}
		energy[ms] = sum
	}
	return energy
}

// windowRMS returns the integer RMS of all samples in [startMs, endMs).
func windowRMS(buf *Buffer, energy []uint64, startMs, endMs int) float64 {
	n := (buf.frameAt(endMs) - buf.frameAt(startMs)) * buf.Channels
	if n == 0 {
		return 0
	}
	return math.Floor(math.Sqrt(float64(energy[endMs]-energy[startMs]) / float64(n)))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Verify interface implementation at compile time.
var _ Detector = (*PCMDetector)(nil)
