package segment

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/silence-splitter/internal/audio"
	"github.com/maauso/silence-splitter/internal/timestamp"
)

func ts(h, m, s int) *timestamp.Timestamp {
	return &timestamp.Timestamp{Hours: h, Minutes: m, Seconds: s}
}

func TestSelectRange(t *testing.T) {
	t.Run("whole input by default", func(t *testing.T) {
		r, err := SelectRange(15000, timestamp.Timestamp{}, nil)
		require.NoError(t, err)
		assert.Equal(t, Range{0, 15000}, r)
	})

	t.Run("explicit window", func(t *testing.T) {
		r, err := SelectRange(15000, timestamp.Timestamp{Seconds: 4}, ts(0, 0, 14))
		require.NoError(t, err)
		assert.Equal(t, Range{4000, 14000}, r)
	})

	t.Run("end clamped to duration", func(t *testing.T) {
		r, err := SelectRange(15500, timestamp.Timestamp{}, ts(1, 0, 0))
		require.NoError(t, err)
		assert.Equal(t, Range{0, 15500}, r)
	})

	t.Run("start equal to duration", func(t *testing.T) {
		_, err := SelectRange(15000, timestamp.Timestamp{Seconds: 15}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStartBeyondDuration)

		var sbd *StartBeyondDurationError
		require.True(t, errors.As(err, &sbd))
		assert.Equal(t, 15000, sbd.StartMs)
		assert.Equal(t, 15000, sbd.DurationMs)
		assert.Equal(t, "start timestamp set to 00:15, but the audio file is only 00:15 h:m:s long", err.Error())
	})

	t.Run("start past duration", func(t *testing.T) {
		_, err := SelectRange(15000, timestamp.Timestamp{Hours: 1}, nil)
		assert.ErrorIs(t, err, ErrStartBeyondDuration)
	})

	t.Run("negative start", func(t *testing.T) {
		_, err := SelectRange(15000, timestamp.Timestamp{Seconds: -1}, nil)
		assert.ErrorIs(t, err, ErrStartBeyondDuration)

		_, err = SelectRange(15000, timestamp.Timestamp{Hours: -2, Minutes: 30}, ts(0, 0, 10))
		assert.ErrorIs(t, err, ErrStartBeyondDuration)
	})

	t.Run("huge start from parsed input", func(t *testing.T) {
		start, err := timestamp.Parse(strconv.Itoa(math.MaxInt/3600000) + ":00:00")
		require.NoError(t, err)

		_, err = SelectRange(15000, start, nil)
		assert.ErrorIs(t, err, ErrStartBeyondDuration)
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := SelectRange(15000, timestamp.Timestamp{Seconds: 10}, ts(0, 0, 5))
		assert.ErrorIs(t, err, ErrEmptyWindow)

		_, err = SelectRange(15000, timestamp.Timestamp{Seconds: 5}, ts(0, 0, 5))
		assert.ErrorIs(t, err, ErrEmptyWindow)
	})
}

func TestPad(t *testing.T) {
	tests := []struct {
		name string
		in   Range
		keep int
		max  int
		want Range
	}{
		{"inside", Range{1000, 2000}, 100, 5000, Range{900, 2100}},
		{"clamped low", Range{0, 500}, 100, 5000, Range{0, 600}},
		{"clamped high", Range{4950, 5000}, 100, 5000, Range{4850, 5000}},
		{"no padding", Range{1000, 2000}, 0, 5000, Range{1000, 2000}},
		{"padding wider than buffer", Range{10, 20}, 10000, 30, Range{0, 30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Pad(tt.in, tt.keep, tt.max))
		})
	}
}

func TestPad_StaysInBounds(t *testing.T) {
	const maxMs = 3000
	for start := 0; start <= maxMs; start += 250 {
		for end := start; end <= maxMs; end += 250 {
			for _, keep := range []int{0, 1, 100, 999, 5000} {
				got := Pad(Range{start, end}, keep, maxMs)
				assert.True(t, 0 <= got.StartMs && got.StartMs <= got.EndMs && got.EndMs <= maxMs,
					"Pad(%d,%d,keep=%d) = %v", start, end, keep, got)
			}
		}
	}
}

func TestPadAndFilter(t *testing.T) {
	intervals := []audio.Interval{{StartMs: 0, EndMs: 500}, {StartMs: 1000, EndMs: 1600}, {StartMs: 3000, EndMs: 5000}}

	t.Run("no minimum keeps everything", func(t *testing.T) {
		kept, skipped := PadAndFilter(intervals, 100, 0, 6000)
		assert.Equal(t, []Range{{0, 600}, {900, 1700}, {2900, 5100}}, kept)
		assert.Empty(t, skipped)
	})

	t.Run("minimum drops short padded ranges", func(t *testing.T) {
		kept, skipped := PadAndFilter(intervals, 100, 1000, 6000)
		assert.Equal(t, []Range{{2900, 5100}}, kept)
		assert.Equal(t, []Range{{0, 600}, {900, 1700}}, skipped)
	})

	t.Run("boundary duration is kept", func(t *testing.T) {
		kept, skipped := PadAndFilter([]audio.Interval{{StartMs: 1000, EndMs: 1800}}, 100, 1000, 6000)
		assert.Equal(t, []Range{{900, 1900}}, kept)
		assert.Empty(t, skipped)
	})

	t.Run("empty input", func(t *testing.T) {
		kept, skipped := PadAndFilter(nil, 100, 0, 6000)
		assert.Empty(t, kept)
		assert.Empty(t, skipped)
	})
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "S1_00:05-00:07.mp3", FileName(1, Range{5000, 7000}, "mp3"))
	assert.Equal(t, "S2_00:10-00:13.mp3", FileName(2, Range{10000, 13000}, "mp3"))
	assert.Equal(t, "S12_59:59-01:00:01.wav", FileName(12, Range{3599000, 3601500}, "wav"))
}

func TestRange(t *testing.T) {
	r := Range{900, 2100}
	assert.Equal(t, 1200, r.DurationMs())
	assert.Equal(t, Range{4900, 6100}, r.Shift(4000))
	assert.Equal(t, "[00:00 - 00:02]", r.String())
}

func TestParams_Validate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"positive threshold", func(p *Params) { p.SilenceThreshDB = 3 }},
		{"zero min silence", func(p *Params) { p.MinSilenceMs = 0 }},
		{"negative keep silence", func(p *Params) { p.KeepSilenceMs = -1 }},
		{"negative min chunk", func(p *Params) { p.MinChunkMs = -5 }},
		{"unknown format", func(p *Params) { p.Format = "ogg" }},
		{"empty format", func(p *Params) { p.Format = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), ErrInvalidParams)
		})
	}
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, -40.0, p.SilenceThreshDB)
	assert.Equal(t, 500, p.MinSilenceMs)
	assert.Equal(t, 100, p.KeepSilenceMs)
	assert.Equal(t, 0, p.MinChunkMs)
	assert.Equal(t, "mp3", p.Format)
	assert.Nil(t, p.End)
	assert.False(t, p.Verbose)
}
