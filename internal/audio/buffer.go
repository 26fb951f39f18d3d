// Package audio decodes, analyses and encodes in-memory PCM audio.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Static errors for buffer construction.
var (
	// ErrInvalidFormat is returned when sample rate or channel count is not positive.
	ErrInvalidFormat = errors.New("invalid audio format: sample rate and channels must be positive")
	// ErrPartialFrame is returned when PCM data does not hold a whole number of frames.
	ErrPartialFrame = errors.New("pcm data does not contain a whole number of frames")
)

// Buffer holds decoded signed 16-bit PCM audio in memory.
// Samples are interleaved by channel.
type Buffer struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// NewBuffer creates a Buffer after checking that the format is usable.
func NewBuffer(samples []int16, sampleRate, channels int) (*Buffer, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("%w: rate=%d, channels=%d", ErrInvalidFormat, sampleRate, channels)
	}
	if len(samples)%channels != 0 {
		return nil, fmt.Errorf("%w: %d samples, %d channels", ErrPartialFrame, len(samples), channels)
	}
	return &Buffer{Samples: samples, SampleRate: sampleRate, Channels: channels}, nil
}

// FromPCM decodes little-endian s16 PCM bytes into a Buffer.
func FromPCM(data []byte, sampleRate, channels int) (*Buffer, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w: odd byte count %d", ErrPartialFrame, len(data))
	}
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
	}
	return NewBuffer(samples, sampleRate, channels)
}

// PCM encodes the buffer as little-endian s16 bytes.
func (b *Buffer) PCM() []byte {
	out := make([]byte, 2*len(b.Samples))
	for i, s := range b.Samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

// Frames returns the number of sample frames (one sample per channel).
func (b *Buffer) Frames() int {
	return len(b.Samples) / b.Channels
}

// DurationMs returns the buffer length in milliseconds, rounded to the nearest ms.
func (b *Buffer) DurationMs() int {
	return int(math.Round(float64(b.Frames()) * 1000 / float64(b.SampleRate)))
}

// frameAt maps a millisecond offset to a frame index clamped to the buffer.
func (b *Buffer) frameAt(ms int) int {
	if ms <= 0 {
		return 0
	}
	f := int(int64(ms) * int64(b.SampleRate) / 1000)
	if f > b.Frames() {
		return b.Frames()
	}
	return f
}

// Slice returns the audio between startMs and endMs. Offsets are clamped to
// the buffer, and an inverted range yields an empty buffer. The result shares
// memory with b.
func (b *Buffer) Slice(startMs, endMs int) *Buffer {
	start := b.frameAt(startMs)
	end := b.frameAt(endMs)
	if end < start {
		end = start
	}
	return &Buffer{
		Samples:    b.Samples[start*b.Channels : end*b.Channels],
		SampleRate: b.SampleRate,
		Channels:   b.Channels,
	}
}
