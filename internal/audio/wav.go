package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Static errors for WAV handling.
var (
	// ErrInvalidWAV is returned when a file is not a readable WAV file.
	ErrInvalidWAV = errors.New("invalid WAV file format")
	// ErrUnsupportedWAV is returned for WAV encodings other than integer PCM.
	ErrUnsupportedWAV = errors.New("unsupported WAV encoding")
)

const wavFormatPCM = 1

// WAVLoader decodes integer PCM WAV files without external tools.
type WAVLoader struct{}

// NewWAVLoader creates a WAVLoader.
func NewWAVLoader() *WAVLoader {
	return &WAVLoader{}
}

// Load implements Loader.
func (l *WAVLoader) Load(ctx context.Context, path string) (*Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load cancelled: %w", err)
	}

	f, err := os.Open(path) // #nosec G304 - path is provided by the user on purpose
	if err != nil {
		return nil, fmt.Errorf("open WAV file: %w", err)
	}
	defer func() { _ = f.Close() }()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidWAV)
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%s: format %d: %w", path, dec.WavAudioFormat, ErrUnsupportedWAV)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read WAV data: %w", err)
	}

	samples, err := toInt16(pcm.Data, int(dec.BitDepth))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	buf, err := NewBuffer(samples, int(dec.SampleRate), int(dec.NumChans))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if buf.Frames() == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyInput)
	}
	return buf, nil
}

// toInt16 scales integer samples of the given bit depth to 16 bits.
func toInt16(data []int, bitDepth int) ([]int16, error) {
	out := make([]int16, len(data))
	switch bitDepth {
	case 8:
		// 8-bit WAV is unsigned
		for i, v := range data {
			out[i] = int16((v - 128) << 8)
		}
	case 16:
		for i, v := range data {
			out[i] = int16(v)
		}
	case 24:
		for i, v := range data {
			out[i] = int16(v >> 8)
		}
	case 32:
		for i, v := range data {
			out[i] = int16(v >> 16)
		}
	default:
		return nil, fmt.Errorf("bit depth %d: %w", bitDepth, ErrUnsupportedWAV)
	}
	return out, nil
}

// WAVEncoder writes 16-bit PCM WAV files.
type WAVEncoder struct{}

// NewWAVEncoder creates a WAVEncoder.
func NewWAVEncoder() *WAVEncoder {
	return &WAVEncoder{}
}

// Extension implements Encoder.
func (e *WAVEncoder) Extension() string {
	return "wav"
}

// Encode implements Encoder.
func (e *WAVEncoder) Encode(ctx context.Context, buf *Buffer, dst string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("encode cancelled: %w", err)
	}

	f, err := os.Create(dst) // #nosec G304 - dst is built by the exporter
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	enc := wav.NewEncoder(f, buf.SampleRate, 16, buf.Channels, wavFormatPCM)

	data := make([]int, len(buf.Samples))
	for i, s := range buf.Samples {
		data[i] = int(s)
	}

	if err := enc.Write(&goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{SampleRate: buf.SampleRate, NumChannels: buf.Channels},
		SourceBitDepth: 16,
	}); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", dst, err)
	}

	// Close finalizes the RIFF header sizes.
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("finalize %s: %w", dst, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}
	return nil
}

// FileLoader picks a decoder from the file extension. WAV files are read
// natively; everything else, and WAV encodings the native reader cannot
// handle, goes through ffmpeg.
type FileLoader struct {
	wav      Loader
	fallback Loader
}

// NewFileLoader creates a FileLoader. fallback handles non-WAV input.
func NewFileLoader(wavLoader, fallback Loader) *FileLoader {
	return &FileLoader{wav: wavLoader, fallback: fallback}
}

// Load implements Loader.
func (l *FileLoader) Load(ctx context.Context, path string) (*Buffer, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		buf, err := l.wav.Load(ctx, path)
		if err == nil || l.fallback == nil {
			return buf, err
		}
		if !errors.Is(err, ErrUnsupportedWAV) && !errors.Is(err, ErrInvalidWAV) {
			return nil, err
		}
	}
	if l.fallback == nil {
		return nil, fmt.Errorf("%s: no decoder for %q", path, filepath.Ext(path))
	}
	return l.fallback.Load(ctx, path)
}

// Verify interface implementations at compile time.
var (
	_ Loader  = (*WAVLoader)(nil)
	_ Loader  = (*FileLoader)(nil)
	_ Encoder = (*WAVEncoder)(nil)
)
