package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/silence-splitter/internal/audio"
	"github.com/maauso/silence-splitter/internal/config"
	"github.com/maauso/silence-splitter/internal/ffmpeg"
	"github.com/maauso/silence-splitter/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewDependencies_LocalStorage(t *testing.T) {
	cfg := &config.Config{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		Detector:    config.DetectorPCM,
		SeekStepMs:  1,
	}
	dir := filepath.Join(t.TempDir(), "out")

	deps, err := NewDependencies(context.Background(), cfg, dir, discardLogger())
	require.NoError(t, err)
	require.NotNil(t, deps.Segmenter)

	local, ok := deps.Storage.(*storage.LocalStorage)
	require.True(t, ok)
	assert.Equal(t, dir, local.Dir())
	assert.NoDirExists(t, dir)
}

func TestNewDependencies_S3Storage(t *testing.T) {
	cfg := &config.Config{
		Detector:           config.DetectorFFmpeg,
		SeekStepMs:         1,
		S3Bucket:           "bucket",
		S3Region:           "us-east-1",
		S3Endpoint:         "http://localhost:9000",
		S3Prefix:           "narration",
		AWSAccessKeyID:     "key",
		AWSSecretAccessKey: "secret",
	}

	deps, err := NewDependencies(context.Background(), cfg, t.TempDir(), discardLogger())
	require.NoError(t, err)

	s3Store, ok := deps.Storage.(*storage.S3Storage)
	require.True(t, ok)
	key := s3Store.Key("S1_00:00-00:02.mp3")
	assert.True(t, strings.HasPrefix(key, "narration/run-"), key)
	assert.True(t, strings.HasSuffix(key, "/S1_00:00-00:02.mp3"), key)
}

func TestNewDependencies_EmptyOutputDir(t *testing.T) {
	cfg := &config.Config{Detector: config.DetectorPCM, SeekStepMs: 1}

	_, err := NewDependencies(context.Background(), cfg, "", discardLogger())
	assert.ErrorIs(t, err, storage.ErrOutputDirRequired)
}

func TestInitDetector(t *testing.T) {
	runner := ffmpeg.NewRunner("", "")

	d, err := initDetector(&config.Config{Detector: config.DetectorPCM}, runner)
	require.NoError(t, err)
	assert.IsType(t, &audio.PCMDetector{}, d)

	d, err = initDetector(&config.Config{Detector: config.DetectorFFmpeg}, runner)
	require.NoError(t, err)
	assert.IsType(t, &audio.FFmpegDetector{}, d)

	_, err = initDetector(&config.Config{Detector: "vad"}, runner)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
