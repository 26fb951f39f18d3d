// Package bootstrap provides dependency initialization for the splitter.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/maauso/silence-splitter/internal/audio"
	"github.com/maauso/silence-splitter/internal/config"
	"github.com/maauso/silence-splitter/internal/ffmpeg"
	"github.com/maauso/silence-splitter/internal/runid"
	"github.com/maauso/silence-splitter/internal/segment"
	"github.com/maauso/silence-splitter/internal/storage"
)

// Dependencies holds all initialized dependencies for one run.
type Dependencies struct {
	Segmenter *segment.Segmenter
	Storage   storage.Storage
}

// NewDependencies creates and initializes all dependencies for the application.
// outputDir is where segments are written; it is created lazily by the segmenter.
func NewDependencies(ctx context.Context, cfg *config.Config, outputDir string, logger *slog.Logger) (*Dependencies, error) {
	// Initialize storage
	store, err := initStorage(ctx, cfg, outputDir, logger)
	if err != nil {
		return nil, err
	}

	runner := ffmpeg.NewRunner(cfg.FFmpegPath, cfg.FFprobePath)

	// WAV input is decoded natively, everything else goes through ffmpeg
	loader := audio.NewFileLoader(audio.NewWAVLoader(), audio.NewFFmpegLoader(runner))

	detector, err := initDetector(cfg, runner)
	if err != nil {
		return nil, err
	}
	logger.Debug("silence detector configured",
		slog.String("detector", cfg.Detector),
		slog.Int("seek_step_ms", cfg.SeekStepMs),
	)

	seg := segment.NewSegmenter(
		loader,
		detector,
		store,
		logger,
		segment.WithEncoder(audio.NewFFmpegEncoder(runner, cfg.MP3Bitrate)),
		segment.WithEncoder(audio.NewWAVEncoder()),
		segment.WithSeekStep(cfg.SeekStepMs),
	)

	return &Dependencies{
		Segmenter: seg,
		Storage:   store,
	}, nil
}

// initDetector picks the silence detector named in the configuration.
func initDetector(cfg *config.Config, runner *ffmpeg.Runner) (audio.Detector, error) {
	switch cfg.Detector {
	case config.DetectorPCM, "":
		return audio.NewPCMDetector(), nil
	case config.DetectorFFmpeg:
		return audio.NewFFmpegDetector(runner), nil
	default:
		return nil, fmt.Errorf("%w: unknown detector %q", config.ErrInvalidConfig, cfg.Detector)
	}
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(ctx context.Context, cfg *config.Config, outputDir string, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		prefix := path.Join(cfg.S3Prefix, runid.Generate())
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Prefix:          prefix,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(ctx, outputDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
			slog.String("prefix", prefix),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(outputDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Debug("local storage configured",
		slog.String("output_dir", outputDir),
	)
	return localStore, nil
}
