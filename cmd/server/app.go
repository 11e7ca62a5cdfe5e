package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/config"
	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/downloader"
	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/events"
	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/platform/snapshot"
	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/store"
	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/task"
	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/transcriber"
)

// application holds the shared application dependencies so startup wiring
// and shutdown cleanup live in one place.
type application struct {
	config *config.Config
	logger *slog.Logger

	taskStore    *store.TaskStore
	bus          *events.Bus
	snapshots    *snapshot.FileStore
	fetcher      *downloader.YtDlp
	transcriber  *transcriber.Whisper
	orchestrator *task.Orchestrator
}

// newApplication wires all dependencies and starts the orchestrator,
// recovering any persisted tasks.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	if err := os.MkdirAll(cfg.Downloads.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	app := &application{
		config:    cfg,
		logger:    logger,
		taskStore: store.NewTaskStore(),
		bus:       events.NewBus(logger),
		snapshots: snapshot.NewFileStore(cfg.Snapshot.Path, logger),
	}

	// Prune stale completed entries before loading; the orchestrator
	// itself never prunes.
	if cfg.Snapshot.MaxAgeHours > 0 {
		maxAge := time.Duration(cfg.Snapshot.MaxAgeHours) * time.Hour
		if _, err := app.snapshots.PruneOlderThan(maxAge); err != nil {
			logger.Warn("snapshot pruning failed", "error", err)
		}
	}

	app.fetcher = downloader.New(downloader.Options{
		Dir:            cfg.Downloads.Dir,
		FFmpegLocation: cfg.Downloads.FFmpegLocation,
	}, logger)

	app.transcriber = transcriber.New(transcriber.Options{
		Enabled: cfg.Transcription.Enabled,
		Model:   cfg.Transcription.Model,
		Dir:     cfg.Downloads.Dir,
	}, logger)

	app.orchestrator = task.New(
		app.taskStore,
		app.bus,
		app.snapshots,
		app.fetcher,
		app.transcriber,
		task.Config{
			WorkerCount: cfg.Downloads.MaxConcurrent,
			QueueSize:   cfg.Downloads.QueueSize,
		},
		logger,
	)

	if err := app.orchestrator.Start(); err != nil {
		return nil, fmt.Errorf("failed to start orchestrator: %w", err)
	}

	// Resume whatever recovery put back into the queue.
	app.orchestrator.StartAllQueued()

	logger.Info("application initialized",
		"ffmpeg_available", app.fetcher.FFmpegAvailable(),
		"aria2c_available", app.fetcher.Aria2cAvailable(),
		"transcription_available", app.transcriber.Available())
	return app, nil
}

// Run starts the HTTP server and blocks until shutdown.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.orchestrator != nil {
		app.orchestrator.Stop()
	}
	app.logger.Info("application shutdown completed")
}
