// Package main implements the entry point for the download server, which
// coordinates media downloads and optional transcription as background
// tasks behind a JSON API.
package main

import (
	"context"
	"log"

	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/config"
	"github.com/true1ck/YouTube-MP3-Downloader-Enhanced/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logr := logger.Setup(cfg.Server)
	logr.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"download_dir", cfg.Downloads.Dir,
		"max_concurrent", cfg.Downloads.MaxConcurrent)

	app, err := newApplication(cfg, logr)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
