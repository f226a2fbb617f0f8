// Package main is the entry point for the fittrack API server.
//
// main stays minimal: read configuration, build the logger, hand both to
// the server package, and exit non-zero on failure. All actual logic
// lives in internal/.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mfaisal/fittrack/internal/config"
	"github.com/mfaisal/fittrack/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger depends on config, so this one error goes to
		// stderr directly.
		os.Stderr.WriteString("fittrack: " + err.Error() + "\n")
		os.Exit(1)
	}

	level := slog.LevelDebug
	if cfg.IsProduction() {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	// The SQLite file lives under a data directory that may not exist on
	// first run.
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
