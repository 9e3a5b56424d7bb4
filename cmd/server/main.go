// Package main is the entry point for the ChessMeet API server.
//
// main only reads configuration, builds the logger, makes sure the data
// directory exists and hands over to internal/server. All wiring lives in
// server.New.
//
// CONFIGURATION:
// Everything comes from environment variables (see internal/config), e.g.
//
//	SERVER_PORT=8080 DB_PATH=data/chessmeet.db LOG_FORMAT=json ./server
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/chessmeet/chessmeet/internal/config"
	"github.com/chessmeet/chessmeet/internal/server"
)

func main() {
	cfg, err := config.Load(context.Background())
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)

	if !cfg.Session.CookieSecure {
		logger.Warn("SESSION_COOKIE_SECURE is off; only use this for local HTTP development")
	}

	// os.MkdirAll is a no-op when the directory already exists.
	dbDir := filepath.Dir(cfg.DB.Path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newLogger builds a text or JSON slog handler at the configured level.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
