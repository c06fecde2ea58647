// Package main is the entry point for the mindspace server.
//
// main only reads configuration, builds the logger and hands both to
// internal/server. All behaviour lives in the imported packages.
package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/sakif/mindspace/internal/config"
	"github.com/sakif/mindspace/internal/platform/logger"
	"github.com/sakif/mindspace/internal/server"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		// no configured logger yet
		boot := logger.New("mindspace", "info")
		boot.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New("mindspace", cfg.LogLevel)
	cfg.Log(log)

	if cfg.DBDriver == config.DriverSQLite && cfg.DBPath != ":memory:" {
		// os.MkdirAll is `mkdir -p`; the sqlite driver will not create parents.
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			log.Fatal().Err(err).Str("dir", dbDir).Msg("failed to create database directory")
		}
	}

	srv, err := server.New(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create server")
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		log.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
}
