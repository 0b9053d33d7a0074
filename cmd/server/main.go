package main

import (
	"fmt"
	"os"

	"github.com/Herculano1234/MuseuCom/internal/config"
	"github.com/Herculano1234/MuseuCom/internal/logger"
	"github.com/Herculano1234/MuseuCom/internal/server"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	srv, err := server.New(cfg, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	log.Info().Str("version", version).Str("database", cfg.Database.URL).Msg("Starting MuseuCom API...")

	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
