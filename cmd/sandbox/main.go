package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/clickreserve/click/internal/config"
	"github.com/clickreserve/click/internal/logger"
	"github.com/clickreserve/click/internal/sandbox"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// The sandbox logs mail links at info level, so never go quieter than that
	level := cfg.Logging.Level
	if level == "" || level == "warn" || level == "warning" {
		level = "info"
	}
	logger.Init(level, cfg.Logging.Format)
	log := logger.GetLogger()

	srv, err := sandbox.New(cfg.Sandbox, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create sandbox")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Sandbox failed")
	}
}
