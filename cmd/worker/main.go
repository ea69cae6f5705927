package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/clickreserve/click/internal/config"
	"github.com/clickreserve/click/internal/logger"
	"github.com/clickreserve/click/internal/sandbox"
	"github.com/clickreserve/click/internal/workers"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Delivered mail is logged at info level
	level := cfg.Logging.Level
	if level == "" || level == "warn" || level == "warning" {
		level = "info"
	}
	logger.Init(level, cfg.Logging.Format)
	log := logger.GetLogger()

	if cfg.Sandbox.RedisAddr == "" {
		log.Fatal().Msg("sandbox.redis_addr (CLICK_SANDBOX_REDIS_ADDR) is required for the mail worker")
	}

	log.Info().Str("version", version).Str("redis", cfg.Sandbox.RedisAddr).Msg("Starting Click mail worker")

	asynqServer := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr: cfg.Sandbox.RedisAddr,
		},
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: &asynqLogger{log: log},
		},
	)

	mux := workers.NewMux(sandbox.NewLogMailer(log), log)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := asynqServer.Run(mux); err != nil {
			log.Fatal().Err(err).Msg("Mail worker failed")
		}
	}()

	<-sigChan
	log.Info().Msg("Received shutdown signal, waiting for in-flight mail...")
	asynqServer.Shutdown()

	log.Info().Msg("Worker shutdown complete")
}

// asynqLogger is a wrapper to make zerolog compatible with Asynq's logger interface
type asynqLogger struct {
	log zerolog.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.log.Debug().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.log.Info().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.log.Warn().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.log.Error().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.log.Fatal().Msg(fmt.Sprint(args...))
}
