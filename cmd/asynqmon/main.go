package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"

	"github.com/clickreserve/click/internal/config"
	"github.com/clickreserve/click/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init("info", cfg.Logging.Format)
	log := logger.GetLogger()

	redisAddr := cfg.Sandbox.RedisAddr
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	h := asynqmon.New(asynqmon.Options{
		RootPath:     "/asynqmon",
		RedisConnOpt: asynq.RedisClientOpt{Addr: redisAddr},
	})
	defer h.Close()

	log.Info().Str("addr", cfg.Sandbox.MonitorAddr).Str("redis", redisAddr).Msg("Starting Asynqmon on /asynqmon")
	if err := http.ListenAndServe(cfg.Sandbox.MonitorAddr, h); err != nil {
		log.Fatal().Err(err).Msg("Asynqmon failed")
	}
}
