package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/noah-isme/boulangerie-api/internal/app"
	"github.com/noah-isme/boulangerie-api/internal/config"
	"github.com/noah-isme/boulangerie-api/internal/obs"
	"github.com/noah-isme/boulangerie-api/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(obs.LogConfig{Format: cfg.LogFormat, Level: cfg.LogLevel, Component: "worker", Env: cfg.AppEnv})
	obs.MustRegisterDomainMetrics("boulangerie", prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	rdb, err := app.NewRedis(connectCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("connect redis")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	deps, err := app.Build(cfg, rdb, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise services")
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse queue redis url")
	}
	srv := queue.NewServer(redisOpt, queue.ServerConfig{Concurrency: cfg.QueueConcurrency}, logger)
	mux := queue.NewMux(deps.Confirmer, logger)

	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}
	logger.Info().Int("concurrency", cfg.QueueConcurrency).Msg("worker started")

	<-ctx.Done()
	logger.Info().Msg("worker shutting down")
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}
