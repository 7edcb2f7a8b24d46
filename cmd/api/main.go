package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/noah-isme/boulangerie-api/internal/app"
	"github.com/noah-isme/boulangerie-api/internal/checkout"
	"github.com/noah-isme/boulangerie-api/internal/config"
	"github.com/noah-isme/boulangerie-api/internal/health"
	"github.com/noah-isme/boulangerie-api/internal/obs"
	"github.com/noah-isme/boulangerie-api/internal/queue"
)

const metricsNamespace = "boulangerie"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(obs.LogConfig{Format: cfg.LogFormat, Level: cfg.LogLevel, Component: "api", Env: cfg.AppEnv})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs.MustRegisterDomainMetrics(metricsNamespace, prometheus.DefaultRegisterer)
	httpMetrics := obs.NewHTTPMetrics(metricsNamespace, nil, prometheus.DefaultRegisterer)

	if cfg.TracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   cfg.ServiceName,
			Endpoint:      cfg.TracingEndpoint,
			SamplingRatio: cfg.TracingSampleRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			cfg.TracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

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
	if added, err := deps.SeedPromotions(ctx, cfg.PromoCodes); err != nil {
		logger.Error().Err(err).Msg("seed promotions")
	} else if added > 0 {
		logger.Info().Int("added", added).Msg("promotions seeded")
	}

	limiter, err := app.NewRateLimiter(cfg, rdb)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}

	var scheduler checkout.Scheduler
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Error().Err(err).Msg("parse queue redis url, confirming orders inline")
	} else {
		tasks := asynq.NewClient(redisOpt)
		defer func() { _ = tasks.Close() }()
		scheduler = queue.Enqueuer{Client: tasks}
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr(),
		Handler: newRouter(routerConfig{
			Config:      cfg,
			Deps:        deps,
			Scheduler:   scheduler,
			Limiter:     limiter,
			HTTPMetrics: httpMetrics,
			Gatherer:    prometheus.DefaultGatherer,
			Tracing:     cfg.TracingEnabled,
			Logger:      logger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	<-ctx.Done()
	health.SetReady(false)
	logger.Info().Msg("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}
