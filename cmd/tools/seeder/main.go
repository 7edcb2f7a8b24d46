package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/noah-isme/boulangerie-api/internal/app"
	"github.com/noah-isme/boulangerie-api/internal/config"
	"github.com/noah-isme/boulangerie-api/internal/obs"
)

func main() {
	codes := flag.String("codes", "", "promotion list CODE:rate,... (defaults to PROMO_CODES)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(obs.LogConfig{Format: cfg.LogFormat, Level: cfg.LogLevel, Component: "seeder", Env: cfg.AppEnv})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rdb, err := app.NewRedis(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect redis")
	}
	defer func() { _ = rdb.Close() }()

	deps, err := app.Build(cfg, rdb, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise services")
	}

	list := *codes
	if list == "" {
		list = cfg.PromoCodes
	}
	added, err := deps.SeedPromotions(ctx, list)
	if err != nil {
		logger.Error().Err(err).Msg("seed promotions")
		os.Exit(1)
	}
	logger.Info().Int("added", added).Msg("seeding completed")
}
