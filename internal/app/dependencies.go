package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/boulangerie-api/internal/analytics"
	"github.com/noah-isme/boulangerie-api/internal/cart"
	"github.com/noah-isme/boulangerie-api/internal/catalog"
	"github.com/noah-isme/boulangerie-api/internal/checkout"
	"github.com/noah-isme/boulangerie-api/internal/config"
	"github.com/noah-isme/boulangerie-api/internal/events"
	"github.com/noah-isme/boulangerie-api/internal/favorites"
	"github.com/noah-isme/boulangerie-api/internal/lock"
	"github.com/noah-isme/boulangerie-api/internal/loyalty"
	"github.com/noah-isme/boulangerie-api/internal/order"
	"github.com/noah-isme/boulangerie-api/internal/pricing"
	"github.com/noah-isme/boulangerie-api/internal/ratelimit"
	"github.com/noah-isme/boulangerie-api/internal/voucher"
)

// Dependencies holds the services shared by the API and the worker.
type Dependencies struct {
	Redis      *redis.Client
	Logger     zerolog.Logger
	Catalog    *catalog.Service
	Promotions *voucher.Service
	Carts      *cart.Service
	Orders     *order.Service
	Ledger     loyalty.Ledger
	Events     *events.Bus
	Confirmer  *checkout.Confirmer
	Favorites  *favorites.Service
	Analytics  *analytics.Service
}

// NewRedis connects to REDIS_URL with tracing instrumentation and verifies the connection.
func NewRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Build wires the domain services on top of rdb.
func Build(cfg *config.Config, rdb *redis.Client, logger zerolog.Logger) (*Dependencies, error) {
	policy, err := pricing.ParseZeroQuantityPolicy(cfg.CartZeroQuantityPolicy)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.NewService(catalog.ServiceConfig{
		Products:     catalog.DefaultProducts,
		Categories:   catalog.DefaultCategories,
		DefaultLimit: cfg.CatalogDefaultLimit,
		MaxLimit:     cfg.CatalogMaxLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise catalog: %w", err)
	}

	bus := &events.Bus{
		Store:     events.RedisStreamStore{Client: rdb},
		Notifiers: []events.Notifier{events.LogNotifier{Logger: logger.With().Str("component", "events").Logger()}},
	}
	promotions := &voucher.Service{Store: voucher.RedisStore{Client: rdb}}
	carts := &cart.Service{
		Store:      cart.RedisStore{Client: rdb, TTL: cfg.CartTTL},
		Catalog:    cat,
		Promotions: promotions,
		Policy:     policy,
		LockTTL:    cfg.CartLockTTL,
		Logger:     &logger,
	}
	if cfg.CartDistributedLock {
		carts.Locker = lock.Locker{R: rdb, MaxWait: cfg.CartLockTTL}
	}
	carts.Subscribe(cart.EventObserver(bus, logger))

	orders := &order.Service{Repo: order.RedisRepository{Client: rdb}, Events: bus, Logger: &logger}
	ledger := loyalty.RedisLedger{Client: rdb}

	return &Dependencies{
		Redis:      rdb,
		Logger:     logger,
		Catalog:    cat,
		Promotions: promotions,
		Carts:      carts,
		Orders:     orders,
		Ledger:     ledger,
		Events:     bus,
		Confirmer:  &checkout.Confirmer{Orders: orders, Ledger: ledger, Events: bus, Logger: &logger},
		Favorites:  &favorites.Service{Store: favorites.RedisStore{Client: rdb}, Catalog: cat},
		Analytics:  &analytics.Service{Orders: orders, R: rdb, TTL: cfg.AnalyticsCacheTTL},
	}, nil
}

// SeedPromotions stores the PROMO_CODES list, keeping codes that already exist.
func (d *Dependencies) SeedPromotions(ctx context.Context, csv string) (int, error) {
	rules, err := voucher.ParseRules(csv)
	if err != nil {
		return 0, err
	}
	return d.Promotions.Seed(ctx, rules)
}

// NewRateLimiter returns the limiter selected by RATE_LIMIT_BACKEND, or nil when disabled.
func NewRateLimiter(cfg *config.Config, rdb *redis.Client) (ratelimit.Allower, error) {
	switch cfg.RateLimitBackend {
	case "off":
		return nil, nil
	case "ulule":
		return ratelimit.NewUlule(rdb, "ratelimit:ulule")
	default:
		return ratelimit.Sliding{Client: rdb, Prefix: "ratelimit:"}, nil
	}
}
