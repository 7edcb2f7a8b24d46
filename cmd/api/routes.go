package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/noah-isme/boulangerie-api/internal/analytics"
	"github.com/noah-isme/boulangerie-api/internal/app"
	"github.com/noah-isme/boulangerie-api/internal/cart"
	"github.com/noah-isme/boulangerie-api/internal/catalog"
	"github.com/noah-isme/boulangerie-api/internal/checkout"
	"github.com/noah-isme/boulangerie-api/internal/common"
	"github.com/noah-isme/boulangerie-api/internal/config"
	"github.com/noah-isme/boulangerie-api/internal/favorites"
	"github.com/noah-isme/boulangerie-api/internal/health"
	"github.com/noah-isme/boulangerie-api/internal/loyalty"
	"github.com/noah-isme/boulangerie-api/internal/obs"
	"github.com/noah-isme/boulangerie-api/internal/order"
	"github.com/noah-isme/boulangerie-api/internal/ratelimit"
	"github.com/noah-isme/boulangerie-api/internal/security"
	"github.com/noah-isme/boulangerie-api/internal/voucher"
)

type routerConfig struct {
	Config      *config.Config
	Deps        *app.Dependencies
	Scheduler   checkout.Scheduler
	Limiter     ratelimit.Allower
	HTTPMetrics *obs.HTTPMetrics
	Gatherer    prometheus.Gatherer
	Tracing     bool
	Logger      zerolog.Logger
}

func newRouter(rc routerConfig) http.Handler {
	cfg, deps := rc.Config, rc.Deps

	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: deps.Catalog})
	cartHandler := &cart.Handler{Svc: deps.Carts}
	voucherHandler := &voucher.Handler{Svc: deps.Promotions}
	checkoutHandler := &checkout.Handler{Svc: &checkout.Service{
		Carts:     deps.Carts,
		Orders:    deps.Orders,
		Scheduler: rc.Scheduler,
		Confirmer: deps.Confirmer,
		Delay:     cfg.CheckoutConfirmDelay,
		Logger:    &rc.Logger,
	}}
	orderHandler := &order.Handler{Svc: deps.Orders, DefaultPerPage: cfg.CatalogDefaultLimit, MaxPerPage: cfg.CatalogMaxLimit}
	orderAdmin := &order.AdminHandler{Svc: deps.Orders}
	loyaltyHandler := &loyalty.Handler{Ledger: deps.Ledger}
	favoritesHandler := &favorites.Handler{Svc: deps.Favorites}
	analyticsHandler := &analytics.Handler{Svc: deps.Analytics}
	healthHandler := health.Handler{Checker: health.RedisChecker{Client: deps.Redis}}
	idem := common.Idem{R: deps.Redis, TTL: cfg.IdempotencyTTL}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if rc.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if rc.HTTPMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: rc.HTTPMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: rc.Logger, SkipPaths: []string{"/health/live", "/metrics"}}.Middleware)
	r.Use(security.Headers{
		Enable:          cfg.SecurityHeaders,
		EnableHSTS:      cfg.IsProduction(),
		NoStorePrefixes: []string{"/api/v1/carts", "/api/v1/checkout", "/api/v1/favorites", "/api/v1/orders", "/api/v1/loyalty", "/api/v1/admin"},
	}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders: []string{"X-Total-Count", "X-Request-ID", "Retry-After"},
		MaxAge:         300,
	}))
	r.Use(security.BodyLimit{Max: cfg.HTTPBodyLimitBytes}.Middleware)

	if rc.Gatherer != nil {
		r.Handle("/metrics", obs.MetricsHandler(rc.Gatherer))
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(ratelimit.Handler{
			Limiter: rc.Limiter,
			Config:  ratelimit.Config{Key: ratelimit.ByClientIP("api:"), Window: cfg.RateLimitWindow, Max: cfg.RateLimitMax},
			OnError: func(err error) { rc.Logger.Warn().Err(err).Msg("rate limiter unavailable") },
		}.Middleware)

		v.Get("/categories", catalogHandler.Categories)
		v.Get("/products", catalogHandler.Products)
		v.Get("/products/{id}", catalogHandler.ProductDetail)

		v.Route("/carts/{sessionId}", func(c chi.Router) {
			c.Use(common.SessionFromPath("sessionId"))
			c.Get("/", cartHandler.Get)
			c.Delete("/", cartHandler.Clear)
			c.Post("/items", cartHandler.AddItem)
			c.Patch("/items/{productId}", cartHandler.UpdateItem)
			c.Delete("/items/{productId}", cartHandler.RemoveItem)
			c.Post("/promotion", cartHandler.ApplyPromotion)
			c.Delete("/promotion", cartHandler.RemovePromotion)
			c.Put("/delivery-mode", cartHandler.SetDeliveryMode)
		})

		v.With(common.SessionFromPath("sessionId"), idem.Middleware).
			Post("/checkout/{sessionId}", checkoutHandler.Checkout)

		v.Route("/favorites/{sessionId}", func(f chi.Router) {
			f.Use(common.SessionFromPath("sessionId"))
			f.Get("/", favoritesHandler.List)
			f.Post("/", favoritesHandler.Add)
			f.Delete("/{productId}", favoritesHandler.Remove)
		})

		v.Get("/orders", orderHandler.List)
		v.Get("/orders/{id}", orderHandler.Get)
		v.Get("/loyalty/{customerId}", loyaltyHandler.Balance)

		v.Route("/admin", func(admin chi.Router) {
			admin.Get("/promotions", voucherHandler.List)
			admin.Post("/promotions", voucherHandler.Create)
			admin.Post("/promotions/preview", voucherHandler.Preview)
			admin.Delete("/promotions/{code}", voucherHandler.Delete)
			admin.Get("/orders", orderAdmin.List)
			admin.Patch("/orders/{id}/status", orderAdmin.PatchStatus)
			admin.Get("/analytics/sales", analyticsHandler.Sales)
			admin.Get("/analytics/top-products", analyticsHandler.TopProducts)
		})
	})

	return r
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}
