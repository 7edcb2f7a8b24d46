package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CORSAllowedOrigins []string

	CartTTL                time.Duration
	CartZeroQuantityPolicy string
	CartLockTTL            time.Duration
	CartDistributedLock    bool

	PromoCodes           string
	IdempotencyTTL       time.Duration
	CheckoutConfirmDelay time.Duration
	AnalyticsCacheTTL    time.Duration

	CatalogDefaultLimit int
	CatalogMaxLimit     int

	RateLimitBackend string
	RateLimitWindow  time.Duration
	RateLimitMax     int

	HTTPBodyLimitBytes int64
	SecurityHeaders    bool
	QueueConcurrency   int

	LogFormat          string
	LogLevel           string
	TracingEnabled     bool
	TracingEndpoint    string
	TracingSampleRatio float64
	ServiceName        string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		CartTTL:                parseDuration(k.String("CART_TTL"), "168h"),
		CartZeroQuantityPolicy: strings.ToLower(valueOrDefault(k.String("CART_ZERO_QUANTITY_POLICY"), "remove")),
		CartLockTTL:            parseDuration(k.String("CART_LOCK_TTL"), "5s"),
		CartDistributedLock:    parseBool(k.String("CART_DISTRIBUTED_LOCK"), true),

		PromoCodes:           valueOrDefault(k.String("PROMO_CODES"), "BIENVENUE20:0.2,FIDELITE10:0.1"),
		IdempotencyTTL:       parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		CheckoutConfirmDelay: parseDuration(k.String("CHECKOUT_CONFIRM_DELAY"), "3s"),
		AnalyticsCacheTTL:    parseDuration(k.String("ANALYTICS_CACHE_TTL"), "1m"),

		CatalogDefaultLimit: parseInt(k.String("CATALOG_DEFAULT_LIMIT"), 20),
		CatalogMaxLimit:     parseInt(k.String("CATALOG_MAX_LIMIT"), 100),

		RateLimitBackend: strings.ToLower(valueOrDefault(k.String("RATE_LIMIT_BACKEND"), "sliding")),
		RateLimitWindow:  parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		RateLimitMax:     parseInt(k.String("RATE_LIMIT_MAX"), 120),

		HTTPBodyLimitBytes: int64(parseInt(k.String("HTTP_BODY_LIMIT_BYTES"), 1<<20)),
		SecurityHeaders:    parseBool(k.String("SECURITY_HEADERS"), true),
		QueueConcurrency:   parseInt(k.String("QUEUE_CONCURRENCY"), 5),

		LogFormat:          valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:           valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		TracingEnabled:     parseBool(k.String("OBS_TRACING_ENABLED"), false),
		TracingEndpoint:    strings.TrimSpace(k.String("OBS_TRACING_ENDPOINT")),
		TracingSampleRatio: parseFloat(k.String("OBS_TRACING_SAMPLE_RATIO"), 1),
		ServiceName:        valueOrDefault(k.String("OBS_SERVICE_NAME"), "boulangerie-api"),
	}

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	switch cfg.CartZeroQuantityPolicy {
	case "remove", "clamp":
	default:
		return nil, fmt.Errorf("CART_ZERO_QUANTITY_POLICY must be remove or clamp, got %q", cfg.CartZeroQuantityPolicy)
	}
	switch cfg.RateLimitBackend {
	case "sliding", "ulule", "off":
	default:
		return nil, fmt.Errorf("RATE_LIMIT_BACKEND must be sliding, ulule or off, got %q", cfg.RateLimitBackend)
	}
	if cfg.CatalogMaxLimit < cfg.CatalogDefaultLimit {
		return nil, errors.New("CATALOG_MAX_LIMIT must be at least CATALOG_DEFAULT_LIMIT")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || f <= 0 || f > 1 {
		return fallback
	}
	return f
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
