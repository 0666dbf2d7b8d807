package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
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
	UpstreamBaseURL    string
	UpstreamTimeout    time.Duration
	UpstreamRetries    int
	BreakerMinRequests int
	BreakerRatio       float64
	BreakerOpenFor     time.Duration
	RedisURL           string
	JWTSecret          string
	CORSAllowedOrigins []string
	ViewCacheTTL       time.Duration
	CatalogDefaultPage int
	CatalogPageSize    int
	CatalogMaxPageSize int
	RateLimit          string
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
		UpstreamBaseURL:    strings.TrimRight(strings.TrimSpace(k.String("UPSTREAM_BASE_URL")), "/"),
		UpstreamTimeout:    parseDuration(k.String("UPSTREAM_TIMEOUT"), "5s"),
		UpstreamRetries:    intOrDefault(k.Int("UPSTREAM_RETRIES"), 3),
		BreakerMinRequests: intOrDefault(k.Int("UPSTREAM_BREAKER_MIN_REQUESTS"), 10),
		BreakerRatio:       floatOrDefault(k.Float64("UPSTREAM_BREAKER_FAILURE_RATIO"), 0.5),
		BreakerOpenFor:     parseDuration(k.String("UPSTREAM_BREAKER_OPEN_FOR"), "30s"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		ViewCacheTTL:       parseDuration(k.String("VIEW_CACHE_TTL"), "60s"),
		CatalogDefaultPage: intOrDefault(k.Int("CATALOG_DEFAULT_PAGE"), 1),
		CatalogPageSize:    intOrDefault(k.Int("CATALOG_PAGE_SIZE"), 20),
		CatalogMaxPageSize: intOrDefault(k.Int("CATALOG_MAX_PAGE_SIZE"), 100),
		RateLimit:          valueOrDefault(k.String("RATE_LIMIT"), "120-M"),
	}

	if cfg.UpstreamBaseURL == "" {
		return nil, errors.New("UPSTREAM_BASE_URL is required")
	}
	if _, err := url.ParseRequestURI(cfg.UpstreamBaseURL); err != nil {
		return nil, fmt.Errorf("UPSTREAM_BASE_URL is invalid: %w", err)
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
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
		return value
	}
	return fallback
}

func intOrDefault(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

func floatOrDefault(value, fallback float64) float64 {
	if value > 0 {
		return value
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
