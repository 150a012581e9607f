package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

const (
	defaultListenAddr = ":8080"
	defaultSessionTTL = 24 * time.Hour
	defaultCacheTTL   = time.Hour
)

// Config carries every environment-level option the service recognizes.
type Config struct {
	// PostgresDSN is the document/user store connection string (BUDGET_PG_DSN).
	PostgresDSN string
	// RedisAddr is the session-registry and listing-cache address (BUDGET_REDIS_ADDR).
	RedisAddr string
	// RedisPassword is optional (BUDGET_REDIS_PASSWORD).
	RedisPassword string
	// AuthSecret signs bearer tokens (BUDGET_AUTH_SECRET). Required.
	AuthSecret string
	// ListenAddr is the HTTP bind address (BUDGET_LISTEN_ADDR), default :8080.
	ListenAddr string
	// SessionTTL bounds session liveness in the registry (BUDGET_SESSION_TTL).
	SessionTTL time.Duration
	// CacheTTL bounds listing-cache staleness (BUDGET_CACHE_TTL).
	CacheTTL time.Duration
	// EnableTestEndpoints mounts the destructive /test/cleanup endpoint
	// (BUDGET_ENABLE_TEST_ENDPOINTS=1). Never set in production.
	EnableTestEndpoints bool
}

var errMissingSecret = errors.New("config: BUDGET_AUTH_SECRET is required")

// FromEnv builds a Config from the process environment.
func FromEnv() (Config, error) {
	cfg := Config{
		PostgresDSN:         strings.TrimSpace(os.Getenv("BUDGET_PG_DSN")),
		RedisAddr:           strings.TrimSpace(os.Getenv("BUDGET_REDIS_ADDR")),
		RedisPassword:       os.Getenv("BUDGET_REDIS_PASSWORD"),
		AuthSecret:          strings.TrimSpace(os.Getenv("BUDGET_AUTH_SECRET")),
		ListenAddr:          strings.TrimSpace(os.Getenv("BUDGET_LISTEN_ADDR")),
		SessionTTL:          parseDuration(os.Getenv("BUDGET_SESSION_TTL"), defaultSessionTTL),
		CacheTTL:            parseDuration(os.Getenv("BUDGET_CACHE_TTL"), defaultCacheTTL),
		EnableTestEndpoints: os.Getenv("BUDGET_ENABLE_TEST_ENDPOINTS") == "1",
	}
	if cfg.AuthSecret == "" {
		return Config{}, errMissingSecret
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}
	return cfg, nil
}

func parseDuration(raw string, def time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
