// Package config loads server settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-kit/log/level"
	"github.com/joho/godotenv"
)

// Config server settings
type Config struct {
	// HTTPAddr address the API listens on
	HTTPAddr string

	// DatabaseURL selects the Postgres store when set, the in-memory store otherwise
	DatabaseURL string

	// RedisURL enables the shared read-through cache when set
	RedisURL string

	// CacheTTL how long cached rates are served before being refreshed
	CacheTTL time.Duration

	// RefreshInterval how often the provider is polled. Zero disables polling.
	RefreshInterval time.Duration

	// OXRBaseURL Open Exchange Rates API url
	OXRBaseURL string

	// OXRToken Open Exchange Rates token. Polling is disabled without one.
	OXRToken string

	LogLevel string

	// SeedDemoRates loads demo rates on start
	SeedDemoRates bool
}

// Load reads envFiles (".env" when none are given) into the environment, without
// overriding variables already set, then builds a Config. Missing files are ignored.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading env file [%v]: %w", f, err)
		}
	}

	cfg := Config{
		HTTPAddr:    getEnv("HTTP_ADDR", ":3000"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		OXRBaseURL:  getEnv("OXR_BASE_URL", "https://openexchangerates.org/api"),
		OXRToken:    getEnv("OXR_TOKEN", ""),
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	var err error
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL == 0 {
		return Config{}, errors.New("CACHE_TTL: must be positive")
	}
	if cfg.RefreshInterval, err = getDuration("REFRESH_INTERVAL", time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.SeedDemoRates, err = getBool("SEED_DEMO_RATES", cfg.DatabaseURL == ""); err != nil {
		return Config{}, err
	}
	if _, err := cfg.LevelOption(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LevelOption the log level filter for LogLevel.
func (c Config) LevelOption() (level.Option, error) {
	switch c.LogLevel {
	case "debug":
		return level.AllowDebug(), nil
	case "info", "":
		return level.AllowInfo(), nil
	case "warn":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	default:
		return nil, fmt.Errorf("LOG_LEVEL: unknown level %q", c.LogLevel)
	}
}

// Polling reports whether the provider should be polled.
func (c Config) Polling() bool {
	return c.OXRToken != "" && c.RefreshInterval > 0
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%v: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%v: must not be negative", key)
	}
	return d, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%v: %w", key, err)
	}
	return b, nil
}
