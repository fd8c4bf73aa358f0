package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"HTTP_ADDR", "DATABASE_URL", "REDIS_URL", "CACHE_TTL", "REFRESH_INTERVAL",
	"OXR_BASE_URL", "OXR_TOKEN", "LOG_LEVEL", "SEED_DEMO_RATES",
}

// unsetAll clears the config environment for the test, restoring it afterwards.
func unsetAll(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetAll(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.Equal(t, Config{
		HTTPAddr:        ":3000",
		CacheTTL:        time.Minute,
		RefreshInterval: time.Hour,
		OXRBaseURL:      "https://openexchangerates.org/api",
		LogLevel:        "info",
		SeedDemoRates:   true,
	}, cfg)
	assert.False(t, cfg.Polling())
}

func TestLoad_Environment(t *testing.T) {
	unsetAll(t)
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("DATABASE_URL", "postgres://localhost/currency")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("REFRESH_INTERVAL", "0")
	t.Setenv("OXR_TOKEN", "secret")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, time.Duration(0), cfg.RefreshInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.SeedDemoRates)
	assert.False(t, cfg.Polling())
}

func TestLoad_EnvFile(t *testing.T) {
	unsetAll(t)
	t.Setenv("HTTP_ADDR", ":9000")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_ADDR=:4000\nOXR_TOKEN=from-file\n"), 0o600))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTPAddr, "environment wins over the file")
	assert.Equal(t, "from-file", cfg.OXRToken)
	assert.True(t, cfg.Polling())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"CACHE_TTL", "soon"},
		{"CACHE_TTL", "0s"},
		{"REFRESH_INTERVAL", "-1h"},
		{"SEED_DEMO_RATES", "maybe"},
		{"LOG_LEVEL", "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			unsetAll(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
