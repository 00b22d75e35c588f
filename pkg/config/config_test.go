package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuzfriend/products-api/pkg/logging"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 120*time.Second, cfg.CacheTTL)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CACHE_TTL_SECONDS", "30")
	t.Setenv("CACHE_KEY_PREFIX", "Staging")
	t.Setenv("DATABASE_URL", "postgres://localhost/products")
	t.Setenv("REQUEST_TIMEOUT", "3s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, logging.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, "Staging", cfg.CacheKeyPrefix)
	assert.Equal(t, "postgres://localhost/products", cfg.DatabaseURL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
}

func TestLoad_FileWithEnvironmentOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("PORT: \"7070\"\nCACHE_TTL_SECONDS: 60\nPRODUCTS_FILE: /data/products.json\n"), 0o600))
	t.Setenv("CACHE_TTL_SECONDS", "15")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "/data/products.json", cfg.ProductsFile)
	assert.Equal(t, 15*time.Second, cfg.CacheTTL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("CACHE_TTL_SECONDS", "-1")

	_, err := Load("")
	assert.ErrorContains(t, err, "CACHE_TTL_SECONDS")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty port", func(c *Config) { c.Port = "" }, "PORT is required"},
		{"non numeric port", func(c *Config) { c.Port = "http" }, "not a valid port"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "not a valid port"},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, "LOG_LEVEL"},
		{"zero ttl", func(c *Config) { c.CacheTTL = 0 }, ""},
		{"blank prefix", func(c *Config) { c.CacheKeyPrefix = " " }, "CACHE_KEY_PREFIX"},
		{"negative redis db", func(c *Config) { c.RedisDB = -1 }, "REDIS_DB"},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }, "REQUEST_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
