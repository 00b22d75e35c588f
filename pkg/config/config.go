// Package config loads the products API configuration from environment
// variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fuzfriend/products-api/pkg/logging"
)

// Config holds the service configuration.
type Config struct {
	Port string

	LogLevel  logging.LogLevel
	LogPretty bool

	// RedisAddr empty selects the in-process cache tier.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CacheTTL       time.Duration
	CacheKeyPrefix string

	// DatabaseURL empty selects the in-memory store.
	DatabaseURL string

	// ProductsFile seeds the in-memory store.
	ProductsFile string

	RequestTimeout time.Duration
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Port:           "8080",
		LogLevel:       logging.LevelInfo,
		CacheTTL:       120 * time.Second,
		CacheKeyPrefix: "Products",
		RequestTimeout: 10 * time.Second,
	}
}

// Load reads the configuration. configFile may be empty; when set it must
// exist. Environment variables take precedence over the file.
func Load(configFile string) (*Config, error) {
	def := DefaultConfig()

	v := viper.New()
	v.SetDefault("PORT", def.Port)
	v.SetDefault("LOG_LEVEL", string(def.LogLevel))
	v.SetDefault("LOG_PRETTY", def.LogPretty)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL_SECONDS", int(def.CacheTTL/time.Second))
	v.SetDefault("CACHE_KEY_PREFIX", def.CacheKeyPrefix)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("PRODUCTS_FILE", "")
	v.SetDefault("REQUEST_TIMEOUT", def.RequestTimeout)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		Port:           v.GetString("PORT"),
		LogLevel:       logging.LogLevel(strings.ToLower(v.GetString("LOG_LEVEL"))),
		LogPretty:      v.GetBool("LOG_PRETTY"),
		RedisAddr:      v.GetString("REDIS_ADDR"),
		RedisPassword:  v.GetString("REDIS_PASSWORD"),
		RedisDB:        v.GetInt("REDIS_DB"),
		CacheTTL:       time.Duration(v.GetInt("CACHE_TTL_SECONDS")) * time.Second,
		CacheKeyPrefix: v.GetString("CACHE_KEY_PREFIX"),
		DatabaseURL:    v.GetString("DATABASE_URL"),
		ProductsFile:   v.GetString("PRODUCTS_FILE"),
		RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	} else if n, err := strconv.Atoi(c.Port); err != nil || n < 1 || n > 65535 {
		errs = append(errs, fmt.Errorf("PORT %q is not a valid port", c.Port))
	}

	switch c.LogLevel {
	case logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError:
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel))
	}

	if c.CacheTTL < 0 {
		errs = append(errs, errors.New("CACHE_TTL_SECONDS must not be negative"))
	}
	if strings.TrimSpace(c.CacheKeyPrefix) == "" {
		errs = append(errs, errors.New("CACHE_KEY_PREFIX is required"))
	}
	if c.RedisDB < 0 {
		errs = append(errs, errors.New("REDIS_DB must not be negative"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}
