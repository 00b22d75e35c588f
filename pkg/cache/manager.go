package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrSentinelKey is returned by Set for keys that must never be stored.
	ErrSentinelKey = errors.New("sentinel cache key")
)

// DefaultPingTimeout bounds the startup probe of the Redis tier.
const DefaultPingTimeout = 2 * time.Second

// Config selects and configures the cache tier.
type Config struct {
	// Redis is the distributed tier. Nil selects the in-process tier.
	Redis *redis.Client

	// TTL applies to the Redis tier.
	TTL time.Duration

	// MemoryTTL applies to the in-process tier. Zero means entries never
	// expire.
	MemoryTTL time.Duration

	// PingTimeout defaults to DefaultPingTimeout.
	PingTimeout time.Duration

	Logger zerolog.Logger
}

// Manager reads and writes serialized responses on a single tier chosen
// at construction. Tier failures never reach the caller as request
// failures: a failed Get is a miss and a failed Set is dropped.
type Manager struct {
	backend Backend
	logger  zerolog.Logger
}

// NewManager probes the Redis tier once and falls back to the in-process
// tier when none is configured or it does not answer. The choice is not
// revisited later.
func NewManager(ctx context.Context, cfg Config) *Manager {
	if cfg.Redis == nil {
		cfg.Logger.Info().Str("layer", LayerMemory).Msg("Cache tier selected")
		return NewManagerWithBackend(NewMemoryBackend(cfg.MemoryTTL), cfg.Logger)
	}

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := cfg.Redis.Ping(pingCtx).Err(); err != nil {
		cfg.Logger.Warn().Err(err).Str("layer", LayerMemory).Msg("Redis unreachable, using in-process cache")
		return NewManagerWithBackend(NewMemoryBackend(cfg.MemoryTTL), cfg.Logger)
	}

	cfg.Logger.Info().Str("layer", LayerRedis).Dur("ttl", cfg.TTL).Msg("Cache tier selected")
	return NewManagerWithBackend(NewRedisBackend(cfg.Redis, cfg.TTL), cfg.Logger)
}

// NewManagerWithBackend creates a manager over an explicit tier.
func NewManagerWithBackend(backend Backend, logger zerolog.Logger) *Manager {
	if backend == nil {
		panic("cache backend cannot be nil")
	}
	return &Manager{backend: backend, logger: logger}
}

// Layer names the active tier.
func (m *Manager) Layer() string {
	return m.backend.Layer()
}

// Get retrieves a serialized value by key.
// Every error returned wraps ErrCacheMiss. Tier failures are logged and
// counted in addition.
func (m *Manager) Get(ctx context.Context, key string) ([]byte, error) {
	layer := m.backend.Layer()

	if IsSentinel(key) {
		CacheMisses.WithLabelValues(layer).Inc()
		return nil, ErrCacheMiss
	}

	data, err := m.backend.Get(ctx, key)
	if err != nil {
		CacheMisses.WithLabelValues(layer).Inc()
		if errors.Is(err, ErrCacheMiss) {
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues(layer, "get").Inc()
		m.logger.Warn().Err(err).Str("cache_key", key).Str("layer", layer).Msg("Cache read failed, treating as miss")
		return nil, fmt.Errorf("%w: %w", ErrCacheMiss, err)
	}

	// A blank value is never a usable response.
	if len(data) == 0 {
		CacheMisses.WithLabelValues(layer).Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(layer).Inc()
	return data, nil
}

// Set stores a serialized value. Sentinel keys are refused. Tier failures
// are logged, counted and returned for the caller to ignore.
func (m *Manager) Set(ctx context.Context, key string, value []byte) error {
	if IsSentinel(key) {
		return ErrSentinelKey
	}

	layer := m.backend.Layer()
	if err := m.backend.Set(ctx, key, value); err != nil {
		CacheErrors.WithLabelValues(layer, "set").Inc()
		m.logger.Warn().Err(err).Str("cache_key", key).Str("layer", layer).Msg("Cache write failed")
		return err
	}

	CacheSize.WithLabelValues(layer).Add(float64(len(value)))
	return nil
}
