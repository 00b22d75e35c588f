package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	LayerRedis  = "redis"
	LayerMemory = "memory"
)

// Backend is one storage tier. Get returns ErrCacheMiss for absent keys.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Layer() string
}

// RedisBackend stores entries in Redis with a fixed TTL.
type RedisBackend struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisBackend creates a Redis tier. A ttl of zero stores keys without
// expiry.
func NewRedisBackend(client *redis.Client, ttl time.Duration) *RedisBackend {
	if client == nil {
		panic("redis client cannot be nil")
	}
	return &RedisBackend{redis: client, ttl: ttl}
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := b.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte) error {
	if err := b.redis.Set(ctx, key, value, b.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (b *RedisBackend) Layer() string { return LayerRedis }

// MemoryBackend is the in-process tier. It is safe for concurrent use but
// a Get followed by a Set is not atomic.
type MemoryBackend struct {
	entries sync.Map // string -> *CacheEntry
	ttl     time.Duration
}

// NewMemoryBackend creates an in-process tier. A ttl of zero keeps entries
// until they are overwritten.
func NewMemoryBackend(ttl time.Duration) *MemoryBackend {
	return &MemoryBackend{ttl: ttl}
}

func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := b.entries.Load(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	entry := v.(*CacheEntry)
	if entry.IsExpired() {
		b.entries.CompareAndDelete(key, entry)
		return nil, ErrCacheMiss
	}
	return entry.Data, nil
}

func (b *MemoryBackend) Set(_ context.Context, key string, value []byte) error {
	entry := &CacheEntry{Data: append([]byte(nil), value...)}
	if b.ttl > 0 {
		entry.Expires = time.Now().Add(b.ttl)
	}
	b.entries.Store(key, entry)
	return nil
}

func (b *MemoryBackend) Layer() string { return LayerMemory }
