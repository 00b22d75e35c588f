// Package cache provides the products response cache.
//
// Responses are stored as serialized bytes under deterministic keys on one
// of two tiers:
//
// - Redis, with a fixed TTL, when configured and reachable at startup
// - An in-process map otherwise, with no expiry
//
// The tier is chosen once by NewManager and never changes afterwards. Tier
// failures degrade to misses and dropped writes so that a request always
// falls through to the search engine.
//
// # Basic Usage
//
//	manager := cache.NewManager(ctx, cache.Config{
//		Redis:  redisClient, // may be nil
//		TTL:    2 * time.Minute,
//		Logger: logger,
//	})
//
//	key := cache.SearchKey(spec).String()
//	data, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// compute the response, then
//		_ = manager.Set(ctx, key, body)
//	}
//
// # Keys
//
//	Products:Get:page=1;pageSize=20
//	Products:Count
//	Products:GetById:42
//	Products:Search:<uppercase hex SHA-256 of the normalized query JSON>
//
// A search query that cannot be serialized maps to Products:Search:ERR.
// That key is never read or written, so such requests always miss.
//
// # Bypass
//
// ShouldBypass detects X-Bypass-Cache: 1 and no-cache directives in
// Cache-Control or Pragma. Bypassed requests skip both the read and the
// write and are tagged BYPASS.
//
// # Metrics
//
// The cache manager exports Prometheus metrics:
//
//   - products_cache_hits_total{layer} - Cache hits
//   - products_cache_misses_total{layer} - Cache misses, failed reads included
//   - products_cache_bypass_total - Bypassed requests
//   - products_cache_size_bytes{layer} - Bytes written
//   - products_cache_errors_total{layer,operation} - Tier errors
package cache
