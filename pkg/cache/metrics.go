package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by layer (redis, memory)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "products_cache_hits_total",
			Help: "Total number of products cache hits",
		},
		[]string{"layer"},
	)

	// CacheMisses tracks cache misses by layer, failed reads included
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "products_cache_misses_total",
			Help: "Total number of products cache misses",
		},
		[]string{"layer"},
	)

	// CacheBypasses tracks requests that skipped the cache entirely
	CacheBypasses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "products_cache_bypass_total",
			Help: "Total number of requests that bypassed the products cache",
		},
	)

	// CacheSize tracks bytes written by layer
	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "products_cache_size_bytes",
			Help: "Bytes written to the products cache",
		},
		[]string{"layer"},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "products_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"layer", "operation"}, // "get", "set"
	)
)
