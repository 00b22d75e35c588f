// Package metrics provides the Prometheus registry and /metrics handler for
// the products API. All metrics are defined in their respective packages
// (api, cache, search) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the products API.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the source served by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registered metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(
		Registry,
		promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{}),
	)
}

// Metrics Documentation
//
// Request Metrics (pkg/api):
//   - products_requests_total{route, status} (Counter): Requests by route template and HTTP status
//   - products_request_duration_seconds{route} (Histogram): Request duration by route template
//
// Cache Metrics (pkg/cache):
//   - products_cache_hits_total{layer} (Counter): Cache hits by tier (redis, memory)
//   - products_cache_misses_total{layer} (Counter): Cache misses by tier, failed reads included
//   - products_cache_bypass_total (Counter): Requests that skipped the cache
//   - products_cache_size_bytes{layer} (Gauge): Bytes written by tier
//   - products_cache_errors_total{layer, operation} (Counter): Tier errors (get, set)
//
// Search Metrics (pkg/search):
//   - products_search_duration_seconds (Histogram): Search duration including facets
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(products_cache_hits_total[5m])) /
//   (sum(rate(products_cache_hits_total[5m])) + sum(rate(products_cache_misses_total[5m])))
//
//   # Cache Tier Errors
//   sum by (operation) (rate(products_cache_errors_total[5m]))
//
//   # Server Error Rate
//   sum(rate(products_requests_total{status=~"5.."}[5m])) / sum(rate(products_requests_total[5m]))
//
//   # P95 Search Latency
//   histogram_quantile(0.95, rate(products_search_duration_seconds_bucket[5m]))
