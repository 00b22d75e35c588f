package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/fuzfriend/products-api/pkg/cache"
)

// HeaderRequestID is echoed back, or generated when the client sent none.
const HeaderRequestID = "X-Request-Id"

var (
	// RequestsTotal tracks served requests by route template and HTTP status
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "products_requests_total",
			Help: "Total number of products API requests",
		},
		[]string{"route", "status"},
	)

	// RequestDuration tracks request latency by route template
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "products_request_duration_seconds",
			Help:    "Duration of products API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

// requestID tags the request with an id and attaches a request scoped
// logger to its context.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)

		logger := s.logger.With().Str("request_id", id).Logger()
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
	})
}

// withTimeout bounds the store and cache calls made for one request.
func (s *Server) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument records request metrics and logs each served request.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}

		duration := time.Since(start)
		RequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		RequestDuration.WithLabelValues(route).Observe(duration.Seconds())

		zerolog.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("route", route).
			Int("status_code", rec.status).
			Str("cache_status", rec.Header().Get(cache.HeaderStatus)).
			Dur("duration", duration).
			Msg("Request served")
	})
}
