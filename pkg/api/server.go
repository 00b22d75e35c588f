// Package api exposes the product search engine over HTTP with a response
// cache in front of it.
//
// Every data route follows the same flow: derive the cache key, serve a
// cached body on a hit, otherwise run the engine and store its serialized
// result. Requests asking to bypass the cache skip both the read and the
// write. Responses carry X-Cache-Status and X-Cache-Key.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/fuzfriend/products-api/pkg/cache"
	"github.com/fuzfriend/products-api/pkg/product"
	"github.com/fuzfriend/products-api/pkg/query"
	"github.com/fuzfriend/products-api/pkg/search"
)

const (
	HeaderRequestedID = "X-Requested-Id"
	HeaderReturnedID  = "X-Returned-Id"

	// DefaultRequestTimeout bounds store and cache calls of one request.
	DefaultRequestTimeout = 10 * time.Second

	// maxBodyBytes caps search request bodies.
	maxBodyBytes = 1 << 20
)

// Options configure a Server.
type Options struct {
	// KeyPrefix replaces cache.DefaultPrefix when set.
	KeyPrefix string

	// RequestTimeout defaults to DefaultRequestTimeout.
	RequestTimeout time.Duration
}

// Server serves the products routes.
type Server struct {
	engine  *search.Engine
	cache   *cache.Manager
	logger  zerolog.Logger
	prefix  string
	timeout time.Duration
}

// NewServer creates a server over an engine and a cache manager.
func NewServer(engine *search.Engine, manager *cache.Manager, logger zerolog.Logger, opts Options) *Server {
	if engine == nil {
		panic("search engine cannot be nil")
	}
	if manager == nil {
		panic("cache manager cannot be nil")
	}

	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Server{
		engine:  engine,
		cache:   manager,
		logger:  logger,
		prefix:  opts.KeyPrefix,
		timeout: timeout,
	}
}

// RegisterRoutes registers the products API routes on r.
func (s *Server) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/products").Subrouter()
	api.Use(s.requestID, s.withTimeout, instrument)
	api.HandleFunc("", s.listProducts).Methods(http.MethodGet)
	api.HandleFunc("/count", s.countProducts).Methods(http.MethodGet)
	api.HandleFunc("/search", s.searchProducts).Methods(http.MethodPost)
	api.HandleFunc("/{id:[0-9]+}", s.getProduct).Methods(http.MethodGet)
}

// Handler returns a router serving only the products routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	s.RegisterRoutes(r)
	return r
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	spec := query.Normalize(&query.Raw{
		Page:     intParam(r, "page", query.DefaultPage),
		PageSize: intParam(r, "pageSize", query.DefaultPageSize),
	})
	key := cache.ListKey(spec.Page, spec.PageSize).WithPrefix(s.prefix).String()

	serve(s, w, r, key, func(ctx context.Context) (*search.PageResult, error) {
		return s.engine.Search(ctx, spec)
	}, nil)
}

func (s *Server) countProducts(w http.ResponseWriter, r *http.Request) {
	key := cache.CountKey().WithPrefix(s.prefix).String()

	serve(s, w, r, key, func(ctx context.Context) (int, error) {
		return s.engine.Count(ctx, query.Normalize(nil))
	}, nil)
}

func (s *Server) searchProducts(w http.ResponseWriter, r *http.Request) {
	var raw *query.Raw
	if r.Body != nil && r.ContentLength != 0 {
		body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
		dec := json.NewDecoder(body)
		if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	spec := query.Normalize(raw)
	key := cache.SearchKey(spec).WithPrefix(s.prefix).String()

	serve(s, w, r, key, func(ctx context.Context) (*search.PageResult, error) {
		return s.engine.Search(ctx, spec)
	}, nil)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	key := cache.ByIDKey(id).WithPrefix(s.prefix).String()

	serve(s, w, r, key, func(ctx context.Context) (*product.Product, error) {
		return s.engine.LookupByID(ctx, id)
	}, func(h http.Header, p *product.Product) {
		h.Set(HeaderRequestedID, strconv.FormatInt(id, 10))
		if p != nil {
			h.Set(HeaderReturnedID, strconv.FormatInt(p.ID, 10))
		}
	})
}

// serve runs the cache flow for one request. compute is only called on a
// miss or bypass; decorate adds route specific headers to successful
// responses.
func serve[T any](s *Server, w http.ResponseWriter, r *http.Request, key string,
	compute func(context.Context) (T, error), decorate func(http.Header, T)) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	bypass := cache.ShouldBypass(r.Header)

	if !bypass {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				logger.Debug().Str("cache_key", key).Str("cache_status", string(cache.StatusHit)).Msg("Cache hit")
				writeCached(w, cache.StatusHit, key, data, v, decorate)
				return
			}
			logger.Debug().Str("cache_key", key).Msg("Cached value undecodable, treating as miss")
		}
	}

	v, err := compute(ctx)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		logger.Error().Err(err).Str("cache_key", key).Msg("Search failed")
		writeError(w, http.StatusInternalServerError, "failed to load products")
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to encode response")
		writeError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	status := cache.StatusMiss
	if bypass {
		status = cache.StatusBypass
		cache.CacheBypasses.Inc()
	} else if err := s.cache.Set(ctx, key, data); err != nil && !errors.Is(err, cache.ErrSentinelKey) {
		// The manager already logged the failure. The response is still good.
		logger.Debug().Err(err).Str("cache_key", key).Msg("Response not cached")
	}

	logger.Debug().Str("cache_key", key).Str("cache_status", string(status)).Msg("Computed response")
	writeCached(w, status, key, data, v, decorate)
}

func writeCached[T any](w http.ResponseWriter, status cache.Status, key string, data []byte, v T, decorate func(http.Header, T)) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	cache.SetHeaders(h, status, key)
	if decorate != nil {
		decorate(h, v)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
}

// intParam parses a query parameter, falling back to def when it is absent
// or not a number. Range checks are left to query.Normalize.
func intParam(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
