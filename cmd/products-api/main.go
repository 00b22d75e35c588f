package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/fuzfriend/products-api/pkg/api"
	"github.com/fuzfriend/products-api/pkg/cache"
	"github.com/fuzfriend/products-api/pkg/config"
	"github.com/fuzfriend/products-api/pkg/logging"
	"github.com/fuzfriend/products-api/pkg/metrics"
	"github.com/fuzfriend/products-api/pkg/search"
	"github.com/fuzfriend/products-api/pkg/store"
)

const shutdownTimeout = 15 * time.Second

// readinessCheck reports whether a dependency can serve requests.
type readinessCheck func(ctx context.Context) error

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})
	logger := logging.NewLogger(logging.ComponentServer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	records, checks, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
	}

	manager := cache.NewManager(ctx, cache.Config{
		Redis:  redisClient,
		TTL:    cfg.CacheTTL,
		Logger: logging.NewLogger(logging.ComponentCache),
	})
	if manager.Layer() == cache.LayerRedis {
		checks = append(checks, func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	engine := search.NewEngine(records, logging.NewLogger(logging.ComponentSearch))
	server := api.NewServer(engine, manager, logging.NewLogger(logging.ComponentAPI), api.Options{
		KeyPrefix:      cfg.CacheKeyPrefix,
		RequestTimeout: cfg.RequestTimeout,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(server, checks...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Str("addr", httpServer.Addr).
			Str("cache_layer", manager.Layer()).
			Msg("Starting products API server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info().Msg("Shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStore selects PostgreSQL when a database URL is configured and the
// in-memory store otherwise.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (store.Store, []readinessCheck, func(), error) {
	storeLogger := logging.NewLogger(logging.ComponentStore)

	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL, storeLogger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		logger.Info().Str("store", "postgres").Msg("Record store selected")
		return pg, []readinessCheck{pg.Ping}, pg.Close, nil
	}

	mem := store.NewMemoryStore()
	if cfg.ProductsFile != "" {
		if err := mem.LoadJSONFile(cfg.ProductsFile); err != nil {
			return nil, nil, nil, fmt.Errorf("load products: %w", err)
		}
	}
	logger.Info().Str("store", "memory").Int("products", mem.Len()).Msg("Record store selected")
	return mem, nil, func() {}, nil
}

func newRouter(server *api.Server, checks ...readinessCheck) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/ready", readyHandler(checks...)).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	server.RegisterRoutes(r)
	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func readyHandler(checks ...readinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for _, check := range checks {
			if err := check(ctx); err != nil {
				http.Error(w, fmt.Sprintf("not ready: %v", err), http.StatusServiceUnavailable)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}
