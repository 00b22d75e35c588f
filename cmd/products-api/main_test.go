package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fuzfriend/products-api/pkg/api"
	"github.com/fuzfriend/products-api/pkg/cache"
	"github.com/fuzfriend/products-api/pkg/config"
	"github.com/fuzfriend/products-api/pkg/search"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	if testing.Short() {
		t.Skip("skipping Redis container in short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Redis container not available: %v", err)
	}

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		redisC.Terminate(ctx)
	}

	return redisClient, cleanup
}

const productsJSON = `[
  {"id": 1, "title": "MacBook Air", "brand": "Apple", "category": "Laptops", "price": "1200", "rating": 4.7},
  {"id": 2, "title": "ThinkPad X1", "brand": "Lenovo", "category": "Laptops", "price": "500", "rating": 3.9, "onPromotion": true}
]`

func newTestRouter(t *testing.T, manager *cache.Manager, checks ...readinessCheck) http.Handler {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.json")
	if err := os.WriteFile(path, []byte(productsJSON), 0o600); err != nil {
		t.Fatalf("write products file: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.ProductsFile = path
	records, _, closeStore, err := openStore(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("openStore failed: %v", err)
	}
	t.Cleanup(closeStore)

	if manager == nil {
		manager = cache.NewManager(context.Background(), cache.Config{Logger: zerolog.Nop()})
	}
	server := api.NewServer(search.NewEngine(records, zerolog.Nop()), manager, zerolog.Nop(), api.Options{})
	return newRouter(server, checks...)
}

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	if string(body) != "OK" {
		t.Errorf("Expected body 'OK', got %s", string(body))
	}
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		handler := readyHandler(func(context.Context) error { return nil })

		req := httptest.NewRequest("GET", "/ready", nil)
		w := httptest.NewRecorder()
		handler(w, req)

		resp := w.Result()
		body, _ := io.ReadAll(resp.Body)

		if resp.StatusCode != http.StatusOK {
			t.Errorf("Expected status 200, got %d", resp.StatusCode)
		}
		if string(body) != "OK" {
			t.Errorf("Expected body 'OK', got %s", string(body))
		}
	})

	t.Run("not_ready", func(t *testing.T) {
		handler := readyHandler(
			func(context.Context) error { return nil },
			func(context.Context) error { return errors.New("database down") },
		)

		req := httptest.NewRequest("GET", "/ready", nil)
		w := httptest.NewRecorder()
		handler(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "database down") {
			t.Errorf("Expected failure reason in body, got %s", w.Body.String())
		}
	})
}

func TestReadyEndpoint_Redis(t *testing.T) {
	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	handler := readyHandler(func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	req := httptest.NewRequest("GET", "/ready", nil)
	w := httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	// Close Redis to simulate failure
	redisClient.Close()

	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	// Serve one request so request metrics exist.
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/products/count", nil))

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	bodyStr := string(body)
	if !strings.Contains(bodyStr, "# HELP") || !strings.Contains(bodyStr, "# TYPE") {
		t.Error("Expected Prometheus format metrics output")
	}

	for _, name := range []string{
		"products_cache_bypass_total",
		"products_requests_total",
		"products_cache_misses_total",
	} {
		if !strings.Contains(bodyStr, name) {
			t.Errorf("Expected metrics output to contain %s", name)
		}
	}
}

func TestRouter_ProductsRoutes(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest("GET", "/api/products/count", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "2" {
		t.Errorf("Expected count 2, got %s", w.Body.String())
	}
	if got := w.Header().Get(cache.HeaderStatus); got != "MISS" {
		t.Errorf("Expected MISS, got %q", got)
	}

	req = httptest.NewRequest("GET", "/api/products/2", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if got := w.Header().Get(api.HeaderReturnedID); got != "2" {
		t.Errorf("Expected returned id 2, got %q", got)
	}
}

func TestRouter_RedisTier(t *testing.T) {
	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	manager := cache.NewManager(ctx, cache.Config{Redis: redisClient, TTL: time.Minute, Logger: zerolog.Nop()})
	if manager.Layer() != cache.LayerRedis {
		t.Fatalf("Expected redis tier, got %s", manager.Layer())
	}
	router := newTestRouter(t, manager)

	for _, want := range []string{"MISS", "HIT"} {
		req := httptest.NewRequest("POST", "/api/products/search", strings.NewReader(`{"brands":["Apple"]}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if got := w.Header().Get(cache.HeaderStatus); got != want {
			t.Errorf("Expected %s, got %q", want, got)
		}
	}

	keys, err := redisClient.Keys(ctx, "Products:Search:*").Result()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 1 {
		t.Errorf("Expected one search key in Redis, got %v", keys)
	}
}
