// Package testutil provides shared fixtures for the products API tests.
package testutil

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fuzfriend/products-api/pkg/predicate"
	"github.com/fuzfriend/products-api/pkg/product"
	"github.com/fuzfriend/products-api/pkg/store"
)

// ErrStoreDown is returned by every FailingStore method.
var ErrStoreDown = errors.New("store unavailable")

// Catalog returns a small fixed catalog:
//
//	id  title          brand    category     colour  size   price  rating promo
//	1   MacBook Air    Apple    Laptops      Silver  13in   1200   4.7    no
//	2   ThinkPad X1    Lenovo   Laptops      Black   14in   500    3.9    yes
//	3   XPS 13         Dell     Laptops      Silver  13in   800    4.2    no
//	4   iPhone 15      Apple    Smartphones  Black   128GB  999    4.8    yes
//	5   Galaxy S24     Samsung  Smartphones  Blue    256GB  899    4.4    no
//	6   WH-1000XM5     Sony     Headphones   Black   -      399    4.6    no
//	7   AirPods Pro    Apple    Headphones   White   -      249    4.5    no
//	8   Air Max 90     Nike     Footwear     Red     UK 9   120    3.2    yes
func Catalog() []product.Product {
	p := func(id int64, title, brand, category, colour, size, price string, rating float64, promo bool) product.Product {
		return product.Product{
			ID:          id,
			Title:       title,
			Description: title + " by " + brand,
			Brand:       brand,
			Category:    category,
			Colour:      colour,
			Size:        size,
			Price:       decimal.RequireFromString(price),
			Rating:      rating,
			OnPromotion: promo,
			ImageURLs:   []string{"https://images.example.com/" + category + ".jpg"},
		}
	}

	return []product.Product{
		p(1, "MacBook Air", "Apple", "Laptops", "Silver", "13in", "1200", 4.7, false),
		p(2, "ThinkPad X1", "Lenovo", "Laptops", "Black", "14in", "500", 3.9, true),
		p(3, "XPS 13", "Dell", "Laptops", "Silver", "13in", "800", 4.2, false),
		p(4, "iPhone 15", "Apple", "Smartphones", "Black", "128GB", "999", 4.8, true),
		p(5, "Galaxy S24", "Samsung", "Smartphones", "Blue", "256GB", "899", 4.4, false),
		p(6, "WH-1000XM5", "Sony", "Headphones", "Black", "", "399", 4.6, false),
		p(7, "AirPods Pro", "Apple", "Headphones", "White", "", "249", 4.5, false),
		p(8, "Air Max 90", "Nike", "Footwear", "Red", "UK 9", "120", 3.2, true),
	}
}

// NewCatalogStore returns a memory store loaded with Catalog.
func NewCatalogStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	s := store.NewMemoryStore()
	if err := s.Load(Catalog()...); err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return s
}

// CountingStore wraps a store and records how often each query runs.
type CountingStore struct {
	store.Store

	mu    sync.Mutex
	calls map[string]int
}

// NewCountingStore wraps s.
func NewCountingStore(s store.Store) *CountingStore {
	return &CountingStore{Store: s, calls: make(map[string]int)}
}

func (c *CountingStore) record(op string) {
	c.mu.Lock()
	c.calls[op]++
	c.mu.Unlock()
}

// Calls returns how often op ran.
func (c *CountingStore) Calls(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

// Reset clears all counters.
func (c *CountingStore) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = make(map[string]int)
}

func (c *CountingStore) Find(ctx context.Context, where predicate.Predicate, order store.Order, offset, limit int) ([]product.Product, error) {
	c.record("find")
	return c.Store.Find(ctx, where, order, offset, limit)
}

func (c *CountingStore) Count(ctx context.Context, where predicate.Predicate) (int, error) {
	c.record("count")
	return c.Store.Count(ctx, where)
}

func (c *CountingStore) Get(ctx context.Context, id int64) (*product.Product, error) {
	c.record("get")
	return c.Store.Get(ctx, id)
}

// FailingStore fails every call with ErrStoreDown.
type FailingStore struct{}

func (FailingStore) Find(context.Context, predicate.Predicate, store.Order, int, int) ([]product.Product, error) {
	return nil, ErrStoreDown
}

func (FailingStore) Count(context.Context, predicate.Predicate) (int, error) {
	return 0, ErrStoreDown
}

func (FailingStore) GroupCount(context.Context, predicate.Predicate, predicate.Field) (map[string]int, error) {
	return nil, ErrStoreDown
}

func (FailingStore) PriceBounds(context.Context, predicate.Predicate) (decimal.Decimal, decimal.Decimal, error) {
	return decimal.Zero, decimal.Zero, ErrStoreDown
}

func (FailingStore) DistinctRatings(context.Context, predicate.Predicate) ([]float64, error) {
	return nil, ErrStoreDown
}

func (FailingStore) Get(context.Context, int64) (*product.Product, error) {
	return nil, ErrStoreDown
}
