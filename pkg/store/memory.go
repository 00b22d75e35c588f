package store

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fuzfriend/products-api/pkg/predicate"
	"github.com/fuzfriend/products-api/pkg/product"
)

// MemoryStore keeps all records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records []product.Product
	nextID  int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

// Load validates and adds records. Records with a zero id get the next free
// id; explicit ids must be unique. Nothing is added if any record is invalid.
func (s *MemoryStore) Load(records ...product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[int64]bool, len(s.records)+len(records))
	for _, r := range s.records {
		seen[r.ID] = true
	}

	next := s.nextID
	batch := make([]product.Product, 0, len(records))
	for _, r := range records {
		if r.ID == 0 {
			for seen[next] {
				next++
			}
			r.ID = next
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate product id %d", r.ID)
		}
		if err := r.Validate(); err != nil {
			return err
		}
		seen[r.ID] = true
		if r.ID >= next {
			next = r.ID + 1
		}
		r.ImageURLs = slices.Clone(r.ImageURLs)
		batch = append(batch, r)
	}

	s.records = append(s.records, batch...)
	s.nextID = next
	return nil
}

// LoadJSONFile loads a JSON array of products from path.
func (s *MemoryStore) LoadJSONFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read products file: %w", err)
	}

	var records []product.Product
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("decode products file: %w", err)
	}

	return s.Load(records...)
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) filter(where predicate.Predicate) []*product.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*product.Product, 0, len(s.records))
	for i := range s.records {
		if predicate.Match(where, &s.records[i]) {
			out = append(out, &s.records[i])
		}
	}
	return out
}

// Find implements Store.
func (s *MemoryStore) Find(ctx context.Context, where predicate.Predicate, order Order, offset, limit int) ([]product.Product, error) {
	matches := s.filter(where)

	compare, err := comparator(order.Field)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(matches, func(a, b *product.Product) int {
		c := compare(a, b)
		if order.Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(matches) || limit <= 0 {
		return []product.Product{}, nil
	}
	end := min(offset+limit, len(matches))

	page := make([]product.Product, 0, end-offset)
	for _, p := range matches[offset:end] {
		rec := *p
		rec.ImageURLs = slices.Clone(p.ImageURLs)
		page = append(page, rec)
	}
	return page, nil
}

// Count implements Store.
func (s *MemoryStore) Count(ctx context.Context, where predicate.Predicate) (int, error) {
	return len(s.filter(where)), nil
}

// GroupCount implements Store.
func (s *MemoryStore) GroupCount(ctx context.Context, where predicate.Predicate, field predicate.Field) (map[string]int, error) {
	counts := make(map[string]int)
	for _, p := range s.filter(where) {
		v, ok := predicate.StringValue(p, field)
		if !ok {
			return nil, fmt.Errorf("%w: group by %q", ErrUnsupportedPredicate, field)
		}
		if v == "" {
			continue
		}
		counts[v]++
	}
	return counts, nil
}

// PriceBounds implements Store.
func (s *MemoryStore) PriceBounds(ctx context.Context, where predicate.Predicate) (decimal.Decimal, decimal.Decimal, error) {
	matches := s.filter(where)
	if len(matches) == 0 {
		return decimal.Zero, decimal.Zero, nil
	}

	lo, hi := matches[0].Price, matches[0].Price
	for _, p := range matches[1:] {
		lo = decimal.Min(lo, p.Price)
		hi = decimal.Max(hi, p.Price)
	}
	return lo, hi, nil
}

// DistinctRatings implements Store.
func (s *MemoryStore) DistinctRatings(ctx context.Context, where predicate.Predicate) ([]float64, error) {
	ratings := make([]float64, 0)
	for _, p := range s.filter(where) {
		ratings = append(ratings, p.Rating)
	}
	slices.Sort(ratings)
	return slices.Compact(ratings), nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id int64) (*product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.records {
		if s.records[i].ID == id {
			rec := s.records[i]
			rec.ImageURLs = slices.Clone(rec.ImageURLs)
			return &rec, nil
		}
	}
	return nil, product.ErrNotFound
}

func comparator(field predicate.Field) (func(a, b *product.Product) int, error) {
	switch field {
	case predicate.FieldPrice:
		return func(a, b *product.Product) int { return a.Price.Cmp(b.Price) }, nil
	case predicate.FieldRating:
		return func(a, b *product.Product) int { return cmp.Compare(a.Rating, b.Rating) }, nil
	case predicate.FieldID:
		return func(a, b *product.Product) int { return cmp.Compare(a.ID, b.ID) }, nil
	case predicate.FieldTitle, predicate.FieldBrand, predicate.FieldCategory, predicate.FieldColour, predicate.FieldSize:
		return func(a, b *product.Product) int {
			av, _ := predicate.StringValue(a, field)
			bv, _ := predicate.StringValue(b, field)
			return strings.Compare(av, bv)
		}, nil
	default:
		return nil, fmt.Errorf("%w: order by %q", ErrUnsupportedPredicate, field)
	}
}
