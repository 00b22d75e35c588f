// Package store provides read access to product records behind a small
// predicate-filterable, sortable and groupable interface.
//
// Two implementations exist: MemoryStore evaluates predicates in Go and is
// used for tests and file-backed deployments; PostgresStore compiles the
// same predicates to SQL over the products schema.
package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/fuzfriend/products-api/pkg/predicate"
	"github.com/fuzfriend/products-api/pkg/product"
)

// ErrUnsupportedPredicate is returned when a store cannot translate a predicate.
var ErrUnsupportedPredicate = errors.New("unsupported predicate")

// Order sorts by a single field. Ties are always broken by id ascending.
type Order struct {
	Field      predicate.Field
	Descending bool
}

// Store is the read-only record store used by the search engine. All
// methods accept a nil or empty predicate to mean "all records".
type Store interface {
	// Find returns at most limit records matching where, ordered by order,
	// skipping the first offset. Text fields sort by code point, so
	// uppercase sorts before lowercase. An offset past the last match
	// yields an empty page.
	Find(ctx context.Context, where predicate.Predicate, order Order, offset, limit int) ([]product.Product, error)

	// Count returns the number of matching records.
	Count(ctx context.Context, where predicate.Predicate) (int, error)

	// GroupCount groups matching records by field and counts each group.
	// Records whose value is empty are not reported.
	GroupCount(ctx context.Context, where predicate.Predicate, field predicate.Field) (map[string]int, error)

	// PriceBounds returns the lowest and highest matching price, both zero
	// when nothing matches.
	PriceBounds(ctx context.Context, where predicate.Predicate) (min, max decimal.Decimal, err error)

	// DistinctRatings returns the distinct ratings of matching records.
	DistinctRatings(ctx context.Context, where predicate.Predicate) ([]float64, error)

	// Get returns the record with the given id or product.ErrNotFound.
	Get(ctx context.Context, id int64) (*product.Product, error)
}
