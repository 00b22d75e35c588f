// Package search executes normalized product queries: it pages and sorts the
// matching records and computes facet options for filter UIs.
package search

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/fuzfriend/products-api/pkg/predicate"
	"github.com/fuzfriend/products-api/pkg/product"
	"github.com/fuzfriend/products-api/pkg/query"
	"github.com/fuzfriend/products-api/pkg/store"
)

var searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "products_search_duration_seconds",
	Help:    "Duration of product searches including facet computation",
	Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
})

// textFields are matched by the free-text filter.
var textFields = []predicate.Field{
	predicate.FieldTitle,
	predicate.FieldDescription,
	predicate.FieldBrand,
	predicate.FieldCategory,
}

// facetFields are the dimensions with self-excluding value counts.
var facetFields = []predicate.Field{
	predicate.FieldCategory,
	predicate.FieldBrand,
	predicate.FieldColour,
	predicate.FieldSize,
}

var sortFields = map[query.SortField]predicate.Field{
	query.SortByTitle:    predicate.FieldTitle,
	query.SortByPrice:    predicate.FieldPrice,
	query.SortByRating:   predicate.FieldRating,
	query.SortByBrand:    predicate.FieldBrand,
	query.SortByCategory: predicate.FieldCategory,
}

// Engine answers product queries against a record store. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	store  store.Store
	logger zerolog.Logger
}

// NewEngine creates an engine over s.
func NewEngine(s store.Store, logger zerolog.Logger) *Engine {
	return &Engine{store: s, logger: logger}
}

// Search returns the requested page of products matching spec, the total
// match count and the facet options. Store failures are returned as is.
func (e *Engine) Search(ctx context.Context, spec query.Spec) (*PageResult, error) {
	start := time.Now()
	defer func() {
		searchDuration.Observe(time.Since(start).Seconds())
	}()

	var where predicate.And
	if !spec.NoFilters() {
		where = Conditions(spec, "")
	}

	total, err := e.store.Count(ctx, where)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	products, err := e.store.Find(ctx, where, orderFor(spec), spec.Offset(), spec.PageSize)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}

	filters, err := e.facets(ctx, spec, where)
	if err != nil {
		return nil, err
	}

	e.logger.Debug().
		Int("predicates", len(where)).
		Int("total_count", total).
		Int("page", spec.Page).
		Int("page_size", spec.PageSize).
		Dur("duration", time.Since(start)).
		Msg("Search complete")

	return &PageResult{
		Products:   products,
		Filters:    filters,
		TotalCount: total,
	}, nil
}

// LookupByID returns a single product or product.ErrNotFound.
func (e *Engine) LookupByID(ctx context.Context, id int64) (*product.Product, error) {
	return e.store.Get(ctx, id)
}

// Count returns the number of products matching spec, ignoring paging.
func (e *Engine) Count(ctx context.Context, spec query.Spec) (int, error) {
	var where predicate.And
	if !spec.NoFilters() {
		where = Conditions(spec, "")
	}
	return e.store.Count(ctx, where)
}

// facets computes every facet concurrently. where is the conjunction of all
// active filters.
func (e *Engine) facets(ctx context.Context, spec query.Spec, where predicate.And) (FacetOptions, error) {
	var (
		opts   FacetOptions
		counts = make([]map[string]int, len(facetFields))
	)

	g, gctx := errgroup.WithContext(ctx)
	for i, field := range facetFields {
		g.Go(func() error {
			c, err := e.facetCounts(gctx, spec, field)
			if err != nil {
				return fmt.Errorf("%s facet: %w", field, err)
			}
			counts[i] = c
			return nil
		})
	}

	// Price and rating facets use every active filter, their own included.
	g.Go(func() error {
		lo, hi, err := e.store.PriceBounds(gctx, where)
		if err != nil {
			return fmt.Errorf("price facet: %w", err)
		}
		opts.MinPrice, opts.MaxPrice = lo, hi
		return nil
	})
	g.Go(func() error {
		ratings, err := e.store.DistinctRatings(gctx, where)
		if err != nil {
			return fmt.Errorf("rating facet: %w", err)
		}
		opts.Ratings = ratingFloors(ratings)
		return nil
	})
	g.Go(func() error {
		promoted := where.With(predicate.Eq{Field: predicate.FieldOnPromotion, Value: true})
		n, err := e.store.Count(gctx, promoted)
		if err != nil {
			return fmt.Errorf("promotion facet: %w", err)
		}
		opts.HasPromotions = n > 0
		return nil
	})

	if err := g.Wait(); err != nil {
		return FacetOptions{}, err
	}

	opts.CategoryCounts, opts.Categories = counts[0], sortedKeys(counts[0])
	opts.BrandCounts, opts.Brands = counts[1], sortedKeys(counts[1])
	opts.ColourCounts, opts.Colours = counts[2], sortedKeys(counts[2])
	opts.SizeCounts, opts.Sizes = counts[3], sortedKeys(counts[3])
	return opts, nil
}

// facetCounts counts records per value of field under every active filter
// except the one on field itself.
func (e *Engine) facetCounts(ctx context.Context, spec query.Spec, field predicate.Field) (map[string]int, error) {
	counts, err := e.store.GroupCount(ctx, Conditions(spec, field), field)
	if err != nil {
		return nil, err
	}
	delete(counts, "")
	return counts, nil
}

// Conditions builds one predicate per active filter of spec, skipping the
// filter on exclude. Pass "" to keep every filter.
func Conditions(spec query.Spec, exclude predicate.Field) predicate.And {
	var where predicate.And

	in := func(field predicate.Field, values []string) {
		if len(values) > 0 && field != exclude {
			where = append(where, predicate.In{Field: field, Strings: values})
		}
	}

	if len(spec.IDs) > 0 && exclude != predicate.FieldID {
		where = append(where, predicate.In{Field: predicate.FieldID, IDs: spec.IDs})
	}
	in(predicate.FieldCategory, spec.Categories)
	in(predicate.FieldBrand, spec.Brands)
	in(predicate.FieldColour, spec.Colours)
	in(predicate.FieldSize, spec.Sizes)

	if spec.Text != "" {
		where = append(where, predicate.ContainsAny{Fields: textFields, Text: spec.Text})
	}
	if (spec.MinPrice != nil || spec.MaxPrice != nil) && exclude != predicate.FieldPrice {
		where = append(where, predicate.PriceRange{Min: spec.MinPrice, Max: spec.MaxPrice})
	}
	if spec.MinRating != nil && exclude != predicate.FieldRating {
		where = append(where, predicate.RatingRange{Min: *spec.MinRating})
	}
	if spec.OnPromotion != nil && exclude != predicate.FieldOnPromotion {
		where = append(where, predicate.Eq{Field: predicate.FieldOnPromotion, Value: *spec.OnPromotion})
	}
	return where
}

func orderFor(spec query.Spec) store.Order {
	field, ok := sortFields[spec.SortBy]
	if !ok {
		field = predicate.FieldTitle
	}
	return store.Order{Field: field, Descending: spec.SortDirection == query.Descending}
}

func ratingFloors(ratings []float64) []int {
	floors := make([]int, 0, len(ratings))
	for _, r := range ratings {
		floors = append(floors, int(math.Floor(r)))
	}
	slices.Sort(floors)
	return slices.Compact(floors)
}

func sortedKeys(m map[string]int) []string {
	keys := slices.Sorted(maps.Keys(m))
	if keys == nil {
		return []string{}
	}
	return keys
}
