// Package query turns raw, possibly contradictory product queries into a
// canonical Spec.
//
// Normalize never fails. Out-of-range paging, inverted price bounds and
// blank filter values are corrected silently:
//
//	spec := query.Normalize(&query.Raw{PageSize: 500, MinPrice: &fifty, MaxPrice: &ten})
//	// spec.PageSize == 100, *spec.MinPrice == 10, *spec.MaxPrice == 50
//
// List filters are deduplicated and sorted so that two logically equal
// requests produce identical Specs (and therefore identical cache keys).
package query

import (
	"math"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Paging defaults and limits.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	// MaxPage keeps Offset within int for any page size.
	MaxPage = math.MaxInt/MaxPageSize + 1
)

// SortField is the attribute a result page is ordered by.
type SortField string

const (
	SortByTitle    SortField = "title"
	SortByPrice    SortField = "price"
	SortByRating   SortField = "rating"
	SortByBrand    SortField = "brand"
	SortByCategory SortField = "category"
)

// Direction is the sort direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Raw is the query as received from a client. Every field is optional.
type Raw struct {
	IDs []int64 `json:"ids,omitempty"`

	// Category is the legacy single-category filter; it is merged into Categories.
	Category   *string  `json:"category,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Brands     []string `json:"brands,omitempty"`
	Colours    []string `json:"colours,omitempty"`
	Sizes      []string `json:"sizes,omitempty"`

	MinPrice  *decimal.Decimal `json:"minPrice,omitempty"`
	MaxPrice  *decimal.Decimal `json:"maxPrice,omitempty"`
	MinRating *float64         `json:"minRating,omitempty"`

	OnPromotion *bool `json:"onPromotion,omitempty"`

	Page     int `json:"page,omitempty"`
	PageSize int `json:"pageSize,omitempty"`

	SortBy        *string `json:"sortBy,omitempty"`
	SortDirection *string `json:"sortDirection,omitempty"`

	// Query is free text matched against title, description, brand and category.
	Query *string `json:"query,omitempty"`
}

// Spec is a normalized query. Absent filters are nil/empty and mean
// "unconstrained", never "match nothing".
type Spec struct {
	IDs        []int64  `json:"ids,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Brands     []string `json:"brands,omitempty"`
	Colours    []string `json:"colours,omitempty"`
	Sizes      []string `json:"sizes,omitempty"`

	MinPrice  *decimal.Decimal `json:"minPrice,omitempty"`
	MaxPrice  *decimal.Decimal `json:"maxPrice,omitempty"`
	MinRating *float64         `json:"minRating,omitempty"`

	OnPromotion *bool  `json:"onPromotion,omitempty"`
	Text        string `json:"query,omitempty"`

	Page          int       `json:"page"`
	PageSize      int       `json:"pageSize"`
	SortBy        SortField `json:"sortBy"`
	SortDirection Direction `json:"sortDirection"`
}

// Normalize canonicalizes raw. A nil raw yields the default Spec.
func Normalize(raw *Raw) Spec {
	if raw == nil {
		raw = &Raw{}
	}

	spec := Spec{
		Page:          raw.Page,
		PageSize:      raw.PageSize,
		IDs:           normalizeIDs(raw.IDs),
		Brands:        normalizeStrings(raw.Brands),
		Colours:       normalizeStrings(raw.Colours),
		Sizes:         normalizeStrings(raw.Sizes),
		OnPromotion:   raw.OnPromotion,
		SortBy:        parseSortField(raw.SortBy),
		SortDirection: parseDirection(raw.SortDirection),
	}

	categories := slices.Clone(raw.Categories)
	if raw.Category != nil {
		categories = append(categories, *raw.Category)
	}
	spec.Categories = normalizeStrings(categories)

	switch {
	case spec.Page <= 0:
		spec.Page = DefaultPage
	case spec.Page > MaxPage:
		spec.Page = MaxPage
	}
	switch {
	case spec.PageSize <= 0:
		spec.PageSize = DefaultPageSize
	case spec.PageSize > MaxPageSize:
		spec.PageSize = MaxPageSize
	}

	spec.MinPrice = positivePrice(raw.MinPrice)
	spec.MaxPrice = positivePrice(raw.MaxPrice)
	if spec.MinPrice != nil && spec.MaxPrice != nil && spec.MaxPrice.LessThan(*spec.MinPrice) {
		spec.MinPrice, spec.MaxPrice = spec.MaxPrice, spec.MinPrice
	}

	if raw.MinRating != nil && *raw.MinRating > 0 {
		r := *raw.MinRating
		spec.MinRating = &r
	}

	if raw.Query != nil {
		spec.Text = strings.TrimSpace(*raw.Query)
	}

	return spec
}

// NoFilters reports whether every filter is absent. Paging and sorting are
// not filters.
func (s Spec) NoFilters() bool {
	return len(s.IDs) == 0 &&
		len(s.Categories) == 0 &&
		len(s.Brands) == 0 &&
		len(s.Colours) == 0 &&
		len(s.Sizes) == 0 &&
		s.MinPrice == nil &&
		s.MaxPrice == nil &&
		s.MinRating == nil &&
		s.OnPromotion == nil &&
		s.Text == ""
}

// Offset is the index of the first record on the requested page.
func (s Spec) Offset() int {
	return (s.Page - 1) * s.PageSize
}

func normalizeStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func normalizeIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

func positivePrice(p *decimal.Decimal) *decimal.Decimal {
	if p == nil || !p.IsPositive() {
		return nil
	}
	v := *p
	return &v
}

func parseSortField(s *string) SortField {
	if s == nil {
		return SortByTitle
	}
	switch f := SortField(strings.ToLower(strings.TrimSpace(*s))); f {
	case SortByPrice, SortByRating, SortByBrand, SortByCategory:
		return f
	default:
		return SortByTitle
	}
}

func parseDirection(s *string) Direction {
	if s == nil {
		return Ascending
	}
	switch strings.ToLower(strings.TrimSpace(*s)) {
	case "desc", "descending":
		return Descending
	default:
		return Ascending
	}
}
