package search

import (
	"github.com/shopspring/decimal"

	"github.com/fuzfriend/products-api/pkg/product"
)

// FacetOptions describe the filter values still available under the
// current query.
type FacetOptions struct {
	Categories []string `json:"categories"`
	Brands     []string `json:"brands"`
	Colours    []string `json:"colours"`
	Sizes      []string `json:"sizes"`

	CategoryCounts map[string]int `json:"categoryCounts"`
	BrandCounts    map[string]int `json:"brandCounts"`
	ColourCounts   map[string]int `json:"colourCounts"`
	SizeCounts     map[string]int `json:"sizeCounts"`

	MinPrice decimal.Decimal `json:"minPrice"`
	MaxPrice decimal.Decimal `json:"maxPrice"`

	// Ratings are the distinct integer floors of matching ratings, ascending.
	Ratings []int `json:"ratings"`

	HasPromotions bool `json:"hasPromotions"`
}

// PageResult is one page of products plus the facets of the full result.
type PageResult struct {
	Products   []product.Product `json:"products"`
	Filters    FacetOptions      `json:"filters"`
	TotalCount int               `json:"totalCount"`
}
