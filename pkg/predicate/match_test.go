package predicate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/fuzfriend/products-api/pkg/product"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestMatch(t *testing.T) {
	rec := &product.Product{
		ID:          7,
		Title:       "ThinkPad X1 Carbon",
		Description: "Business ultrabook",
		Brand:       "Lenovo",
		Category:    "Laptops",
		Colour:      "Black",
		Price:       decimal.RequireFromString("1499.99"),
		Rating:      4.3,
		OnPromotion: true,
	}

	tests := []struct {
		name string
		p    Predicate
		want bool
	}{
		{"nil matches", nil, true},
		{"empty and matches", And{}, true},
		{"promotion eq", Eq{Field: FieldOnPromotion, Value: true}, true},
		{"promotion neq", Eq{Field: FieldOnPromotion, Value: false}, false},
		{"brand in", In{Field: FieldBrand, Strings: []string{"Apple", "Lenovo"}}, true},
		{"brand not in", In{Field: FieldBrand, Strings: []string{"Apple"}}, false},
		{"brand in is case sensitive", In{Field: FieldBrand, Strings: []string{"lenovo"}}, false},
		{"id in", In{Field: FieldID, IDs: []int64{1, 7}}, true},
		{"id not in", In{Field: FieldID, IDs: []int64{1}}, false},
		{"price in range", PriceRange{Min: dec("1000"), Max: dec("1499.99")}, true},
		{"price below min", PriceRange{Min: dec("1500")}, false},
		{"price above max", PriceRange{Max: dec("1499.98")}, false},
		{"rating at min", RatingRange{Min: 4.3}, true},
		{"rating below min", RatingRange{Min: 4.5}, false},
		{"text in title", ContainsAny{Fields: []Field{FieldTitle, FieldBrand}, Text: "x1 CARBON"}, true},
		{"text in description", ContainsAny{Fields: []Field{FieldTitle, FieldDescription}, Text: "ultra"}, true},
		{"text absent", ContainsAny{Fields: []Field{FieldTitle, FieldDescription}, Text: "gaming"}, false},
		{"and all", And{In{Field: FieldCategory, Strings: []string{"Laptops"}}, RatingRange{Min: 4}}, true},
		{"and one fails", And{In{Field: FieldCategory, Strings: []string{"Laptops"}}, RatingRange{Min: 5}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.p, rec))
		})
	}
}

func TestAnd_With(t *testing.T) {
	base := make(And, 1, 4)
	base[0] = RatingRange{Min: 1}

	a := base.With(Eq{Field: FieldOnPromotion, Value: true})
	b := base.With(Eq{Field: FieldOnPromotion, Value: false})

	assert.Len(t, base, 1)
	assert.Equal(t, Eq{Field: FieldOnPromotion, Value: true}, a[1])
	assert.Equal(t, Eq{Field: FieldOnPromotion, Value: false}, b[1])
}
