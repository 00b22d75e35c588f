// Package product defines the catalog record served by the products API.
package product

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a product lookup by id finds nothing.
var ErrNotFound = errors.New("product not found")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)

	// Compare prices as float64 so numeric tags like gte work on decimals.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Product is a single catalog record. Records are owned by the store;
// the query engine only reads them.
type Product struct {
	// ID is assigned by the store and never changes.
	ID int64 `json:"id"`

	Title       string `json:"title" validate:"required,notblank"`
	Description string `json:"description"`
	Brand       string `json:"brand" validate:"required,notblank"`
	Category    string `json:"category" validate:"required,notblank"`

	// Colour and Size may be empty; empty means the attribute is missing.
	Colour string `json:"colour"`
	Size   string `json:"size"`

	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Rating      float64         `json:"rating"`
	OnPromotion bool            `json:"onPromotion"`
	ImageURLs   []string        `json:"imageUrls"`
}

// Validate checks the required fields and the price sign.
func (p *Product) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid product %d: %w", p.ID, err)
	}
	return nil
}
