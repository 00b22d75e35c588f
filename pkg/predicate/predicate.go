// Package predicate is a small, closed vocabulary of filters over product
// records. Stores translate it into their own filter mechanism: the memory
// store evaluates it in Go, the PostgreSQL store compiles it to SQL.
package predicate

import (
	"github.com/shopspring/decimal"
)

// Field names a filterable product attribute.
type Field string

const (
	FieldID          Field = "id"
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldBrand       Field = "brand"
	FieldCategory    Field = "category"
	FieldColour      Field = "colour"
	FieldSize        Field = "size"
	FieldPrice       Field = "price"
	FieldRating      Field = "rating"
	FieldOnPromotion Field = "onPromotion"
)

// Predicate is one of Eq, In, PriceRange, RatingRange, ContainsAny or And.
type Predicate interface {
	predicate()
}

// Eq matches records whose boolean field equals Value.
type Eq struct {
	Field Field
	Value bool
}

// In matches records whose field is one of Values. Exactly one of Strings
// or IDs is used, depending on Field.
type In struct {
	Field   Field
	Strings []string
	IDs     []int64
}

// PriceRange matches Min <= price <= Max. A nil bound is open.
type PriceRange struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

// RatingRange matches rating >= Min.
type RatingRange struct {
	Min float64
}

// ContainsAny matches records where any of Fields contains Text,
// ignoring case.
type ContainsAny struct {
	Fields []Field
	Text   string
}

// And matches records satisfying every member. An empty And matches
// everything.
type And []Predicate

func (Eq) predicate()          {}
func (In) predicate()          {}
func (PriceRange) predicate()  {}
func (RatingRange) predicate() {}
func (ContainsAny) predicate() {}
func (And) predicate()         {}

// With returns a new conjunction of a and p. a is not modified.
func (a And) With(p Predicate) And {
	out := make(And, 0, len(a)+1)
	out = append(out, a...)
	return append(out, p)
}
