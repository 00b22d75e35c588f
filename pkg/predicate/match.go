package predicate

import (
	"slices"
	"strings"

	"github.com/fuzfriend/products-api/pkg/product"
)

// Match evaluates p against a single record. A nil predicate matches.
func Match(p Predicate, rec *product.Product) bool {
	switch p := p.(type) {
	case nil:
		return true
	case And:
		for _, child := range p {
			if !Match(child, rec) {
				return false
			}
		}
		return true
	case Eq:
		return p.Field == FieldOnPromotion && rec.OnPromotion == p.Value
	case In:
		if p.Field == FieldID {
			return slices.Contains(p.IDs, rec.ID)
		}
		v, ok := StringValue(rec, p.Field)
		return ok && slices.Contains(p.Strings, v)
	case PriceRange:
		if p.Min != nil && rec.Price.LessThan(*p.Min) {
			return false
		}
		if p.Max != nil && rec.Price.GreaterThan(*p.Max) {
			return false
		}
		return true
	case RatingRange:
		return rec.Rating >= p.Min
	case ContainsAny:
		needle := strings.ToLower(p.Text)
		for _, f := range p.Fields {
			if v, ok := StringValue(rec, f); ok && strings.Contains(strings.ToLower(v), needle) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// StringValue returns the textual value of a string-typed field. ok is
// false for non-string fields.
func StringValue(rec *product.Product, f Field) (string, bool) {
	switch f {
	case FieldTitle:
		return rec.Title, true
	case FieldDescription:
		return rec.Description, true
	case FieldBrand:
		return rec.Brand, true
	case FieldCategory:
		return rec.Category, true
	case FieldColour:
		return rec.Colour, true
	case FieldSize:
		return rec.Size, true
	default:
		return "", false
	}
}
