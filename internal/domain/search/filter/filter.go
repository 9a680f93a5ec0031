package filter

import (
	"fmt"

	"github.com/eecar/partsearch/internal/domain/part"
)

// CategoryField is the metadata field backends filter on.
const CategoryField = "category"

// Filters narrows a result list. Zero value matches everything.
type Filters struct {
	category     part.Category
	manufacturer string
	maxPrice     *float64
	minQuantity  *int
}

// New validates and creates Filters. Nil bounds are not applied.
func New(category, manufacturer string, maxPrice *float64, minQuantity *int) (Filters, error) {
	if maxPrice != nil && *maxPrice < 0 {
		return Filters{}, fmt.Errorf("maxPrice must be >= 0, got %v", *maxPrice)
	}
	if minQuantity != nil && *minQuantity < 0 {
		return Filters{}, fmt.Errorf("minQuantity must be >= 0, got %d", *minQuantity)
	}
	return Filters{
		category:     part.Category(category),
		manufacturer: manufacturer,
		maxPrice:     maxPrice,
		minQuantity:  minQuantity,
	}, nil
}

// Category returns the category equality filter ("" = any).
func (f Filters) Category() part.Category { return f.category }

// Manufacturer returns the manufacturer equality filter ("" = any).
func (f Filters) Manufacturer() string { return f.manufacturer }

// MaxPrice returns the inclusive price ceiling, if set.
func (f Filters) MaxPrice() (float64, bool) {
	if f.maxPrice == nil {
		return 0, false
	}
	return *f.maxPrice, true
}

// MinQuantity returns the inclusive stock floor, if set.
func (f Filters) MinQuantity() (int, bool) {
	if f.minQuantity == nil {
		return 0, false
	}
	return *f.minQuantity, true
}

// IsEmpty reports whether no filter is set.
func (f Filters) IsEmpty() bool {
	return f.category == "" && f.manufacturer == "" && f.maxPrice == nil && f.minQuantity == nil
}

// Matches reports whether a projected part passes every filter.
func (f Filters) Matches(p part.Projection) bool {
	if f.category != "" && p.Category != f.category {
		return false
	}
	if f.manufacturer != "" && p.Manufacturer != f.manufacturer {
		return false
	}
	if f.maxPrice != nil && p.Price > *f.maxPrice {
		return false
	}
	if f.minQuantity != nil && p.Quantity < *f.minQuantity {
		return false
	}
	return true
}

// Equality is a single field=value condition that retrieval backends can push down.
type Equality struct {
	Field string
	Value string
}

// IsZero reports whether there is no condition.
func (e Equality) IsZero() bool { return e.Field == "" }

// Pushdown returns the condition a backend can apply server-side.
// Only category is pushed down; the rest is applied after hydration.
func (f Filters) Pushdown() Equality {
	if f.category == "" {
		return Equality{}
	}
	return Equality{Field: CategoryField, Value: string(f.category)}
}
