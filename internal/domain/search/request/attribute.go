package request

import (
	"fmt"
	"strings"

	"github.com/eecar/partsearch/internal/domain"
	"github.com/eecar/partsearch/internal/domain/part"
	"github.com/eecar/partsearch/internal/domain/ranking"
)

// Material is a validated material-property search.
type Material struct {
	filter   ranking.MaterialFilter
	category part.Category
	topK     int
}

// NewMaterial validates a material-property search. The filter is required.
func NewMaterial(f *ranking.MaterialFilter, category string, topK, maxTopK int) (Material, error) {
	if f == nil {
		return Material{}, fmt.Errorf("materialFilters is required: %w", domain.ErrInvalidQuery)
	}
	ranges := map[string]*ranking.Range{
		"tensileStrengthMPa": f.TensileStrengthMPa,
		"yieldStrengthMPa":   f.YieldStrengthMPa,
		"elasticModulusGPa":  f.ElasticModulusGPa,
		"elongationPercent":  f.ElongationPercent,
	}
	for name, r := range ranges {
		if err := validRange(name, r); err != nil {
			return Material{}, err
		}
	}
	for _, c := range f.Composition {
		if strings.TrimSpace(c.Element) == "" {
			return Material{}, fmt.Errorf("composition element is required: %w", domain.ErrInvalidQuery)
		}
		if err := validRange("composition."+c.Element, &c.Percentage); err != nil {
			return Material{}, err
		}
	}

	return Material{
		filter:   *f,
		category: part.Category(strings.TrimSpace(category)),
		topK:     clampTopK(topK, maxTopK),
	}, nil
}

// Filter returns the material constraints.
func (m *Material) Filter() ranking.MaterialFilter { return m.filter }

// Category returns the category restriction; empty means any.
func (m *Material) Category() part.Category { return m.category }

// TopK returns the number of results to return.
func (m *Material) TopK() int { return m.topK }

// Battery is a validated battery-health search.
type Battery struct {
	filter *ranking.BatteryFilter
	topK   int
}

// NewBattery validates a battery search. A nil filter lists every battery.
func NewBattery(f *ranking.BatteryFilter, topK, maxTopK int) (Battery, error) {
	if f != nil {
		if err := validRange("soh", f.SOH); err != nil {
			return Battery{}, err
		}
		if err := validRange("estimatedMileageKm", f.EstimatedMileageKm); err != nil {
			return Battery{}, err
		}
	}
	return Battery{filter: f, topK: clampTopK(topK, maxTopK)}, nil
}

// Filter returns the health constraints, nil when none were given.
func (b *Battery) Filter() *ranking.BatteryFilter { return b.filter }

// TopK returns the number of results to return.
func (b *Battery) TopK() int { return b.topK }

func validRange(name string, r *ranking.Range) error {
	if r != nil && !r.Valid() {
		return fmt.Errorf("%s: min must not exceed max: %w", name, domain.ErrInvalidQuery)
	}
	return nil
}
