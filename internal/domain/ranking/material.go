package ranking

import (
	"math"
	"strconv"
	"strings"

	"github.com/eecar/partsearch/internal/domain/part"
)

// Range is an inclusive numeric bound. A nil end is open.
type Range struct {
	Min *float64
	Max *float64
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// Valid reports whether min does not exceed max.
func (r Range) Valid() bool {
	return r.Min == nil || r.Max == nil || *r.Min <= *r.Max
}

// ideal is the range midpoint; an open max is replaced by v, an open min by 0.
func (r Range) ideal(v float64) float64 {
	lo, hi := 0.0, v
	if r.Min != nil {
		lo = *r.Min
	}
	if r.Max != nil {
		hi = *r.Max
	}
	return (lo + hi) / 2
}

// ElementRange bounds the share of one element in a material.
type ElementRange struct {
	Element    string
	Percentage Range
}

// MaterialFilter selects parts by measured material properties.
// Nil ranges and empty fields do not constrain.
type MaterialFilter struct {
	TensileStrengthMPa *Range
	YieldStrengthMPa   *Range
	ElasticModulusGPa  *Range
	ElongationPercent  *Range
	AlloyNumber        string
	Composition        []ElementRange
	MinRecyclability   *float64
}

// Material score bounds and per-property deviation weights.
const (
	MaxMaterialScore = 100

	tensileWeight  = 20
	yieldWeight    = 20
	modulusWeight  = 15
	recyclingBonus = 10
)

// noMaterialMatch is the reason when no measured property was asked about.
const noMaterialMatch = "재질 물성 정보 일치"

// Matches reports whether m satisfies every constraint of f.
// A constrained property that was never measured fails the match.
func (f MaterialFilter) Matches(m *part.MaterialComposition) bool {
	if m == nil {
		return false
	}
	checks := []struct {
		r *Range
		v float64
	}{
		{f.TensileStrengthMPa, m.TensileStrengthMPa},
		{f.YieldStrengthMPa, m.YieldStrengthMPa},
		{f.ElasticModulusGPa, m.ElasticModulusGPa},
		{f.ElongationPercent, m.ElongationPercent},
	}
	for _, c := range checks {
		if c.r == nil {
			continue
		}
		if c.v == 0 || !c.r.Contains(c.v) {
			return false
		}
	}

	if f.AlloyNumber != "" && m.AlloyNumber != f.AlloyNumber {
		return false
	}
	if f.MinRecyclability != nil && (m.Recyclability == 0 || m.Recyclability < *f.MinRecyclability) {
		return false
	}
	for _, c := range f.Composition {
		share, ok := m.Percentage[c.Element]
		if !ok || !c.Percentage.Contains(share) {
			return false
		}
	}
	return true
}

// Score rates a matching material from 0 to 100.
// An exact alloy match scores 100. Otherwise each constrained strength
// property loses points by its relative distance from the range midpoint,
// and meeting the recyclability floor adds a bonus.
func (f MaterialFilter) Score(m part.MaterialComposition) float64 {
	if f.AlloyNumber != "" && m.AlloyNumber == f.AlloyNumber {
		return MaxMaterialScore
	}

	score := float64(MaxMaterialScore)
	score -= deviation(f.TensileStrengthMPa, m.TensileStrengthMPa) * tensileWeight
	score -= deviation(f.YieldStrengthMPa, m.YieldStrengthMPa) * yieldWeight
	score -= deviation(f.ElasticModulusGPa, m.ElasticModulusGPa) * modulusWeight

	if f.MinRecyclability != nil && m.Recyclability >= *f.MinRecyclability {
		score += recyclingBonus
	}
	return math.Max(0, math.Min(MaxMaterialScore, score))
}

func deviation(r *Range, v float64) float64 {
	if r == nil {
		return 0
	}
	ideal := r.ideal(v)
	if ideal == 0 {
		return 0
	}
	return math.Abs(v-ideal) / ideal
}

// Reason lists the measured properties the filter asked about.
func (f MaterialFilter) Reason(m part.MaterialComposition) string {
	var reasons []string
	if f.AlloyNumber != "" && m.AlloyNumber == f.AlloyNumber {
		reasons = append(reasons, "합금 번호 "+m.AlloyNumber+" 정확히 일치")
	}
	if f.TensileStrengthMPa != nil && m.TensileStrengthMPa != 0 {
		reasons = append(reasons, "인장강도 "+formatFloat(m.TensileStrengthMPa)+" MPa")
	}
	if f.YieldStrengthMPa != nil && m.YieldStrengthMPa != 0 {
		reasons = append(reasons, "항복강도 "+formatFloat(m.YieldStrengthMPa)+" MPa")
	}
	if f.ElasticModulusGPa != nil && m.ElasticModulusGPa != 0 {
		reasons = append(reasons, "탄성계수 "+formatFloat(m.ElasticModulusGPa)+" GPa")
	}
	if m.Recyclability != 0 {
		reasons = append(reasons, "재활용성 "+formatFloat(m.Recyclability)+"%")
	}
	if len(reasons) == 0 {
		return noMaterialMatch
	}
	return strings.Join(reasons, ", ")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
