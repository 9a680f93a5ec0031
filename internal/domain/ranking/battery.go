package ranking

import (
	"math"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/eecar/partsearch/internal/domain/part"
)

// BatteryFilter selects batteries by health. Empty fields do not constrain.
type BatteryFilter struct {
	SOH                *Range
	CathodeTypes       []string
	RecommendedUses    []string
	Applications       []string // any one must be suitable
	EstimatedMileageKm *Range
}

// Battery score bounds and bonuses.
const (
	MaxBatteryScore = 100

	reuseBonus       = 10
	mileageBonus     = 5
	mileageBonusOver = 50000
	cathodeBonus     = 15
	applicationBonus = 5
)

// Age-based estimate used when a listing carries no health report.
const (
	sohLossPerYear  = 5
	minEstimatedSOH = 50
)

// Matches reports whether h satisfies f. A battery without a health report never matches.
func (f BatteryFilter) Matches(h *part.BatteryHealth) bool {
	if h == nil {
		return false
	}
	if f.SOH != nil && !f.SOH.Contains(h.SOH) {
		return false
	}
	if len(f.CathodeTypes) > 0 && !slices.Contains(f.CathodeTypes, h.CathodeType) {
		return false
	}
	if len(f.RecommendedUses) > 0 && !slices.Contains(f.RecommendedUses, h.RecommendedUse) {
		return false
	}
	if len(f.Applications) > 0 && !slices.ContainsFunc(f.Applications, func(app string) bool {
		return slices.Contains(h.SuitableApplications, app)
	}) {
		return false
	}
	if f.EstimatedMileageKm != nil {
		if h.EstimatedMileageKm == 0 || !f.EstimatedMileageKm.Contains(float64(h.EstimatedMileageKm)) {
			return false
		}
	}
	return true
}

// BatteryScore starts from SOH and adds bonuses for reuse potential.
// With a filter, matching cathode chemistry and each shared application add more.
// The result is capped at 100.
func BatteryScore(h part.BatteryHealth, f *BatteryFilter) float64 {
	score := h.SOH
	if h.RecommendedUse == part.UseReuse {
		score += reuseBonus
	}
	if h.EstimatedMileageKm > mileageBonusOver {
		score += mileageBonus
	}

	if f != nil {
		if slices.Contains(f.CathodeTypes, h.CathodeType) {
			score += cathodeBonus
		}
		for _, app := range f.Applications {
			if slices.Contains(h.SuitableApplications, app) {
				score += applicationBonus
			}
		}
	}
	return math.Min(MaxBatteryScore, score)
}

// EstimateBatteryHealth guesses a health report from the model year:
// 5% SOH per year of age, never below 50% and never above 100%.
func EstimateBatteryHealth(p part.Part, currentYear int) part.BatteryHealth {
	age := currentYear - p.Year
	soh := math.Min(100, math.Max(minEstimatedSOH, float64(100-age*sohLossPerYear)))

	h := part.BatteryHealth{SOH: soh, CathodeType: part.CathodeOther}
	switch {
	case soh >= 80:
		h.RecommendedUse = part.UseReuse
		h.SuitableApplications = []string{"EV 재사용", "ESS", "전동킥보드", "지게차"}
	case soh >= 70:
		h.RecommendedUse = part.UseReuse
		h.SuitableApplications = []string{"ESS", "전동킥보드", "소형 전동기기"}
	default:
		h.RecommendedUse = part.UseRecycle
		h.SuitableApplications = []string{"습식 제련", "건식 제련"}
	}
	return h
}

// BatteryReason summarizes a health report for a buyer.
func BatteryReason(h part.BatteryHealth) string {
	reasons := []string{"SOH " + formatFloat(h.SOH) + "%"}

	switch h.RecommendedUse {
	case part.UseReuse:
		reasons = append(reasons, "재사용 추천")
	case part.UseRecycle:
		reasons = append(reasons, "재활용 권장")
	default:
		reasons = append(reasons, "폐기 필요")
	}

	if h.CathodeType != "" && h.CathodeType != part.CathodeOther {
		reasons = append(reasons, "양극재: "+h.CathodeType)
	}
	if apps := h.SuitableApplications; len(apps) > 0 {
		reasons = append(reasons, "활용 가능: "+strings.Join(apps[:min(2, len(apps))], ", "))
	}
	if h.EstimatedMileageKm > 0 {
		reasons = append(reasons, "예상 주행거리: "+message.NewPrinter(language.Korean).Sprintf("%d", h.EstimatedMileageKm)+" km")
	}
	if len(h.VendorRecommendations) > 0 {
		reasons = append(reasons, "추천 업체: "+h.VendorRecommendations[0])
	}
	return strings.Join(reasons, " | ")
}
