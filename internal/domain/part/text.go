package part

import (
	"strconv"
	"strings"
)

// BM25Text joins the lexically salient fields with single spaces, skipping empty ones.
// The result is the document body the BM25 scorer sees for this part.
func (p *Part) BM25Text() string {
	fields := []string{p.Name, string(p.Category), p.Manufacturer, p.Model, p.Description}

	if s := p.Specifications; s != nil {
		if s.Material != nil {
			fields = append(fields, s.Material.Primary)
		}
		if e := s.Electrical; e != nil {
			if e.Voltage != 0 {
				fields = append(fields, formatNumber(e.Voltage)+"V")
			}
			if e.Capacity != 0 {
				fields = append(fields, formatNumber(e.Capacity)+"Ah")
			}
		}
	}

	if h := p.BatteryHealth; h != nil {
		fields = append(fields, "SOH "+formatNumber(h.SOH)+"%", h.CathodeType)
	}

	return joinNonEmpty(fields, " ")
}

// EmbeddingText renders a labelled multi-line description for semantic indexing.
func (p *Part) EmbeddingText() string {
	description := p.Description
	if description == "" {
		description = "없음"
	}
	lines := []string{
		"부품명: " + p.Name,
		"카테고리: " + string(p.Category),
		"제조사: " + p.Manufacturer,
		"모델: " + p.Model,
		"설명: " + description,
	}

	if s := p.Specifications; s != nil {
		material := "미상"
		if s.Material != nil && s.Material.Primary != "" {
			material = s.Material.Primary
		}
		lines = append(lines, "소재: "+material)
		if e := s.Electrical; e != nil {
			lines = append(lines, "전기적 특성: 전압 "+formatNumber(e.Voltage)+"V, 용량 "+formatNumber(e.Capacity)+"Ah")
		}
	}

	if h := p.BatteryHealth; h != nil {
		lines = append(lines, "배터리 상태: SOH "+formatNumber(h.SOH)+"%, 양극재 "+h.CathodeType)
	}

	return strings.Join(lines, "\n")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinNonEmpty(fields []string, sep string) string {
	out := fields[:0:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return strings.Join(out, sep)
}
