package chi

import (
	"github.com/eecar/partsearch/internal/domain/ranking"
	"github.com/eecar/partsearch/internal/domain/search/result"
)

// ErrorCode is the machine-readable error identifier in error responses.
type ErrorCode string

// Error codes returned by the API.
const (
	ErrorCodeBadRequest              ErrorCode = "bad_request"
	ErrorCodeValidationFailed        ErrorCode = "validation_failed"
	ErrorCodeUnauthorized            ErrorCode = "unauthorized"
	ErrorCodeRetrievalFailed         ErrorCode = "retrieval_failed"
	ErrorCodeEmbeddingProviderError  ErrorCode = "embedding_provider_error"
	ErrorCodeGenerationProviderError ErrorCode = "generation_provider_error"
	ErrorCodeRateLimited             ErrorCode = "rate_limited"
	ErrorCodeInternalError           ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchFilters is the optional filter object of a search request.
type SearchFilters struct {
	Category     string   `json:"category,omitempty"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	MaxPrice     *float64 `json:"maxPrice,omitempty"`
	MinQuantity  *int     `json:"minQuantity,omitempty"`
}

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Query   string         `json:"query"`
	Filters *SearchFilters `json:"filters,omitempty"`
	TopK    int            `json:"topK,omitempty"`
}

// SearchResponse is the body of a successful search.
type SearchResponse = result.Response

// RangeBody is an inclusive numeric range; either end may be omitted.
type RangeBody struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// MinBody is a lower bound.
type MinBody struct {
	Min *float64 `json:"min,omitempty"`
}

// CompositionBody bounds the share of one element.
type CompositionBody struct {
	Element    string     `json:"element"`
	Percentage *RangeBody `json:"percentage,omitempty"`
}

// MaterialFilters is the filter object of a material-property search.
type MaterialFilters struct {
	TensileStrengthMPa *RangeBody        `json:"tensileStrengthMPa,omitempty"`
	YieldStrengthMPa   *RangeBody        `json:"yieldStrengthMPa,omitempty"`
	ElasticModulusGPa  *RangeBody        `json:"elasticModulusGPa,omitempty"`
	ElongationPercent  *RangeBody        `json:"elongationPercent,omitempty"`
	AlloyNumber        string            `json:"alloyNumber,omitempty"`
	Composition        []CompositionBody `json:"composition,omitempty"`
	Recyclability      *MinBody          `json:"recyclability,omitempty"`
}

// MaterialSearchRequest is the body of POST /api/search/material.
type MaterialSearchRequest struct {
	MaterialFilters *MaterialFilters `json:"materialFilters"`
	Category        string           `json:"category,omitempty"`
	TopK            int              `json:"topK,omitempty"`
}

// BatteryFilters is the filter object of a battery-health search.
type BatteryFilters struct {
	SOH                  *RangeBody `json:"soh,omitempty"`
	CathodeType          []string   `json:"cathodeType,omitempty"`
	RecommendedUse       []string   `json:"recommendedUse,omitempty"`
	SuitableApplications []string   `json:"suitableApplications,omitempty"`
	EstimatedMileageKm   *RangeBody `json:"estimatedMileageKm,omitempty"`
}

// BatterySearchRequest is the body of POST /api/search/battery.
type BatterySearchRequest struct {
	BatteryFilters *BatteryFilters `json:"batteryFilters,omitempty"`
	TopK           int             `json:"topK,omitempty"`
}

// MatchResponse is the body of a successful attribute search.
type MatchResponse = result.MatchResponse

func (r *RangeBody) toRange() *ranking.Range {
	if r == nil {
		return nil
	}
	return &ranking.Range{Min: r.Min, Max: r.Max}
}

func (f *MaterialFilters) toFilter() *ranking.MaterialFilter {
	if f == nil {
		return nil
	}
	out := &ranking.MaterialFilter{
		TensileStrengthMPa: f.TensileStrengthMPa.toRange(),
		YieldStrengthMPa:   f.YieldStrengthMPa.toRange(),
		ElasticModulusGPa:  f.ElasticModulusGPa.toRange(),
		ElongationPercent:  f.ElongationPercent.toRange(),
		AlloyNumber:        f.AlloyNumber,
	}
	if f.Recyclability != nil {
		out.MinRecyclability = f.Recyclability.Min
	}
	for _, c := range f.Composition {
		er := ranking.ElementRange{Element: c.Element}
		if c.Percentage != nil {
			er.Percentage = *c.Percentage.toRange()
		}
		out.Composition = append(out.Composition, er)
	}
	return out
}

func (f *BatteryFilters) toFilter() *ranking.BatteryFilter {
	if f == nil {
		return nil
	}
	return &ranking.BatteryFilter{
		SOH:                f.SOH.toRange(),
		CathodeTypes:       f.CathodeType,
		RecommendedUses:    f.RecommendedUse,
		Applications:       f.SuitableApplications,
		EstimatedMileageKm: f.EstimatedMileageKm.toRange(),
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
