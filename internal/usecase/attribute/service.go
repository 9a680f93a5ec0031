// Package attribute ranks parts by structured properties: material
// mechanics and battery health. It scans the catalog instead of querying
// a vector backend, so no embedding or generation call is involved.
package attribute

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/eecar/partsearch/internal/domain"
	"github.com/eecar/partsearch/internal/domain/part"
	"github.com/eecar/partsearch/internal/domain/ranking"
	"github.com/eecar/partsearch/internal/domain/search/request"
	"github.com/eecar/partsearch/internal/domain/search/result"
	"github.com/eecar/partsearch/internal/logger"
)

// DefaultTimeout bounds one catalog scan.
const DefaultTimeout = 10 * time.Second

// Search kinds, also used as metric labels.
const (
	kindMaterial = "material"
	kindBattery  = "battery"
)

// Options configure the scan.
type Options struct {
	Timeout time.Duration
	Now     func() time.Time // clock for age-based battery estimates
}

// Service runs attribute searches over the catalog.
type Service struct {
	catalog  Catalog
	opts     Options
	duration *prometheus.HistogramVec
	logger   *zap.Logger
}

// New creates an attribute search service. duration may be nil.
func New(catalog Catalog, opts Options, duration *prometheus.HistogramVec, logger *zap.Logger) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{catalog: catalog, opts: opts, duration: duration, logger: logger}
}

// Materials returns parts whose material composition satisfies the filter,
// best score first.
func (s *Service) Materials(ctx context.Context, req request.Material) (result.MatchResponse, error) {
	start := time.Now()
	parts, err := s.list(ctx, kindMaterial, start)
	if err != nil {
		return result.MatchResponse{}, err
	}

	f := req.Filter()
	var matches []result.Match
	for _, p := range parts {
		if req.Category() != "" && p.Category != req.Category() {
			continue
		}
		if p.Specifications == nil || !f.Matches(p.Specifications.Material) {
			continue
		}
		m := *p.Specifications.Material
		matches = append(matches, result.Match{
			PartID: p.ID,
			Score:  f.Score(m),
			Part:   p,
			Reason: f.Reason(m),
		})
	}

	return s.finish(ctx, kindMaterial, start, len(parts), matches, req.TopK()), nil
}

// Batteries returns battery listings ranked by health. Listings without a
// health report get an age-based estimate unless a filter was given, in
// which case they are excluded.
func (s *Service) Batteries(ctx context.Context, req request.Battery) (result.MatchResponse, error) {
	start := time.Now()
	parts, err := s.list(ctx, kindBattery, start)
	if err != nil {
		return result.MatchResponse{}, err
	}

	f := req.Filter()
	year := s.opts.Now().Year()
	var matches []result.Match
	for _, p := range parts {
		if p.Category != part.CategoryBattery {
			continue
		}
		if f != nil && !f.Matches(p.BatteryHealth) {
			continue
		}

		var health part.BatteryHealth
		if p.BatteryHealth != nil {
			health = *p.BatteryHealth
		} else {
			health = ranking.EstimateBatteryHealth(p, year)
		}
		p.BatteryHealth = &health

		matches = append(matches, result.Match{
			PartID: p.ID,
			Score:  ranking.BatteryScore(health, f),
			Part:   p,
			Reason: ranking.BatteryReason(health),
		})
	}

	return s.finish(ctx, kindBattery, start, len(parts), matches, req.TopK()), nil
}

func (s *Service) list(ctx context.Context, kind string, start time.Time) ([]part.Part, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	parts, err := s.catalog.List(ctx)
	if err == nil {
		return parts, nil
	}
	s.observe(kind, "error", start)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: %s catalog scan timed out after %s: %w", domain.ErrRetrievalFailed, kind, s.opts.Timeout, err)
	}
	return nil, fmt.Errorf("%w: %s catalog scan: %w", domain.ErrRetrievalFailed, kind, err)
}

// finish orders matches by score, then id for a stable response, and keeps topK.
func (s *Service) finish(ctx context.Context, kind string, start time.Time, scanned int, matches []result.Match, topK int) result.MatchResponse {
	slices.SortFunc(matches, func(a, b result.Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.PartID, b.PartID)
	})
	matched := len(matches)
	if len(matches) > topK {
		matches = matches[:topK]
	}

	s.observe(kind, "ok", start)
	logger.FromContextOr(ctx, s.logger).Debug("Attribute search completed",
		zap.String("kind", kind),
		zap.Int("scanned", scanned),
		zap.Int("matched", matched),
		zap.Int("returned", len(matches)),
	)
	return result.NewMatchResponse(matches)
}

func (s *Service) observe(kind, status string, start time.Time) {
	if s.duration != nil {
		s.duration.WithLabelValues(kind, status).Observe(time.Since(start).Seconds())
	}
}
