// Package explain writes short buyer-facing reasons for ranked parts.
package explain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/eecar/partsearch/internal/domain"
	"github.com/eecar/partsearch/internal/domain/llmjson"
	"github.com/eecar/partsearch/internal/domain/part"
	"github.com/eecar/partsearch/internal/domain/search/result"
	"github.com/eecar/partsearch/internal/logger"
)

const systemPrompt = `당신은 전기차 중고 부품 B2B 마켓플레이스의 추천 도우미입니다.
각 부품이 구매자의 검색 니즈에 적합한 이유를 한 문장으로 간단히 설명하세요.
설명에는 검색어를 반복하지 말고 부품의 특징과 적합한 이유만 쓰세요.
부품 번호 순서대로, 부품 수와 같은 길이의 JSON 문자열 배열만 출력하세요.`

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error)
}

// Options configure explanation enrichment.
type Options struct {
	Enabled   bool
	Timeout   time.Duration
	MaxTokens int
}

// Explainer produces one reason per part in a single generation call.
type Explainer struct {
	gen       Generator
	opts      Options
	fallbacks *prometheus.CounterVec
	logger    *zap.Logger
}

// New creates an Explainer. fallbacks is a counter vec with label "reason" (may be nil).
func New(gen Generator, opts Options, fallbacks *prometheus.CounterVec, logger *zap.Logger) *Explainer {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Explainer{gen: gen, opts: opts, fallbacks: fallbacks, logger: logger}
}

// Explain returns exactly len(parts) reasons. It never fails: anything the
// model does not provide becomes result.FallbackReason.
func (e *Explainer) Explain(ctx context.Context, query string, parts []part.Projection) []string {
	if len(parts) == 0 {
		return []string{}
	}
	if !e.opts.Enabled || e.gen == nil {
		return fill(make([]string, 0, len(parts)), len(parts))
	}

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}
	log := logger.FromContextOr(ctx, e.logger)

	res, err := e.gen.Generate(ctx, domain.GenerationRequest{
		System:    systemPrompt,
		Messages:  []domain.Message{{Role: domain.RoleUser, Content: buildPrompt(query, parts)}},
		MaxTokens: e.opts.MaxTokens,
	})
	if err != nil {
		log.Warn("Explanation generation failed, using fallback reasons", zap.Error(err))
		e.fallback("generation_error")
		return fill(nil, len(parts))
	}

	var reasons []string
	switch out := llmjson.ParseStringArray(res.Text).(type) {
	case llmjson.Parsed:
		reasons = out.Values
	case llmjson.Fallback:
		log.Warn("Explanation output unparsable, using fallback reasons", zap.String("reason", out.Reason))
		e.fallback("unparsable")
		return fill(nil, len(parts))
	}

	if len(reasons) != len(parts) {
		log.Warn("Explanation count mismatch",
			zap.Int("expected", len(parts)),
			zap.Int("got", len(reasons)),
		)
		e.fallback("count_mismatch")
	}

	out := make([]string, 0, len(parts))
	for _, r := range reasons {
		if len(out) == len(parts) {
			break
		}
		r = strings.TrimSpace(r)
		if r == "" {
			r = result.FallbackReason
		}
		out = append(out, r)
	}
	return fill(out, len(parts))
}

func (e *Explainer) fallback(reason string) {
	if e.fallbacks != nil {
		e.fallbacks.WithLabelValues(reason).Inc()
	}
}

// fill pads reasons with the fallback up to n.
func fill(reasons []string, n int) []string {
	for len(reasons) < n {
		reasons = append(reasons, result.FallbackReason)
	}
	return reasons
}

func buildPrompt(query string, parts []part.Projection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "검색 니즈: %q\n\n", query)
	for i, p := range parts {
		fmt.Fprintf(&b, "%d. 부품명: %s / 카테고리: %s / 제조사: %s / 모델: %s / 가격: %s원\n",
			i+1, p.Name, p.Category, p.Manufacturer, p.Model, formatPrice(p.Price))
	}
	fmt.Fprintf(&b, "\n%d개의 이유를 JSON 배열로 답하세요.", len(parts))
	return b.String()
}

func formatPrice(v float64) string {
	return fmt.Sprintf("%.0f", v)
}
