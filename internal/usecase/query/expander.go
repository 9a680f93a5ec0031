package query

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/eecar/partsearch/internal/domain"
	"github.com/eecar/partsearch/internal/domain/llmjson"
	"github.com/eecar/partsearch/internal/logger"
)

// MaxExpansions is the number of model-written variants kept per query.
const MaxExpansions = 3

const expansionSystemPrompt = `당신은 전기차 중고 부품 B2B 마켓플레이스의 검색 도우미입니다.
사용자의 검색어와 같은 의도를 가진 관련 검색어를 최대 3개 만들어 주세요.
부품 종류, 차종, 제조사, 사양(전압, 용량, SOH 등)의 동의어나 구체적인 표현을 활용하세요.
반드시 JSON 문자열 배열만 출력하고 다른 설명은 쓰지 마세요. 예: ["검색어1", "검색어2", "검색어3"]`

// ExpanderOptions configure query expansion.
type ExpanderOptions struct {
	Enabled   bool
	Timeout   time.Duration
	MaxTokens int
}

// Expander asks the generation model for related queries.
type Expander struct {
	gen       Generator
	opts      ExpanderOptions
	fallbacks *prometheus.CounterVec
	logger    *zap.Logger
}

// NewExpander creates an Expander. fallbacks is a counter vec with label "reason" (may be nil).
func NewExpander(gen Generator, opts ExpanderOptions, fallbacks *prometheus.CounterVec, logger *zap.Logger) *Expander {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 200
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Expander{gen: gen, opts: opts, fallbacks: fallbacks, logger: logger}
}

// Expand returns the original query followed by up to MaxExpansions distinct variants.
// It never fails: any problem yields just the original query.
func (e *Expander) Expand(ctx context.Context, q string) []string {
	if !e.opts.Enabled || e.gen == nil {
		return []string{q}
	}

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	log := logger.FromContextOr(ctx, e.logger)

	res, err := e.gen.Generate(ctx, domain.GenerationRequest{
		System:    expansionSystemPrompt,
		Messages:  []domain.Message{{Role: domain.RoleUser, Content: "검색어: " + q}},
		MaxTokens: e.opts.MaxTokens,
	})
	if err != nil {
		log.Warn("Query expansion failed, using original query", zap.Error(err))
		e.fallback("generation_error")
		return []string{q}
	}

	switch out := llmjson.ParseStringArray(res.Text).(type) {
	case llmjson.Parsed:
		values := out.Values
		if len(values) > MaxExpansions {
			values = values[:MaxExpansions]
		}
		return dedupe(append([]string{q}, values...))
	case llmjson.Fallback:
		log.Warn("Query expansion unparsable, using original query", zap.String("reason", out.Reason))
		e.fallback("unparsable")
	}
	return []string{q}
}

func (e *Expander) fallback(reason string) {
	if e.fallbacks != nil {
		e.fallbacks.WithLabelValues(reason).Inc()
	}
}

// dedupe keeps the first occurrence of each non-blank query.
func dedupe(queries []string) []string {
	out := make([]string, 0, len(queries))
	seen := make(map[string]struct{}, len(queries))
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}
