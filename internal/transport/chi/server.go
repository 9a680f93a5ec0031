// Package chi is the HTTP transport: routes, request decoding and error mapping.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/eecar/partsearch/internal/domain"
	"github.com/eecar/partsearch/internal/domain/search/filter"
	"github.com/eecar/partsearch/internal/domain/search/request"
	"github.com/eecar/partsearch/internal/domain/search/result"
	"github.com/eecar/partsearch/internal/logger"
	"github.com/eecar/partsearch/internal/metrics"
	healthuc "github.com/eecar/partsearch/internal/usecase/health"
)

// maxBodyBytes caps the search request body.
const maxBodyBytes = 64 << 10

// Searcher runs the search pipeline.
type Searcher interface {
	Search(ctx context.Context, req request.Request) (result.Response, error)
}

// AttributeSearcher ranks parts by material properties and battery health.
type AttributeSearcher interface {
	Materials(ctx context.Context, req request.Material) (result.MatchResponse, error)
	Batteries(ctx context.Context, req request.Battery) (result.MatchResponse, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server holds the HTTP handlers.
type Server struct {
	search        Searcher
	attributes    AttributeSearcher
	health        HealthChecker
	maxTopK       int
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. maxTopK <= 0 uses request.MaxTopK.
func NewServer(search Searcher, attributes AttributeSearcher, health HealthChecker, maxTopK int, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search:     search,
		attributes: attributes,
		health:     health,
		maxTopK:    maxTopK,
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, ErrorCodeRateLimited),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeEmbeddingProviderError),
		sentinelHandler(domain.ErrGenerationProviderError, http.StatusBadGateway, ErrorCodeGenerationProviderError),
		sentinelHandler(domain.ErrRetrievalFailed, http.StatusInternalServerError, ErrorCodeRetrievalFailed),
	}
	return s
}

// Router builds the chi router with the full middleware chain.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Post("/api/search", s.Search)
	r.Post("/api/search/material", s.SearchMaterials)
	r.Post("/api/search/battery", s.SearchBatteries)
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})
	return r
}

// Search handles POST /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if !decodeBody(w, r, &body) {
		return
	}

	req, err := searchRequestFromBody(body, s.maxTopK)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.search.Search(ctx, req)
	setUsageHeaders(w, usage)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	logger.FromContextOr(r.Context(), s.logger).Info("search",
		zap.Int("count", resp.Count),
		zap.Bool("cached", resp.Cached),
		zap.Int64("embedding_tokens", usage.EmbeddingTokens()),
		zap.Int64("generation_tokens", usage.GenerationTokens()),
	)
	writeJSON(w, http.StatusOK, resp)
}

// SearchMaterials handles POST /api/search/material.
func (s *Server) SearchMaterials(w http.ResponseWriter, r *http.Request) {
	var body MaterialSearchRequest
	if !decodeBody(w, r, &body) {
		return
	}

	req, err := request.NewMaterial(body.MaterialFilters.toFilter(), body.Category, body.TopK, s.maxTopK)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	resp, err := s.attributes.Materials(r.Context(), req)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	logger.FromContextOr(r.Context(), s.logger).Info("material search", zap.Int("count", resp.Count))
	writeJSON(w, http.StatusOK, resp)
}

// SearchBatteries handles POST /api/search/battery. An empty body lists every battery.
func (s *Server) SearchBatteries(w http.ResponseWriter, r *http.Request) {
	var body BatterySearchRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &body) {
		return
	}

	req, err := request.NewBattery(body.BatteryFilters.toFilter(), body.TopK, s.maxTopK)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	resp, err := s.attributes.Batteries(r.Context(), req)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	logger.FromContextOr(r.Context(), s.logger).Info("battery search", zap.Int("count", resp.Count))
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

func searchRequestFromBody(body SearchRequest, maxTopK int) (request.Request, error) {
	var f filter.Filters
	if body.Filters != nil {
		var err error
		f, err = filter.New(body.Filters.Category, body.Filters.Manufacturer, body.Filters.MaxPrice, body.Filters.MinQuantity)
		if err != nil {
			return request.Request{}, err //nolint:wrapcheck // message is user-facing
		}
	}
	return request.New(body.Query, f, body.TopK, maxTopK) //nolint:wrapcheck // message is user-facing
}

// decodeBody reads a size-limited JSON body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.Usage) {
	w.Header().Set("X-Embedding-Tokens", strconv.FormatInt(usage.EmbeddingTokens(), 10))
	w.Header().Set("X-Generation-Tokens", strconv.FormatInt(usage.GenerationTokens(), 10))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logger.FromContextOr(ctx, s.logger)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
