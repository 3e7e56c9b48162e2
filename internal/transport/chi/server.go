package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shopper/internal/domain"
	"github.com/kailas-cloud/shopper/internal/domain/catalog"
	healthuc "github.com/kailas-cloud/shopper/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/shopper/internal/usecase/recommend"
	"github.com/kailas-cloud/shopper/internal/version"
)

const (
	maxBodyBytes = 1 << 20
	// MaxCandidatesLimit caps the limit accepted by POST /v1/candidates.
	MaxCandidatesLimit = 100
)

// Recommender answers queries and exposes the retrieval stage.
type Recommender interface {
	Answer(ctx context.Context, query string, labels []string) (string, error)
	Retrieve(ctx context.Context, query string, labels []string, limit int) ([]recommenduc.Match, error)
}

// CatalogManager serves and refreshes the active catalog.
type CatalogManager interface {
	Current() (*catalog.Catalog, error)
	Reload(ctx context.Context) (*catalog.Catalog, error)
	LoadedAt() time.Time
}

// HealthReporter aggregates component checks.
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API of the recommendation service.
type Server struct {
	recommender   Recommender
	catalogs      CatalogManager
	health        HealthReporter
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(recommender Recommender, catalogs CatalogManager, health HealthReporter, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		recommender: recommender,
		catalogs:    catalogs,
		health:      health,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrCatalogNotLoaded, http.StatusServiceUnavailable, CodeCatalogNotLoaded),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrGenerationProviderError, http.StatusBadGateway, CodeGenerationProviderError),
		sentinelHandler(domain.ErrCatalogLoad, http.StatusInternalServerError, CodeCatalogLoadFailed),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusInternalServerError, CodeVectorDimMismatch),
	}
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/recommendations", s.Recommend)
		r.Post("/candidates", s.Candidates)
		r.Get("/products/{id}", s.GetProduct)
		r.Post("/catalog/reload", s.ReloadCatalog)
	})
}

// Recommend handles POST /v1/recommendations.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendationRequest
	if !decodeBody(w, r, &req) || !validateQuery(w, req.Query, req.Labels) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	answer, err := s.recommender.Answer(ctx, req.Query, req.Labels)
	setUsageHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RecommendationResponse{Answer: answer})
}

// Candidates handles POST /v1/candidates.
func (s *Server) Candidates(w http.ResponseWriter, r *http.Request) {
	var req CandidatesRequest
	if !decodeBody(w, r, &req) || !validateQuery(w, req.Query, req.Labels) {
		return
	}

	limit := 0
	if req.Limit != nil {
		if *req.Limit <= 0 || *req.Limit > MaxCandidatesLimit {
			writeError(w, http.StatusBadRequest, CodeValidationFailed,
				fmt.Sprintf("limit must be between 1 and %d", MaxCandidatesLimit))
			return
		}
		limit = *req.Limit
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	matches, err := s.recommender.Retrieve(ctx, req.Query, req.Labels, limit)
	setUsageHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]CandidateItem, len(matches))
	for i := range matches {
		items[i] = CandidateItem{Score: matches[i].Score, Product: productToResponse(&matches[i].Product)}
	}
	writeJSON(w, http.StatusOK, CandidatesResponse{Items: items})
}

// GetProduct handles GET /v1/products/{id}.
func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request) {
	cat, err := s.catalogs.Current()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	p, err := cat.Get(chi.URLParam(r, "id"))
	if err != nil {
		// Only here does the identifier come from the client; elsewhere an unknown
		// product means the catalog is inconsistent and falls through to 500.
		if !writeUnknownProduct(w, err) {
			s.handleDomainError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, productToResponse(&p))
}

// ReloadCatalog handles POST /v1/catalog/reload.
func (s *Server) ReloadCatalog(w http.ResponseWriter, r *http.Request) {
	cat, err := s.catalogs.Reload(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ReloadResponse{
		Products:   cat.Len(),
		Dimensions: cat.Dimensions(),
		LoadedAt:   s.catalogs.LoadedAt().UTC(),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.Version,
		Commit:  version.Commit,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// validateQuery rejects a request with nothing to embed: a blank query and no labels.
func validateQuery(w http.ResponseWriter, query string, labels []string) bool {
	if strings.TrimSpace(query) == "" && len(labels) == 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "query or labels must be provided")
		return false
	}
	return true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.Usage) {
	if tokens, used := usage.Embedding(); used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(tokens))
	}
	if tokens, used := usage.Generation(); used {
		w.Header().Set("X-Generation-Tokens", strconv.Itoa(tokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrUnknownProduct,
		domain.ErrCatalogNotLoaded,
		domain.ErrCatalogLoad,
		domain.ErrVectorDimMismatch,
		domain.ErrEmbeddingProviderError,
		domain.ErrGenerationProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// writeUnknownProduct answers 404 echoing the requested identifier.
func writeUnknownProduct(w http.ResponseWriter, err error) bool {
	var upe *domain.UnknownProductError
	if !errors.As(err, &upe) {
		return false
	}
	writeError(w, http.StatusNotFound, CodeProductNotFound, upe.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
