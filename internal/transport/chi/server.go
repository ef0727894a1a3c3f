// Package chi implements the HTTP JSON API for the indexing pipeline.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docpipe/internal/domain"
	"github.com/kailas-cloud/docpipe/internal/domain/chunk"
	"github.com/kailas-cloud/docpipe/internal/domain/search/filters"
	"github.com/kailas-cloud/docpipe/internal/domain/search/options"
	"github.com/kailas-cloud/docpipe/internal/domain/search/query"
	"github.com/kailas-cloud/docpipe/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/docpipe/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/docpipe/internal/usecase/indexing"
)

// Indexer is the write-path surface the server needs.
type Indexer interface {
	IndexDocument(ctx context.Context, cmd *indexinguc.Command) (indexinguc.Summary, error)
	DeleteDocument(ctx context.Context, tenantID, documentID string) (int, error)
}

// Searcher is the read-path surface the server needs.
type Searcher interface {
	Search(ctx context.Context, q query.Query, f filters.Filters, o options.Options) ([]result.Hybrid, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the indexing and search services over HTTP.
type Server struct {
	indexing        Indexer
	search          Searcher
	health          HealthChecker
	logger          *zap.Logger
	defaultChunking chunk.Config
	defaultVectorW  float64
	defaultKeywordW float64
	errorHandlers   []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(indexing Indexer, search Searcher, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		indexing:        indexing,
		search:          search,
		health:          health,
		logger:          logger,
		defaultChunking: chunk.DefaultConfig(),
	}
	s.errorHandlers = []errorHandler{
		indexingFailedHandler,
		sentinelHandler(domain.ErrTenantRequired, http.StatusBadRequest, codeTenantRequired),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, codeDocumentNotFound),
		sentinelHandler(domain.ErrSearchTimeout, http.StatusGatewayTimeout, codeSearchTimeout),
		sentinelHandler(domain.ErrProvider, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrStore, http.StatusInternalServerError, codeStoreError),
	}
	return s
}

// WithChunkingDefaults overrides the segmentation defaults applied when a
// request omits its chunking section.
func (s *Server) WithChunkingDefaults(cfg chunk.Config) *Server {
	s.defaultChunking = cfg.WithDefaults()
	return s
}

// WithSearchWeights overrides the fusion weights applied when a request
// omits them. The pair is validated per request, alongside any explicit
// request weights.
func (s *Server) WithSearchWeights(vectorWeight, keywordWeight float64) *Server {
	s.defaultVectorW = vectorWeight
	s.defaultKeywordW = keywordWeight
	return s
}

// Routes mounts all API endpoints on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/documents", s.IndexDocument)
	r.Delete("/documents/{documentID}", s.DeleteDocument)
	r.Post("/search", s.SearchDocuments)
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// IndexDocument handles POST /documents.
func (s *Server) IndexDocument(w http.ResponseWriter, r *http.Request) {
	var req indexDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sum, err := s.indexing.IndexDocument(r.Context(), commandFromRequest(req, s.defaultChunking))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, summaryToResponse(sum))
}

// DeleteDocument handles DELETE /documents/{documentID}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")
	tenantID := r.URL.Query().Get("tenant_id")

	deleted, err := s.indexing.DeleteDocument(r.Context(), tenantID, documentID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deleteDocumentResponse{
		DocumentID:    documentID,
		DeletedChunks: deleted,
	})
}

// SearchDocuments handles POST /search.
func (s *Server) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	q, err := query.New(req.Query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	f, err := filtersFromRequest(req.TenantID, req.Filters)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	o, err := optionsFromRequest(req.Options, s.defaultVectorW, s.defaultKeywordW)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	results, err := s.search.Search(r.Context(), q, f, o)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]searchResultItem, len(results))
	for i := range results {
		items[i] = resultToItem(&results[i])
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Items: items,
		Total: len(items),
	})
}

// HealthCheck handles GET /healthz.
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

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrTenantRequired,
		domain.ErrValidation,
		domain.ErrDocumentNotFound,
		domain.ErrSearchTimeout,
		domain.ErrProviderUnavailable,
		domain.ErrProviderRejected,
		domain.ErrProvider,
		domain.ErrStore,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// indexingFailedHandler handles IndexingFailedError with batch failure details.
func indexingFailedHandler(w http.ResponseWriter, err error, msg string) bool {
	var ife *domain.IndexingFailedError
	if !errors.As(err, &ife) {
		return false
	}
	writeJSON(w, http.StatusBadGateway, map[string]any{
		"code":             codeIndexingFailed,
		"message":          msg,
		"document_id":      ife.DocumentID,
		"failed_batches":   ife.FailedBatches,
		"total_batches":    ife.TotalBatches,
		"failed_chunk_ids": ife.FailedChunkIDs,
	})
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
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
