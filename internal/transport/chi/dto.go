package chi

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/docpipe/internal/domain"
	"github.com/kailas-cloud/docpipe/internal/domain/chunk"
	"github.com/kailas-cloud/docpipe/internal/domain/search/filters"
	"github.com/kailas-cloud/docpipe/internal/domain/search/options"
	"github.com/kailas-cloud/docpipe/internal/domain/search/result"
	indexinguc "github.com/kailas-cloud/docpipe/internal/usecase/indexing"
)

// errorCode identifies an error class in JSON responses.
type errorCode string

const (
	codeBadRequest       errorCode = "bad_request"
	codeValidationFailed errorCode = "validation_failed"
	codeTenantRequired   errorCode = "tenant_required"
	codeDocumentNotFound errorCode = "document_not_found"
	codeProviderError    errorCode = "embedding_provider_error"
	codeIndexingFailed   errorCode = "indexing_failed"
	codeSearchTimeout    errorCode = "search_timeout"
	codeStoreError       errorCode = "store_error"
	codeInternalError    errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type chunkingRequest struct {
	TargetTokens       int   `json:"target_tokens,omitempty"`
	OverlapTokens      int   `json:"overlap_tokens,omitempty"`
	MinTokens          int   `json:"min_tokens,omitempty"`
	PreserveBoundaries *bool `json:"preserve_boundaries,omitempty"`
	SemanticMode       *bool `json:"semantic_mode,omitempty"`
}

type indexDocumentRequest struct {
	DocumentID     string           `json:"document_id"`
	TenantID       string           `json:"tenant_id"`
	Text           string           `json:"text"`
	Categories     []string         `json:"categories,omitempty"`
	Chunking       *chunkingRequest `json:"chunking,omitempty"`
	ForceReprocess bool             `json:"force_reprocess,omitempty"`
}

type indexDocumentResponse struct {
	DocumentID     string   `json:"document_id"`
	JobID          string   `json:"job_id"`
	TotalChunks    int      `json:"total_chunks"`
	StoredChunks   int      `json:"stored_chunks"`
	FailedChunkIDs []string `json:"failed_chunk_ids,omitempty"`
	PartialFailure bool     `json:"partial_failure"`
	TokensUsed     int      `json:"tokens_used"`
	Model          string   `json:"model"`
}

type deleteDocumentResponse struct {
	DocumentID    string `json:"document_id"`
	DeletedChunks int    `json:"deleted_chunks"`
}

type searchFiltersRequest struct {
	DocumentIDs []string `json:"document_ids,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	DateFrom    string   `json:"date_from,omitempty"`
	DateTo      string   `json:"date_to,omitempty"`
}

type searchOptionsRequest struct {
	TopK          int     `json:"top_k,omitempty"`
	MinScore      float64 `json:"min_score,omitempty"`
	Hybrid        *bool   `json:"hybrid,omitempty"`
	VectorWeight  float64 `json:"vector_weight,omitempty"`
	KeywordWeight float64 `json:"keyword_weight,omitempty"`
}

type searchRequest struct {
	Query    string                `json:"query"`
	TenantID string                `json:"tenant_id"`
	Filters  *searchFiltersRequest `json:"filters,omitempty"`
	Options  *searchOptionsRequest `json:"options,omitempty"`
}

type searchResultItem struct {
	DocumentID    string   `json:"document_id"`
	ChunkID       string   `json:"chunk_id"`
	SequenceIndex int      `json:"seq"`
	Text          string   `json:"text"`
	VectorScore   float64  `json:"vector_score"`
	KeywordScore  float64  `json:"keyword_score"`
	FusedScore    float64  `json:"fused_score"`
	MatchedTerms  []string `json:"matched_terms,omitempty"`
}

type searchResponse struct {
	Items []searchResultItem `json:"items"`
	Total int                `json:"total"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func commandFromRequest(req indexDocumentRequest, def chunk.Config) *indexinguc.Command {
	cc := def
	if req.Chunking != nil {
		if req.Chunking.TargetTokens > 0 {
			cc.TargetTokens = req.Chunking.TargetTokens
		}
		if req.Chunking.OverlapTokens > 0 {
			cc.OverlapTokens = req.Chunking.OverlapTokens
		}
		if req.Chunking.MinTokens > 0 {
			cc.MinTokens = req.Chunking.MinTokens
		}
		cc.PreserveBoundaries = derefBool(req.Chunking.PreserveBoundaries, def.PreserveBoundaries)
		cc.SemanticMode = derefBool(req.Chunking.SemanticMode, def.SemanticMode)
	}

	return &indexinguc.Command{
		TenantID:       req.TenantID,
		DocumentID:     req.DocumentID,
		Text:           req.Text,
		Categories:     req.Categories,
		Chunking:       cc.WithDefaults(),
		ForceReprocess: req.ForceReprocess,
	}
}

func summaryToResponse(sum indexinguc.Summary) indexDocumentResponse {
	return indexDocumentResponse{
		DocumentID:     sum.DocumentID,
		JobID:          sum.JobID,
		TotalChunks:    sum.TotalChunks,
		StoredChunks:   sum.StoredChunks,
		FailedChunkIDs: sum.FailedChunkIDs,
		PartialFailure: sum.PartialFailure,
		TokensUsed:     sum.TokensUsed,
		Model:          sum.Model,
	}
}

func filtersFromRequest(tenantID string, req *searchFiltersRequest) (filters.Filters, error) {
	if req == nil {
		return filters.New(tenantID, nil, nil, filters.DateRange{})
	}

	var dr filters.DateRange
	var err error
	if dr.From, err = parseDate(req.DateFrom); err != nil {
		return filters.Filters{}, fmt.Errorf("date_from: %w", err)
	}
	if dr.To, err = parseDate(req.DateTo); err != nil {
		return filters.Filters{}, fmt.Errorf("date_to: %w", err)
	}

	return filters.New(tenantID, req.DocumentIDs, req.Categories, dr)
}

func optionsFromRequest(req *searchOptionsRequest, defVectorW, defKeywordW float64) (options.Options, error) {
	if req == nil {
		return options.New(0, 0, true, defVectorW, defKeywordW)
	}
	vw, kw := req.VectorWeight, req.KeywordWeight
	if vw == 0 && kw == 0 {
		vw, kw = defVectorW, defKeywordW
	}
	return options.New(
		req.TopK,
		req.MinScore,
		derefBool(req.Hybrid, true),
		vw,
		kw,
	)
}

func resultToItem(h *result.Hybrid) searchResultItem {
	return searchResultItem{
		DocumentID:    h.DocumentID(),
		ChunkID:       h.ChunkID(),
		SequenceIndex: h.SequenceIndex(),
		Text:          h.Text(),
		VectorScore:   h.VectorScore(),
		KeywordScore:  h.KeywordScore(),
		FusedScore:    h.FusedScore(),
		MatchedTerms:  h.MatchedTerms(),
	}
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: expected RFC3339 timestamp, got %q", domain.ErrValidation, s)
	}
	return t, nil
}

func derefBool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
