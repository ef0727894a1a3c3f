package search

import (
	"context"

	"github.com/kailas-cloud/docpipe/internal/domain"
	"github.com/kailas-cloud/docpipe/internal/domain/search/filters"
	"github.com/kailas-cloud/docpipe/internal/domain/search/result"
)

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// CandidateSearcher retrieves the KNN candidate pool for a query vector.
type CandidateSearcher interface {
	Query(ctx context.Context, vec []float32, f filters.Filters, k int) ([]result.Candidate, error)
}

// ResultCache caches ranked result sets and serves stale reads on timeout.
type ResultCache interface {
	Get(key string) ([]result.Hybrid, bool)
	GetStale(key string) ([]result.Hybrid, bool)
	Put(key, normalizedQuery string, results []result.Hybrid)
}
