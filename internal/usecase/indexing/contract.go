package indexing

import (
	"context"

	"github.com/kailas-cloud/docpipe/internal/domain"
	"github.com/kailas-cloud/docpipe/internal/domain/chunk"
	"github.com/kailas-cloud/docpipe/internal/domain/index"
)

// Segmenter splits document text into chunks.
type Segmenter interface {
	Segment(documentID, text string, cfg chunk.Config) ([]chunk.Chunk, error)
	SplitText(text string, targetTokens int) []string
}

// Embedder vectorizes batches of texts.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// VectorStore persists and removes embedded chunks.
type VectorStore interface {
	StoreBatch(ctx context.Context, records []index.Record) error
	DeleteDocument(ctx context.Context, tenantID, documentID string) (int, error)
}

// CacheInvalidator drops cached search results after corpus writes.
type CacheInvalidator interface {
	Invalidate()
}
