// Package vector persists embedded chunks and serves KNN candidate retrieval.
package vector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docpipe/internal/db"
	"github.com/kailas-cloud/docpipe/internal/domain"
	"github.com/kailas-cloud/docpipe/internal/domain/index"
	"github.com/kailas-cloud/docpipe/internal/domain/search/filters"
	"github.com/kailas-cloud/docpipe/internal/domain/search/result"
)

// IndexName is the FT index over stored chunk hashes.
const IndexName = "docpipe_chunks"

const keyPrefix = domain.KeyPrefix + "chunk:"

// store is the consumer interface for the chunk store (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	DelMulti(ctx context.Context, keys []string) (int, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo implements the vector store adapter over hash keys and an HNSW index.
type Repo struct {
	store      store
	dimensions int
	hnswM      int
	hnswEF     int
	logger     *zap.Logger
}

// Config holds vector repository settings.
type Config struct {
	Dimensions      int
	HNSWM           int
	HNSWEFConstruct int
	Logger          *zap.Logger
}

// New creates a vector repository.
func New(s store, cfg *Config) *Repo {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{
		store:      s,
		dimensions: cfg.Dimensions,
		hnswM:      cfg.HNSWM,
		hnswEF:     cfg.HNSWEFConstruct,
		logger:     logger,
	}
}

// EnsureIndex creates the chunk FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, IndexName)
	if err != nil {
		return fmt.Errorf("check index %s: %w", IndexName, err)
	}
	if exists {
		return nil
	}

	def, err := db.NewIndex(IndexName).
		Prefix(keyPrefix).
		Tag(fieldTenantID).
		Tag(fieldDocumentID).
		TagWithSeparator(fieldCategory, keywordSeparator).
		TagWithSeparator(fieldKeywords, keywordSeparator).
		Numeric(fieldSeq).
		Numeric(fieldIndexedAt).
		VectorHNSW(fieldVector, r.dimensions, db.DistanceCosine, r.hnswM, r.hnswEF).
		Build()
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index %s: %w", IndexName, err)
	}

	r.logger.Info("chunk index created",
		zap.String("index", IndexName),
		zap.Int("dimensions", r.dimensions))
	return nil
}

// StoreBatch persists a batch of embedding records in one pipelined write.
// Keys are deterministic per (tenant, document, sequence), so re-indexing a
// document overwrites its prior chunks.
func (r *Repo) StoreBatch(ctx context.Context, records []index.Record) error {
	if len(records) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, 0, len(records))
	for i := range records {
		rec := &records[i]
		if len(rec.Vector()) != r.dimensions {
			return fmt.Errorf("%w: chunk %s vector has %d dimensions, index expects %d",
				domain.ErrValidation, rec.ChunkID(), len(rec.Vector()), r.dimensions)
		}
		ch := rec.Chunk()
		items = append(items, db.HashSetItem{
			Key:    chunkKey(rec.TenantID(), rec.DocumentID(), ch.SequenceIndex()),
			Fields: buildHashFields(rec),
		})
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("%w: store %d chunks: %w", domain.ErrStore, len(items), err)
	}
	return nil
}

// Query runs a filtered KNN search and returns up to k scoring candidates.
// The tenant filter is applied by the store before ranking, never after.
func (r *Repo) Query(ctx context.Context, vec []float32, f filters.Filters, k int) ([]result.Candidate, error) {
	if len(vec) != r.dimensions {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index expects %d",
			domain.ErrValidation, len(vec), r.dimensions)
	}

	q := &db.KNNQuery{
		IndexName: IndexName,
		Tags: []db.TagFilter{
			{Field: fieldTenantID, AnyOf: []string{f.TenantID()}},
		},
		Vector: vec,
		K:      k,
		ReturnFields: []string{
			fieldDocumentID, fieldChunkID, fieldSeq, fieldText, fieldKeywords, fieldScore,
		},
	}
	if ids := f.DocumentIDs(); len(ids) > 0 {
		q.Tags = append(q.Tags, db.TagFilter{Field: fieldDocumentID, AnyOf: ids})
	}
	if cats := f.Categories(); len(cats) > 0 {
		q.Tags = append(q.Tags, db.TagFilter{Field: fieldCategory, AnyOf: cats})
	}
	if dr := f.DateRange(); !dr.IsZero() {
		rf := db.RangeFilter{Field: fieldIndexedAt}
		if !dr.From.IsZero() {
			rf.Min = unixOrZero(dr.From)
			rf.HasMin = true
		}
		if !dr.To.IsZero() {
			rf.Max = unixOrZero(dr.To)
			rf.HasMax = true
		}
		q.Ranges = append(q.Ranges, rf)
	}

	res, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: knn search: %w", domain.ErrStore, err)
	}

	candidates := make([]result.Candidate, 0, len(res.Entries))
	for _, entry := range res.Entries {
		candidates = append(candidates, parseCandidate(entry.Fields, entry.Score))
	}
	return candidates, nil
}

// DeleteDocument removes every chunk of a document. Idempotent: deleting a
// document with no stored chunks returns zero without error.
func (r *Repo) DeleteDocument(ctx context.Context, tenantID, documentID string) (int, error) {
	pattern := chunkKeyPrefix(tenantID, documentID) + "*"

	keys, err := r.store.Scan(ctx, pattern)
	if err != nil {
		return 0, fmt.Errorf("%w: scan %s: %w", domain.ErrStore, pattern, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	deleted, err := r.store.DelMulti(ctx, keys)
	if err != nil {
		return 0, fmt.Errorf("%w: delete %d chunks: %w", domain.ErrStore, len(keys), err)
	}
	return deleted, nil
}

// CountChunks returns the number of stored chunks for a tenant.
func (r *Repo) CountChunks(ctx context.Context, tenantID string) (int, error) {
	query := fmt.Sprintf("@%s:{%s}", fieldTenantID, tenantID)
	n, err := r.store.SearchCount(ctx, IndexName, query)
	if err != nil {
		return 0, fmt.Errorf("%w: count chunks: %w", domain.ErrStore, err)
	}
	return n, nil
}

// chunkKey builds the hash key for one chunk. Colons delimit the parts;
// identifiers cannot contain colons, so prefix scans stay unambiguous.
func chunkKey(tenantID, documentID string, seq int) string {
	return fmt.Sprintf("%s%d", chunkKeyPrefix(tenantID, documentID), seq)
}

func chunkKeyPrefix(tenantID, documentID string) string {
	return fmt.Sprintf("%s%s:%s:", keyPrefix, tenantID, documentID)
}
