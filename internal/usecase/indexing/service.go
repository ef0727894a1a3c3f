// Package indexing implements the document write path: segmentation, batch
// embedding and persistence.
package indexing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/docpipe/internal/domain"
	"github.com/kailas-cloud/docpipe/internal/domain/chunk"
	"github.com/kailas-cloud/docpipe/internal/domain/index"
	"github.com/kailas-cloud/docpipe/internal/logger"
	"github.com/kailas-cloud/docpipe/internal/metrics"
)

// Batch embedding defaults.
const (
	DefaultBatchSize    = 100
	DefaultBatchTimeout = 30 * time.Second
	DefaultWorkers      = 4

	// preflightPercent shrinks the provider's per-item token limit to absorb
	// the token estimate's error margin.
	preflightPercent = 90

	maxBatchAttempts = 3
	retryBaseDelay   = 500 * time.Millisecond
)

// Command describes one document to index.
type Command struct {
	TenantID       string
	DocumentID     string
	Text           string
	Categories     []string
	Chunking       chunk.Config
	ForceReprocess bool
}

// Summary reports the outcome of indexing one document.
type Summary struct {
	DocumentID     string
	JobID          string
	TotalChunks    int
	StoredChunks   int
	FailedChunkIDs []string
	PartialFailure bool
	TokensUsed     int
	Model          string
}

// Service handles document indexing and deletion.
type Service struct {
	seg   Segmenter
	embed Embedder
	store VectorStore
	cache CacheInvalidator

	model          string
	dimensions     int
	batchSize      int
	batchTimeout   time.Duration
	maxItemTokens  int
	workers        int

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// Config holds indexing service settings. Zero fields take defaults.
type Config struct {
	Model         string
	Dimensions    int
	BatchSize     int
	BatchTimeout  time.Duration
	MaxItemTokens int
	Workers       int
}

// New creates an indexing service.
func New(seg Segmenter, embed Embedder, store VectorStore, cache CacheInvalidator, cfg *Config) *Service {
	s := &Service{
		seg:           seg,
		embed:         embed,
		store:         store,
		cache:         cache,
		model:         cfg.Model,
		dimensions:    cfg.Dimensions,
		batchSize:     cfg.BatchSize,
		batchTimeout:  cfg.BatchTimeout,
		maxItemTokens: cfg.MaxItemTokens,
		workers:       cfg.Workers,
		now:           time.Now,
		sleep:         sleepCtx,
	}
	if s.batchSize <= 0 {
		s.batchSize = DefaultBatchSize
	}
	if s.batchTimeout <= 0 {
		s.batchTimeout = DefaultBatchTimeout
	}
	if s.workers <= 0 {
		s.workers = DefaultWorkers
	}
	return s
}

// embedItem is one text going to the provider, tied back to its parent chunk.
// Oversized chunks are re-split pre-flight into several items.
type embedItem struct {
	parent int // index into the chunk slice
	text   string
}

// IndexDocument segments, embeds and stores one document. Individual batch
// failures degrade to a partial result; the document as a whole fails only
// when more than half of its batches fail.
func (s *Service) IndexDocument(ctx context.Context, cmd *Command) (Summary, error) {
	if err := domain.ValidateTenantID(cmd.TenantID); err != nil {
		return Summary{}, err
	}
	if err := domain.ValidateDocumentID(cmd.DocumentID); err != nil {
		return Summary{}, err
	}

	jobID := uuid.NewString()
	log := logger.FromContext(ctx).With(
		zap.String("job_id", jobID),
		zap.String("document_id", cmd.DocumentID),
		zap.String("tenant_id", cmd.TenantID),
	)
	start := s.now()

	if cmd.ForceReprocess {
		deleted, err := s.store.DeleteDocument(ctx, cmd.TenantID, cmd.DocumentID)
		if err != nil {
			return Summary{}, fmt.Errorf("reprocess delete: %w", err)
		}
		log.Info("reprocessing document", zap.Int("chunks_deleted", deleted))
	}

	chunks, err := s.seg.Segment(cmd.DocumentID, cmd.Text, cmd.Chunking)
	if err != nil {
		return Summary{}, fmt.Errorf("segment document: %w", err)
	}
	if len(chunks) == 0 {
		return Summary{DocumentID: cmd.DocumentID, JobID: jobID, Model: s.model}, nil
	}

	items := s.preflight(chunks)
	batches := sliceBatches(len(items), s.batchSize)

	vectors := make([][]float32, len(chunks))
	failedBatches := 0
	tokensUsed := 0

	for bi, b := range batches {
		texts := make([]string, 0, b.end-b.start)
		for _, it := range items[b.start:b.end] {
			texts = append(texts, it.text)
		}

		res, err := s.embedBatch(ctx, texts)
		if err != nil {
			if ctx.Err() != nil {
				return Summary{}, fmt.Errorf("indexing canceled: %w", ctx.Err())
			}
			failedBatches++
			log.Warn("embedding batch failed",
				zap.Int("batch", bi),
				zap.Int("batch_count", len(batches)),
				zap.Error(err))
			continue
		}

		tokensUsed += res.TotalTokens
		for i, it := range items[b.start:b.end] {
			// An oversized chunk keeps the vector of its first embedded piece.
			if vectors[it.parent] == nil {
				vectors[it.parent] = res.Embeddings[i]
			}
		}
	}

	var failedChunkIDs []string
	records := make([]index.Record, 0, len(chunks))
	indexedAt := s.now()
	for i, c := range chunks {
		if vectors[i] == nil {
			failedChunkIDs = append(failedChunkIDs, c.ID())
			continue
		}
		records = append(records, index.NewRecord(
			cmd.TenantID, cmd.DocumentID, c, vectors[i], cmd.Categories, indexedAt,
		))
	}

	if failedBatches*2 > len(batches) {
		metrics.IndexedChunksTotal.WithLabelValues("failed").Add(float64(len(chunks)))
		return Summary{}, &domain.IndexingFailedError{
			DocumentID:     cmd.DocumentID,
			TenantID:       cmd.TenantID,
			FailedBatches:  failedBatches,
			TotalBatches:   len(batches),
			FailedChunkIDs: failedChunkIDs,
		}
	}

	if err := s.store.StoreBatch(ctx, records); err != nil {
		return Summary{}, fmt.Errorf("store chunks: %w", err)
	}
	s.cache.Invalidate()

	set := index.NewSet(cmd.DocumentID, s.model, s.dimensions, records, failedChunkIDs)

	metrics.IndexedChunksTotal.WithLabelValues("stored").Add(float64(len(records)))
	metrics.IndexedChunksTotal.WithLabelValues("failed").Add(float64(len(failedChunkIDs)))
	metrics.IndexingDuration.Observe(s.now().Sub(start).Seconds())

	log.Info("document indexed",
		zap.Int("total_chunks", set.TotalChunks()),
		zap.Int("stored_chunks", len(records)),
		zap.Int("failed_chunks", len(failedChunkIDs)),
		zap.Int("batches", len(batches)),
		zap.Int("tokens_used", tokensUsed),
		zap.Duration("elapsed", s.now().Sub(start)))

	return Summary{
		DocumentID:     cmd.DocumentID,
		JobID:          jobID,
		TotalChunks:    set.TotalChunks(),
		StoredChunks:   len(records),
		FailedChunkIDs: set.FailedChunkIDs(),
		PartialFailure: set.PartialFailure(),
		TokensUsed:     tokensUsed,
		Model:          s.model,
	}, nil
}

// IndexDocuments indexes several documents concurrently. Each document
// succeeds or fails on its own; the first hard error cancels the rest.
func (s *Service) IndexDocuments(ctx context.Context, cmds []*Command) ([]Summary, error) {
	summaries := make([]Summary, len(cmds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, cmd := range cmds {
		g.Go(func() error {
			sum, err := s.IndexDocument(gctx, cmd)
			if err != nil {
				return fmt.Errorf("document %s: %w", cmd.DocumentID, err)
			}
			summaries[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// DeleteDocument removes every stored chunk of a document. Idempotent.
func (s *Service) DeleteDocument(ctx context.Context, tenantID, documentID string) (int, error) {
	if err := domain.ValidateTenantID(tenantID); err != nil {
		return 0, err
	}
	if err := domain.ValidateDocumentID(documentID); err != nil {
		return 0, err
	}

	deleted, err := s.store.DeleteDocument(ctx, tenantID, documentID)
	if err != nil {
		return 0, fmt.Errorf("delete document: %w", err)
	}
	if deleted > 0 {
		s.cache.Invalidate()
	}

	logger.FromContext(ctx).Info("document deleted",
		zap.String("document_id", documentID),
		zap.String("tenant_id", tenantID),
		zap.Int("chunks_deleted", deleted))
	return deleted, nil
}

// preflight turns chunks into embed items, re-splitting any chunk whose token
// estimate exceeds the provider limit headroom.
func (s *Service) preflight(chunks []chunk.Chunk) []embedItem {
	limit := 0
	if s.maxItemTokens > 0 {
		limit = s.maxItemTokens * preflightPercent / 100
	}

	items := make([]embedItem, 0, len(chunks))
	for i, c := range chunks {
		if limit > 0 && c.TokenEstimate() > limit {
			for _, piece := range s.splitToFit(c.Text(), limit) {
				items = append(items, embedItem{parent: i, text: piece})
			}
			continue
		}
		items = append(items, embedItem{parent: i, text: c.Text()})
	}
	return items
}

// splitToFit re-splits a text under the token limit and re-validates every
// produced piece. Re-estimation over a joined piece can land marginally over
// the target, so oversized pieces get one tighter pass; anything still over
// is dropped rather than sent past the provider limit.
func (s *Service) splitToFit(text string, limit int) []string {
	pieces := s.seg.SplitText(text, limit)
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if chunk.EstimateTokens(p) <= limit {
			out = append(out, p)
			continue
		}
		for _, q := range s.seg.SplitText(p, limit*preflightPercent/100) {
			if chunk.EstimateTokens(q) <= limit {
				out = append(out, q)
			}
		}
	}
	return out
}

// embedBatch runs one provider call with a per-batch timeout, retrying
// transient failures with exponential backoff. Terminal provider errors are
// returned immediately.
func (s *Service) embedBatch(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	var lastErr error
	delay := retryBaseDelay

	for attempt := 1; attempt <= maxBatchAttempts; attempt++ {
		bctx, cancel := context.WithTimeout(ctx, s.batchTimeout)
		res, err := s.embed.BatchEmbed(bctx, texts)
		cancel()
		if err == nil {
			return res, nil
		}
		lastErr = err

		retryable := errors.Is(err, domain.ErrProviderUnavailable) ||
			errors.Is(err, context.DeadlineExceeded)
		if !retryable || attempt == maxBatchAttempts {
			break
		}
		if err := s.sleep(ctx, delay); err != nil {
			return domain.BatchEmbeddingResult{}, err
		}
		delay *= 2
	}
	return domain.BatchEmbeddingResult{}, lastErr
}

// batchRange is a half-open [start, end) slice of the item list.
type batchRange struct {
	start, end int
}

func sliceBatches(n, size int) []batchRange {
	batches := make([]batchRange, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		batches = append(batches, batchRange{start: start, end: end})
	}
	return batches
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
