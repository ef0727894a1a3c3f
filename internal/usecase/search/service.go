// Package search implements the read path: query embedding, filtered KNN
// retrieval, keyword scoring and score fusion.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docpipe/internal/domain"
	"github.com/kailas-cloud/docpipe/internal/domain/search/filters"
	"github.com/kailas-cloud/docpipe/internal/domain/search/options"
	"github.com/kailas-cloud/docpipe/internal/domain/search/query"
	"github.com/kailas-cloud/docpipe/internal/domain/search/result"
	"github.com/kailas-cloud/docpipe/internal/logger"
	"github.com/kailas-cloud/docpipe/internal/metrics"
)

// Search defaults.
const (
	DefaultDeadline = 5 * time.Second

	// DefaultCandidateMultiplier sizes the KNN candidate pool relative to
	// topK so keyword fusion reorders over a wider net.
	DefaultCandidateMultiplier = 3
)

// Service handles hybrid and vector-only search.
type Service struct {
	embed Embedder
	repo  CandidateSearcher
	cache ResultCache

	deadline      time.Duration
	candidateMult int

	now func() time.Time
}

// Config holds search service settings. Zero fields take defaults.
type Config struct {
	Deadline            time.Duration
	CandidateMultiplier int
}

// New creates a search service.
func New(embed Embedder, repo CandidateSearcher, cache ResultCache, cfg *Config) *Service {
	s := &Service{
		embed:         embed,
		repo:          repo,
		cache:         cache,
		deadline:      cfg.Deadline,
		candidateMult: cfg.CandidateMultiplier,
		now:           time.Now,
	}
	if s.deadline <= 0 {
		s.deadline = DefaultDeadline
	}
	if s.candidateMult <= 0 {
		s.candidateMult = DefaultCandidateMultiplier
	}
	return s
}

// Search runs a query under the configured deadline and returns results
// ranked descending by fused score. On a deadline overrun it falls back to a
// stale cached result set; ErrSearchTimeout surfaces only when none exists.
func (s *Service) Search(
	ctx context.Context, q query.Query, f filters.Filters, o options.Options,
) ([]result.Hybrid, error) {
	key := q.CacheKey(f, o)
	log := logger.FromContext(ctx).With(
		zap.String("tenant_id", f.TenantID()),
		zap.Bool("hybrid", o.Hybrid()))
	start := s.now()

	if cached, ok := s.cache.Get(key); ok {
		log.Debug("search served from cache", zap.Int("results", len(cached)))
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()

	emb, err := s.embed.Embed(ctx, q.Raw())
	if err != nil {
		if timedOut(ctx, err) {
			return s.staleFallback(key, log)
		}
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	k := o.TopK() * s.candidateMult
	cands, err := s.repo.Query(ctx, emb.Embedding, f, k)
	if err != nil {
		if timedOut(ctx, err) {
			return s.staleFallback(key, log)
		}
		return nil, fmt.Errorf("knn candidates: %w", err)
	}

	results := s.rank(q, o, cands)

	s.cache.Put(key, q.Normalized(), results)

	metrics.SearchDuration.WithLabelValues(mode(o)).Observe(s.now().Sub(start).Seconds())
	log.Info("search completed",
		zap.Int("candidates", len(cands)),
		zap.Int("results", len(results)),
		zap.Int("query_tokens", emb.TotalTokens),
		zap.Duration("elapsed", s.now().Sub(start)))
	return results, nil
}

// rank scores, fuses, sorts and truncates the candidate pool.
func (s *Service) rank(q query.Query, o options.Options, cands []result.Candidate) []result.Hybrid {
	var sparse []scored
	if o.Hybrid() {
		sparse = scoreKeywords(extractTerms(q.Normalized()), q.Normalized(), cands)
	}

	results := make([]result.Hybrid, 0, len(cands))
	for i := range cands {
		var kwScore float64
		var matched []string
		if sparse != nil {
			kwScore = sparse[i].keywordScore
			matched = sparse[i].matched
		}

		fused := cands[i].VectorScore()
		if o.Hybrid() {
			fused = o.VectorWeight()*cands[i].VectorScore() + o.KeywordWeight()*kwScore
		}
		if fused > 1 {
			fused = 1
		}
		if fused < o.MinScore() {
			continue
		}
		results = append(results, result.NewHybrid(cands[i].Result, kwScore, fused, matched))
	}

	sort.SliceStable(results, func(a, b int) bool {
		if results[a].FusedScore() != results[b].FusedScore() {
			return results[a].FusedScore() > results[b].FusedScore()
		}
		return results[a].VectorScore() > results[b].VectorScore()
	})

	if len(results) > o.TopK() {
		results = results[:o.TopK()]
	}
	return results
}

// staleFallback serves an expired cache entry after a timeout, or surfaces
// ErrSearchTimeout when the cache has nothing.
func (s *Service) staleFallback(key string, log *zap.Logger) ([]result.Hybrid, error) {
	metrics.SearchTimeoutsTotal.Inc()
	if stale, ok := s.cache.GetStale(key); ok {
		log.Warn("search deadline exceeded, serving stale cached results",
			zap.Int("results", len(stale)))
		return stale, nil
	}
	return nil, domain.ErrSearchTimeout
}

func timedOut(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(ctx.Err(), context.DeadlineExceeded)
}

func mode(o options.Options) string {
	if o.Hybrid() {
		return "hybrid"
	}
	return "vector"
}
