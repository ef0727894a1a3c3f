package search

import (
	"context"
	"os"
	"testing"

	"github.com/kailas-cloud/docpipe/internal/domain"
	"github.com/kailas-cloud/docpipe/internal/domain/search/filters"
	"github.com/kailas-cloud/docpipe/internal/domain/search/options"
	"github.com/kailas-cloud/docpipe/internal/domain/search/query"
	"github.com/kailas-cloud/docpipe/internal/domain/search/result"
	"github.com/kailas-cloud/docpipe/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

// mockEmbedder implements Embedder for tests.
type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
	calls   int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}, TotalTokens: 5}, nil
}

// mockSearcher implements CandidateSearcher for tests.
type mockSearcher struct {
	queryFn func(ctx context.Context, vec []float32, f filters.Filters, k int) ([]result.Candidate, error)
}

func (m *mockSearcher) Query(
	ctx context.Context, vec []float32, f filters.Filters, k int,
) ([]result.Candidate, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, vec, f, k)
	}
	return nil, nil
}

// mockCache implements ResultCache for tests.
type mockCache struct {
	entries map[string][]result.Hybrid
	puts    int
}

func newMockCache() *mockCache {
	return &mockCache{entries: map[string][]result.Hybrid{}}
}

func (m *mockCache) Get(key string) ([]result.Hybrid, bool) {
	r, ok := m.entries[key]
	return r, ok
}

func (m *mockCache) GetStale(key string) ([]result.Hybrid, bool) {
	r, ok := m.entries["stale:"+key]
	return r, ok
}

func (m *mockCache) Put(key, _ string, results []result.Hybrid) {
	m.puts++
	m.entries[key] = results
}

func newTestService(t *testing.T) (*Service, *mockEmbedder, *mockSearcher, *mockCache) {
	t.Helper()
	emb := &mockEmbedder{}
	repo := &mockSearcher{}
	cache := newMockCache()
	svc := New(emb, repo, cache, &Config{})
	return svc, emb, repo, cache
}

func testQuery(t *testing.T, raw string) query.Query {
	t.Helper()
	q, err := query.New(raw)
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	return q
}

func testFilters(t *testing.T) filters.Filters {
	t.Helper()
	f, err := filters.New("acme", nil, nil, filters.DateRange{})
	if err != nil {
		t.Fatalf("build filters: %v", err)
	}
	return f
}

func hybridOptions(t *testing.T, topK int, minScore float64) options.Options {
	t.Helper()
	o, err := options.New(topK, minScore, true, 0.7, 0.3)
	if err != nil {
		t.Fatalf("build options: %v", err)
	}
	return o
}

// candidate builds a scoring candidate with the given text and keywords.
func candidate(chunkID string, seq int, text string, vectorScore float64, keywords ...string) result.Candidate {
	base := result.New("doc-1", chunkID, seq, text, vectorScore)
	return result.NewCandidate(base, keywords)
}

func candidates(cs ...result.Candidate) []result.Candidate { return cs }
