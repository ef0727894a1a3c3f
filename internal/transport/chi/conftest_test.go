package chi

import (
	"context"
	"net/http/httptest"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docpipe/internal/domain/search/filters"
	"github.com/kailas-cloud/docpipe/internal/domain/search/options"
	"github.com/kailas-cloud/docpipe/internal/domain/search/query"
	"github.com/kailas-cloud/docpipe/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/docpipe/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/docpipe/internal/usecase/indexing"
)

// --- Mocks ---

type mockIndexer struct {
	indexFn  func(ctx context.Context, cmd *indexinguc.Command) (indexinguc.Summary, error)
	deleteFn func(ctx context.Context, tenantID, documentID string) (int, error)
}

func (m *mockIndexer) IndexDocument(ctx context.Context, cmd *indexinguc.Command) (indexinguc.Summary, error) {
	return m.indexFn(ctx, cmd)
}

func (m *mockIndexer) DeleteDocument(ctx context.Context, tenantID, documentID string) (int, error) {
	return m.deleteFn(ctx, tenantID, documentID)
}

type mockSearcher struct {
	searchFn func(ctx context.Context, q query.Query, f filters.Filters, o options.Options) ([]result.Hybrid, error)
}

func (m *mockSearcher) Search(
	ctx context.Context, q query.Query, f filters.Filters, o options.Options,
) ([]result.Hybrid, error) {
	return m.searchFn(ctx, q, f, o)
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

// --- Helpers ---

func newTestServer(idx Indexer, srch Searcher, health HealthChecker) *httptest.Server {
	return serveHTTP(NewServer(idx, srch, health, zap.NewNop()))
}

func serveHTTP(s *Server) *httptest.Server {
	r := chirouter.NewRouter()
	s.Routes(r)
	return httptest.NewServer(r)
}
