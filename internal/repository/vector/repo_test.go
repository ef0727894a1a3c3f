package vector

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/kailas-cloud/docpipe/internal/db"
	"github.com/kailas-cloud/docpipe/internal/domain"
	"github.com/kailas-cloud/docpipe/internal/domain/chunk"
	"github.com/kailas-cloud/docpipe/internal/domain/index"
	"github.com/kailas-cloud/docpipe/internal/domain/search/filters"
)

// --- StoreBatch ---

func TestStoreBatch_WritesDeterministicKeys(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	var gotItems []db.HashSetItem
	ms.hsetMultiFn = func(_ context.Context, items []db.HashSetItem) error {
		gotItems = items
		return nil
	}

	records := []index.Record{
		testRecord(t, "acme", "doc-1", 0),
		testRecord(t, "acme", "doc-1", 1),
	}
	if err := repo.StoreBatch(ctx, records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(gotItems) != 2 {
		t.Fatalf("expected 2 items, got %d", len(gotItems))
	}
	if gotItems[0].Key != "docpipe:chunk:acme:doc-1:0" {
		t.Errorf("unexpected key: %s", gotItems[0].Key)
	}
	if gotItems[1].Key != "docpipe:chunk:acme:doc-1:1" {
		t.Errorf("unexpected key: %s", gotItems[1].Key)
	}

	fields := gotItems[0].Fields
	if fields[fieldTenantID] != "acme" {
		t.Errorf("tenant_id = %q, expected acme", fields[fieldTenantID])
	}
	if fields[fieldChunkID] != "doc-1_0" {
		t.Errorf("chunk_id = %q, expected doc-1_0", fields[fieldChunkID])
	}
	if fields[fieldVector] == "" {
		t.Error("expected serialized vector field")
	}
	if len(fields[fieldVector]) != 4*4 {
		t.Errorf("vector field length = %d, expected 16", len(fields[fieldVector]))
	}
}

func TestStoreBatch_RejectsDimensionMismatch(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	c, err := chunk.New("doc-1", 0, "hello world", 0, 11, nil)
	if err != nil {
		t.Fatalf("build chunk: %v", err)
	}
	rec := index.NewRecord("acme", "doc-1", c, []float32{0.1, 0.2}, nil, time.Unix(1700000000, 0))

	err = repo.StoreBatch(ctx, []index.Record{rec}) // index expects 4 dims
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestStoreBatch_Empty(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hsetMultiFn = func(_ context.Context, _ []db.HashSetItem) error {
		t.Fatal("HSetMulti must not be called for an empty batch")
		return nil
	}
	if err := repo.StoreBatch(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- Query ---

func TestQuery_TenantFilterAlwaysPresent(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	var gotQuery *db.KNNQuery
	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		gotQuery = q
		return &db.SearchResult{}, nil
	}

	f, err := filters.New("acme", nil, nil, filters.DateRange{})
	if err != nil {
		t.Fatalf("build filters: %v", err)
	}

	if _, err := repo.Query(ctx, []float32{0.1, 0.2, 0.3, 0.4}, f, 30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotQuery == nil {
		t.Fatal("SearchKNN was not called")
	}
	if gotQuery.IndexName != IndexName {
		t.Errorf("index = %q, expected %q", gotQuery.IndexName, IndexName)
	}
	if len(gotQuery.Tags) != 1 || gotQuery.Tags[0].Field != fieldTenantID {
		t.Fatalf("expected a single tenant tag filter, got %+v", gotQuery.Tags)
	}
	if gotQuery.Tags[0].AnyOf[0] != "acme" {
		t.Errorf("tenant filter value = %q, expected acme", gotQuery.Tags[0].AnyOf[0])
	}
	if gotQuery.K != 30 {
		t.Errorf("K = %d, expected 30", gotQuery.K)
	}
}

func TestQuery_AppliesDocumentAndCategoryFilters(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	var gotQuery *db.KNNQuery
	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		gotQuery = q
		return &db.SearchResult{}, nil
	}

	f, err := filters.New("acme", []string{"doc-1", "doc-2"}, []string{"security"}, filters.DateRange{})
	if err != nil {
		t.Fatalf("build filters: %v", err)
	}

	if _, err := repo.Query(ctx, []float32{0.1, 0.2, 0.3, 0.4}, f, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(gotQuery.Tags) != 3 {
		t.Fatalf("expected tenant+document+category tags, got %+v", gotQuery.Tags)
	}
	if gotQuery.Tags[1].Field != fieldDocumentID || len(gotQuery.Tags[1].AnyOf) != 2 {
		t.Errorf("unexpected document filter: %+v", gotQuery.Tags[1])
	}
	if gotQuery.Tags[2].Field != fieldCategory || gotQuery.Tags[2].AnyOf[0] != "security" {
		t.Errorf("unexpected category filter: %+v", gotQuery.Tags[2])
	}
}

func TestQuery_RequestsVectorScoreField(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	// Behaves like the server: only fields named in the RETURN clause come
	// back, and the score entry is populated only when its field was asked for.
	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		requested := make(map[string]bool, len(q.ReturnFields))
		for _, f := range q.ReturnFields {
			requested[f] = true
		}
		entry := db.SearchEntry{
			Key:    "docpipe:chunk:acme:doc-1:0",
			Fields: map[string]string{},
		}
		stored := map[string]string{
			fieldDocumentID: "doc-1",
			fieldChunkID:    "doc-1_0",
			fieldSeq:        "0",
			fieldText:       "retention policy",
		}
		for k, v := range stored {
			if requested[k] {
				entry.Fields[k] = v
			}
		}
		if requested[fieldScore] {
			entry.Score = 0.88
		}
		return &db.SearchResult{Total: 1, Entries: []db.SearchEntry{entry}}, nil
	}

	f, err := filters.New("acme", nil, nil, filters.DateRange{})
	if err != nil {
		t.Fatalf("build filters: %v", err)
	}

	cands, err := repo.Query(ctx, []float32{0.1, 0.2, 0.3, 0.4}, f, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
	if cands[0].VectorScore() != 0.88 {
		t.Fatalf("vector score = %f, expected 0.88: score field missing from RETURN clause",
			cands[0].VectorScore())
	}
	if cands[0].Text() != "retention policy" {
		t.Errorf("text = %q, content fields missing from RETURN clause", cands[0].Text())
	}
}

func TestQuery_ParsesCandidates(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return &db.SearchResult{
			Total: 1,
			Entries: []db.SearchEntry{{
				Key:   "docpipe:chunk:acme:doc-1:2",
				Score: 0.91,
				Fields: map[string]string{
					fieldDocumentID: "doc-1",
					fieldChunkID:    "doc-1_2",
					fieldSeq:        strconv.Itoa(2),
					fieldText:       "encryption at rest",
					fieldKeywords:   "encryption,security",
				},
			}},
		}, nil
	}

	f, err := filters.New("acme", nil, nil, filters.DateRange{})
	if err != nil {
		t.Fatalf("build filters: %v", err)
	}

	cands, err := repo.Query(ctx, []float32{0.1, 0.2, 0.3, 0.4}, f, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}

	c := cands[0]
	if c.ChunkID() != "doc-1_2" || c.SequenceIndex() != 2 {
		t.Errorf("unexpected identity: %s seq %d", c.ChunkID(), c.SequenceIndex())
	}
	if c.VectorScore() != 0.91 {
		t.Errorf("vector score = %f, expected 0.91", c.VectorScore())
	}
	if len(c.Keywords()) != 2 || c.Keywords()[0] != "encryption" {
		t.Errorf("unexpected keywords: %v", c.Keywords())
	}
}

func TestQuery_RejectsDimensionMismatch(t *testing.T) {
	repo, _ := newTestRepo(t)

	f, err := filters.New("acme", nil, nil, filters.DateRange{})
	if err != nil {
		t.Fatalf("build filters: %v", err)
	}

	_, err = repo.Query(context.Background(), []float32{0.1}, f, 10)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

// --- DeleteDocument ---

func TestDeleteDocument_ScansTenantScopedPrefix(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	ms.scanFn = func(_ context.Context, pattern string) ([]string, error) {
		if pattern != "docpipe:chunk:acme:doc-1:*" {
			t.Errorf("unexpected scan pattern: %s", pattern)
		}
		return []string{
			"docpipe:chunk:acme:doc-1:0",
			"docpipe:chunk:acme:doc-1:1",
		}, nil
	}
	ms.delMultiFn = func(_ context.Context, keys []string) (int, error) {
		return len(keys), nil
	}

	deleted, err := repo.DeleteDocument(ctx, "acme", "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", deleted)
	}
}

func TestDeleteDocument_Idempotent(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.scanFn = func(_ context.Context, _ string) ([]string, error) { return nil, nil }
	ms.delMultiFn = func(_ context.Context, _ []string) (int, error) {
		t.Fatal("DelMulti must not be called when nothing matched")
		return 0, nil
	}

	deleted, err := repo.DeleteDocument(context.Background(), "acme", "ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("expected 0 deleted, got %d", deleted)
	}
}

// --- EnsureIndex ---

func TestEnsureIndex_SkipsExisting(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.indexExistsFn = func(_ context.Context, name string) (bool, error) {
		if name != IndexName {
			t.Errorf("unexpected index name: %s", name)
		}
		return true, nil
	}
	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		t.Fatal("CreateIndex must not be called when the index exists")
		return nil
	}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureIndex_CreatesSchema(t *testing.T) {
	repo, ms := newTestRepo(t)

	var gotDef *db.IndexDefinition
	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		gotDef = def
		return nil
	}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotDef == nil {
		t.Fatal("CreateIndex was not called")
	}
	if gotDef.Prefixes[0] != keyPrefix {
		t.Errorf("unexpected prefix: %v", gotDef.Prefixes)
	}

	var hasVector bool
	for _, f := range gotDef.Fields {
		if f.Type == db.IndexFieldVector {
			hasVector = true
			if f.VectorDim != 4 {
				t.Errorf("vector dim = %d, expected 4", f.VectorDim)
			}
			if f.VectorDistance != db.DistanceCosine {
				t.Errorf("distance = %s, expected cosine", f.VectorDistance)
			}
		}
	}
	if !hasVector {
		t.Error("index definition has no vector field")
	}
}
