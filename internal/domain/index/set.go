// Package index defines the aggregate outcome of embedding a document.
package index

import (
	"sort"
	"time"

	"github.com/kailas-cloud/docpipe/internal/domain/chunk"
)

// Record is one embedded chunk ready for persistence: the chunk itself plus
// its tenancy, metadata and vector.
type Record struct {
	tenantID   string
	documentID string
	chunk      chunk.Chunk
	vector     []float32
	categories []string
	indexedAt  time.Time
}

// NewRecord creates an embedding record.
func NewRecord(tenantID, documentID string, c chunk.Chunk, vector []float32, categories []string, indexedAt time.Time) Record {
	return Record{
		tenantID:   tenantID,
		documentID: documentID,
		chunk:      c,
		vector:     vector,
		categories: categories,
		indexedAt:  indexedAt,
	}
}

// TenantID returns the owning tenant identifier.
func (r *Record) TenantID() string { return r.tenantID }

// DocumentID returns the owning document identifier.
func (r *Record) DocumentID() string { return r.documentID }

// ChunkID returns the owning chunk identifier.
func (r *Record) ChunkID() string { return r.chunk.ID() }

// Chunk returns the embedded chunk.
func (r *Record) Chunk() chunk.Chunk { return r.chunk }

// Vector returns the embedding vector.
func (r *Record) Vector() []float32 { return r.vector }

// Categories returns the document's category tags.
func (r *Record) Categories() []string { return r.categories }

// IndexedAt returns the time the record was embedded.
func (r *Record) IndexedAt() time.Time { return r.indexedAt }

// Set is the aggregate result of embedding one document.
//
// Invariants: PartialFailure() is true iff FailedChunkIDs() is non-empty, and
// TotalChunks() == len(Records()) + len(FailedChunkIDs()).
type Set struct {
	documentID  string
	model       string
	dimensions  int
	totalChunks int
	records     []Record
	failed      map[string]struct{}
}

// NewSet creates an embedding set from the per-chunk outcomes of an indexing
// run. records must hold one entry per successfully embedded chunk.
func NewSet(documentID, model string, dimensions int, records []Record, failedChunkIDs []string) Set {
	failed := make(map[string]struct{}, len(failedChunkIDs))
	for _, id := range failedChunkIDs {
		failed[id] = struct{}{}
	}
	return Set{
		documentID:  documentID,
		model:       model,
		dimensions:  dimensions,
		totalChunks: len(records) + len(failed),
		records:     records,
		failed:      failed,
	}
}

// DocumentID returns the document identifier.
func (s *Set) DocumentID() string { return s.documentID }

// Model returns the embedding model used.
func (s *Set) Model() string { return s.model }

// Dimensions returns the embedding dimensionality.
func (s *Set) Dimensions() int { return s.dimensions }

// TotalChunks returns the number of chunks the document produced,
// embedded and failed alike.
func (s *Set) TotalChunks() int { return s.totalChunks }

// Records returns the successfully embedded records in chunk order.
func (s *Set) Records() []Record { return s.records }

// PartialFailure reports whether any chunk failed to embed.
func (s *Set) PartialFailure() bool { return len(s.failed) > 0 }

// FailedChunkIDs returns the ids of chunks that failed to embed, sorted.
func (s *Set) FailedChunkIDs() []string {
	if len(s.failed) == 0 {
		return nil
	}
	ids := make([]string, 0, len(s.failed))
	for id := range s.failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Failed reports whether a specific chunk failed to embed.
func (s *Set) Failed(chunkID string) bool {
	_, ok := s.failed[chunkID]
	return ok
}
