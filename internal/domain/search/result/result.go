// Package result defines search hit types for the read path.
package result

// Result is a single vector search hit.
type Result struct {
	documentID    string
	chunkID       string
	sequenceIndex int
	text          string
	vectorScore   float64
}

// New creates a vector search result. vectorScore is cosine similarity
// normalized to [0,1].
func New(documentID, chunkID string, sequenceIndex int, text string, vectorScore float64) Result {
	return Result{
		documentID:    documentID,
		chunkID:       chunkID,
		sequenceIndex: sequenceIndex,
		text:          text,
		vectorScore:   vectorScore,
	}
}

// DocumentID returns the owning document identifier.
func (r *Result) DocumentID() string { return r.documentID }

// ChunkID returns the chunk identifier.
func (r *Result) ChunkID() string { return r.chunkID }

// SequenceIndex returns the chunk's position within its document.
func (r *Result) SequenceIndex() int { return r.sequenceIndex }

// Text returns the chunk text.
func (r *Result) Text() string { return r.text }

// VectorScore returns the dense similarity score in [0,1].
func (r *Result) VectorScore() float64 { return r.vectorScore }

// Hybrid extends Result with sparse and fused relevance scores.
// Invariant: FusedScore == vectorWeight*VectorScore + keywordWeight*KeywordScore,
// clamped to [0,1].
type Hybrid struct {
	Result
	keywordScore float64
	fusedScore   float64
	matchedTerms []string
}

// NewHybrid creates a hybrid search result.
func NewHybrid(base Result, keywordScore, fusedScore float64, matchedTerms []string) Hybrid {
	return Hybrid{
		Result:       base,
		keywordScore: keywordScore,
		fusedScore:   fusedScore,
		matchedTerms: matchedTerms,
	}
}

// KeywordScore returns the sparse relevance score in [0,1].
func (h *Hybrid) KeywordScore() float64 { return h.keywordScore }

// FusedScore returns the combined ranking score in [0,1].
func (h *Hybrid) FusedScore() float64 { return h.fusedScore }

// MatchedTerms returns the query terms found in the chunk.
func (h *Hybrid) MatchedTerms() []string { return h.matchedTerms }
