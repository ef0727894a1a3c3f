// Package chunk defines the unit of embedding and retrieval: a bounded,
// immutable span of a document's text.
package chunk

import (
	"fmt"
	"math"
	"strings"
)

// Chunk is a single segment of a document (immutable value object).
// Its identifier is derived from (documentID, sequenceIndex), so re-chunking
// the same document overwrites prior chunks instead of duplicating them.
type Chunk struct {
	id            string
	sequenceIndex int
	text          string
	startOffset   int
	endOffset     int
	tokenEstimate int
	keywords      []string
}

// ID returns a deterministic chunk identifier for a document position.
func ID(documentID string, sequenceIndex int) string {
	return fmt.Sprintf("%s_%d", documentID, sequenceIndex)
}

// New creates a chunk for a document position. Offsets are byte offsets into
// the original document text, startOffset < endOffset.
func New(documentID string, sequenceIndex int, text string, startOffset, endOffset int, keywords []string) (Chunk, error) {
	if documentID == "" {
		return Chunk{}, fmt.Errorf("document id is required")
	}
	if sequenceIndex < 0 {
		return Chunk{}, fmt.Errorf("sequence index must be non-negative")
	}
	if startOffset >= endOffset {
		return Chunk{}, fmt.Errorf("invalid offsets: start %d >= end %d", startOffset, endOffset)
	}
	return Chunk{
		id:            ID(documentID, sequenceIndex),
		sequenceIndex: sequenceIndex,
		text:          text,
		startOffset:   startOffset,
		endOffset:     endOffset,
		tokenEstimate: EstimateTokens(text),
		keywords:      keywords,
	}, nil
}

// Reconstruct creates a chunk without validation (storage hydration).
func Reconstruct(id string, sequenceIndex int, text string, startOffset, endOffset, tokenEstimate int, keywords []string) Chunk {
	return Chunk{
		id:            id,
		sequenceIndex: sequenceIndex,
		text:          text,
		startOffset:   startOffset,
		endOffset:     endOffset,
		tokenEstimate: tokenEstimate,
		keywords:      keywords,
	}
}

// ID returns the chunk identifier.
func (c *Chunk) ID() string { return c.id }

// SequenceIndex returns the chunk's position within its document.
func (c *Chunk) SequenceIndex() int { return c.sequenceIndex }

// Text returns the chunk text.
func (c *Chunk) Text() string { return c.text }

// StartOffset returns the byte offset of the chunk start in the document.
func (c *Chunk) StartOffset() int { return c.startOffset }

// EndOffset returns the byte offset of the chunk end in the document.
func (c *Chunk) EndOffset() int { return c.endOffset }

// TokenEstimate returns the approximate token count of the chunk text.
// The estimate carries up to ±20% error against a real tokenizer.
func (c *Chunk) TokenEstimate() int { return c.tokenEstimate }

// Keywords returns the extracted keyword terms for the sparse index.
func (c *Chunk) Keywords() []string { return c.keywords }

// EstimateTokens approximates the token count of a text without a tokenizer:
// max(ceil(words*1.3), ceil(chars/3.5)). Consumers must treat the result as
// an estimate, not an exact count.
func EstimateTokens(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	words := len(strings.Fields(text))
	chars := len(text)
	byWords := int(math.Ceil(float64(words) * 1.3))
	byChars := int(math.Ceil(float64(chars) / 3.5))
	if byWords > byChars {
		return byWords
	}
	return byChars
}
