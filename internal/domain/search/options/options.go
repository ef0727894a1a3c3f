// Package options defines validated search tuning parameters.
package options

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/docpipe/internal/domain"
)

// Search parameter defaults and limits.
const (
	DefaultTopK = 10
	MaxTopK     = 100

	// DefaultMinScoreHybrid applies when keyword fusion is on: fused scores
	// sit lower because sparse scores are often zero.
	DefaultMinScoreHybrid = 0.1
	// DefaultMinScoreVector applies to pure vector search.
	DefaultMinScoreVector = 0.7

	DefaultVectorWeight  = 0.7
	DefaultKeywordWeight = 0.3

	weightTolerance = 1e-9
)

// Options is a validated set of search tuning parameters.
// Invariant: VectorWeight + KeywordWeight == 1 (enforced at construction).
type Options struct {
	topK          int
	minScore      float64
	hybrid        bool
	vectorWeight  float64
	keywordWeight float64
}

// New validates and normalizes search options. Zero topK and weights take
// defaults; a zero minScore takes the mode-dependent default. Explicit
// weights must sum to 1.
func New(topK int, minScore float64, hybrid bool, vectorWeight, keywordWeight float64) (Options, error) {
	if topK < 0 {
		return Options{}, fmt.Errorf("%w: topK must be non-negative", domain.ErrValidation)
	}
	if topK == 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	if minScore < 0 || minScore > 1 {
		return Options{}, fmt.Errorf("%w: minScore must be in [0,1]", domain.ErrValidation)
	}
	if minScore == 0 {
		if hybrid {
			minScore = DefaultMinScoreHybrid
		} else {
			minScore = DefaultMinScoreVector
		}
	}
	if vectorWeight == 0 && keywordWeight == 0 {
		vectorWeight = DefaultVectorWeight
		keywordWeight = DefaultKeywordWeight
	}
	if vectorWeight < 0 || keywordWeight < 0 {
		return Options{}, fmt.Errorf("%w: weights must be non-negative", domain.ErrValidation)
	}
	if math.Abs(vectorWeight+keywordWeight-1.0) > weightTolerance {
		return Options{}, fmt.Errorf(
			"%w: vectorWeight + keywordWeight must equal 1.0, got %g",
			domain.ErrValidation, vectorWeight+keywordWeight,
		)
	}
	return Options{
		topK:          topK,
		minScore:      minScore,
		hybrid:        hybrid,
		vectorWeight:  vectorWeight,
		keywordWeight: keywordWeight,
	}, nil
}

// Default returns hybrid search options with all defaults applied.
func Default() Options {
	o, _ := New(0, 0, true, 0, 0)
	return o
}

// TopK returns the number of results to return.
func (o Options) TopK() int { return o.topK }

// MinScore returns the minimum fused score threshold.
func (o Options) MinScore() float64 { return o.minScore }

// Hybrid reports whether keyword fusion is enabled.
func (o Options) Hybrid() bool { return o.hybrid }

// VectorWeight returns the dense score weight.
func (o Options) VectorWeight() float64 { return o.vectorWeight }

// KeywordWeight returns the sparse score weight.
func (o Options) KeywordWeight() float64 { return o.keywordWeight }

// Signature returns a canonical string representation used for cache keys.
func (o Options) Signature() string {
	return fmt.Sprintf("topk=%d|min=%g|hybrid=%t|vw=%g|kw=%g",
		o.topK, o.minScore, o.hybrid, o.vectorWeight, o.keywordWeight)
}
