package search

import (
	"strings"

	"github.com/kailas-cloud/docpipe/internal/domain/search/result"
)

// BM25 parameters and boosts.
const (
	bm25K1 = 1.2
	bm25B  = 0.75

	// exactMatchBoost multiplies the summed term score when the candidate
	// text contains the whole normalized query.
	exactMatchBoost = 1.5

	// Longer terms weigh more: weight grows linearly with term length up to
	// termWeightCap characters, topping out at 1.5.
	termWeightCap = 10
)

// scored pairs a candidate with its sparse relevance outcome.
type scored struct {
	keywordScore float64
	matched      []string
}

// scoreKeywords computes a BM25-style keyword score in [0,1] for every
// candidate against the extracted query terms. Stored chunk keywords count as
// document tokens alongside the chunk text, so keyword-tagged chunks match
// even when the literal term is absent from the text. A candidate matching no
// term scores zero; it is never excluded here.
func scoreKeywords(terms []string, normalizedQuery string, cands []result.Candidate) []scored {
	out := make([]scored, len(cands))
	if len(terms) == 0 {
		return out
	}

	docTokens := make([][]string, len(cands))
	totalLen := 0
	for i := range cands {
		tokens := tokenize(cands[i].Text())
		tokens = append(tokens, cands[i].Keywords()...)
		docTokens[i] = tokens
		totalLen += len(tokens)
	}
	avgDocLen := 1.0
	if len(cands) > 0 && totalLen > 0 {
		avgDocLen = float64(totalLen) / float64(len(cands))
	}

	// Theoretical maximum: every term saturated (tf -> inf gives k1+1 per
	// term), exact match included. Dividing by it keeps scores in [0,1].
	maxRaw := 0.0
	for _, term := range terms {
		maxRaw += termWeight(term) * (bm25K1 + 1)
	}
	maxRaw *= exactMatchBoost

	for i := range cands {
		freq := make(map[string]int, len(docTokens[i]))
		for _, tok := range docTokens[i] {
			freq[tok]++
		}
		docLen := float64(len(docTokens[i]))

		raw := 0.0
		var matched []string
		for _, term := range terms {
			tf := float64(freq[term])
			if tf == 0 {
				continue
			}
			norm := 1 - bm25B + bm25B*(docLen/avgDocLen)
			raw += termWeight(term) * tf * (bm25K1 + 1) / (tf + bm25K1*norm)
			matched = append(matched, term)
		}
		if raw > 0 && strings.Contains(strings.ToLower(cands[i].Text()), normalizedQuery) {
			raw *= exactMatchBoost
		}

		score := raw / maxRaw
		if score > 1 {
			score = 1
		}
		out[i] = scored{keywordScore: score, matched: matched}
	}
	return out
}

// termWeight weighs longer terms more heavily: 1.0 for the shortest allowed
// terms up to 1.5 at termWeightCap characters.
func termWeight(term string) float64 {
	n := len(term)
	if n > termWeightCap {
		n = termWeightCap
	}
	return 1 + float64(n)/float64(termWeightCap)*0.5
}
