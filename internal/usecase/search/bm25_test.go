package search

import (
	"testing"
)

func TestExtractTerms(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"drops stop words", "what is the encryption policy", []string{"encryption", "policy"}},
		{"drops short terms", "go to eu data center", []string{"data", "center"}},
		{"dedupes", "security security audit", []string{"security", "audit"}},
		{"keeps hyphenated identifiers", "iso-27001 controls", []string{"iso-27001", "controls"}},
		{"empty after filtering", "is it in to", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := extractTerms(tc.query)
			if len(got) != len(tc.want) {
				t.Fatalf("terms = %v, expected %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("terms = %v, expected %v", got, tc.want)
				}
			}
		})
	}
}

func TestScoreKeywords_RangeAndMatching(t *testing.T) {
	terms := extractTerms("cloud security compliance")
	cands := candidates(
		candidate("doc-1_0", 0, "cloud security compliance audit for cloud workloads", 0.9),
		candidate("doc-1_1", 1, "recipe for sourdough bread", 0.8),
	)

	scores := scoreKeywords(terms, "cloud security compliance", cands)

	if scores[0].keywordScore <= 0 || scores[0].keywordScore > 1 {
		t.Fatalf("matching candidate score %f out of (0,1]", scores[0].keywordScore)
	}
	if len(scores[0].matched) != 3 {
		t.Fatalf("expected 3 matched terms, got %v", scores[0].matched)
	}
	if scores[1].keywordScore != 0 {
		t.Fatalf("non-matching candidate must score 0, got %f", scores[1].keywordScore)
	}
	if scores[1].matched != nil {
		t.Fatalf("non-matching candidate must have no matched terms, got %v", scores[1].matched)
	}
}

func TestScoreKeywords_ExactMatchBoost(t *testing.T) {
	terms := extractTerms("data retention")

	// Same term content, but only the first contains the query as a phrase.
	exact := candidates(candidate("doc-1_0", 0, "our data retention policy", 0.9))
	split := candidates(candidate("doc-1_1", 1, "retention of customer data", 0.9))

	exactScore := scoreKeywords(terms, "data retention", exact)[0].keywordScore
	splitScore := scoreKeywords(terms, "data retention", split)[0].keywordScore

	if exactScore <= splitScore {
		t.Fatalf("exact phrase match must outscore a split match: %f vs %f", exactScore, splitScore)
	}
}

func TestScoreKeywords_StoredKeywordsCount(t *testing.T) {
	terms := extractTerms("encryption")

	plain := candidates(candidate("doc-1_0", 0, "the data is protected at rest", 0.9))
	tagged := candidates(candidate("doc-1_1", 1, "the data is protected at rest", 0.9, "encryption"))

	if got := scoreKeywords(terms, "encryption", plain)[0].keywordScore; got != 0 {
		t.Fatalf("untagged candidate must score 0, got %f", got)
	}
	if got := scoreKeywords(terms, "encryption", tagged)[0].keywordScore; got <= 0 {
		t.Fatalf("keyword-tagged candidate must score above 0, got %f", got)
	}
}

func TestScoreKeywords_NoTerms(t *testing.T) {
	scores := scoreKeywords(nil, "", candidates(candidate("doc-1_0", 0, "anything", 0.9)))
	if scores[0].keywordScore != 0 {
		t.Fatalf("no query terms must yield zero scores, got %f", scores[0].keywordScore)
	}
}

func TestTermWeight_LongerTermsWeighMore(t *testing.T) {
	if termWeight("gdpr") >= termWeight("encryption") {
		t.Fatal("longer terms must weigh more")
	}
	if termWeight("confidentiality") != termWeight("immutability") {
		t.Fatal("weights must cap at ten characters")
	}
}
