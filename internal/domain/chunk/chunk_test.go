package chunk

import (
	"strings"
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"whitespace only", "   \n\t", 0},
		// 1 word, 5 chars: max(ceil(1.3)=2, ceil(5/3.5)=2)
		{"single word", "hello", 2},
		// 9 words, 44 chars: max(ceil(11.7)=12, ceil(44/3.5)=13)
		{"short sentence", "The quick brown fox jumps over the lazy dog.", 13},
		// 2 words, 26 chars: char estimate dominates long tokens
		{"long identifiers", "supercalifragilistic expia", 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateTokens(tt.text); got != tt.want {
				t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestEstimateTokens_WordEstimateDominatesShortWords(t *testing.T) {
	// 100 one-letter words: byWords = 130, byChars = ceil(199/3.5) = 57.
	text := strings.TrimSpace(strings.Repeat("a ", 100))
	if got := EstimateTokens(text); got != 130 {
		t.Errorf("expected word-count estimate 130, got %d", got)
	}
}

func TestNew_DerivesDeterministicID(t *testing.T) {
	c, err := New("doc-1", 3, "text", 0, 4, nil)
	if err != nil {
		t.Fatalf("new chunk: %v", err)
	}
	if c.ID() != "doc-1_3" {
		t.Errorf("expected id doc-1_3, got %q", c.ID())
	}
	if c.TokenEstimate() != EstimateTokens("text") {
		t.Errorf("token estimate not derived from text")
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New("", 0, "text", 0, 4, nil); err == nil {
		t.Error("expected error for empty document id")
	}
	if _, err := New("doc-1", -1, "text", 0, 4, nil); err == nil {
		t.Error("expected error for negative sequence index")
	}
	if _, err := New("doc-1", 0, "text", 4, 4, nil); err == nil {
		t.Error("expected error for start >= end")
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()
	if cfg.TargetTokens != DefaultTargetTokens ||
		cfg.OverlapTokens != DefaultOverlapTokens ||
		cfg.MinTokens != DefaultMinTokens {
		t.Errorf("zero config not defaulted: %+v", cfg)
	}

	// Overlap at or above target gets repaired, not rejected.
	cfg = Config{TargetTokens: 100, OverlapTokens: 150, MinTokens: 10}.WithDefaults()
	if cfg.OverlapTokens >= cfg.TargetTokens {
		t.Errorf("overlap not repaired: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("repaired config should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	bad := []Config{
		{TargetTokens: 0},
		{TargetTokens: 100, OverlapTokens: 100},
		{TargetTokens: 100, OverlapTokens: -1},
		{TargetTokens: 100, MinTokens: 101},
	}
	for i, cfg := range bad {
		if err := cfg.Validate(); err == nil {
			t.Errorf("config %d should fail validation: %+v", i, cfg)
		}
	}

	ok := Config{TargetTokens: 100, OverlapTokens: 20, MinTokens: 10}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}
