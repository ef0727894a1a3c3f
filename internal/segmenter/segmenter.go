// Package segmenter splits document text into overlapping, token-bounded
// chunks along semantic boundaries.
package segmenter

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/docpipe/internal/domain"
	"github.com/kailas-cloud/docpipe/internal/domain/chunk"
)

// Post-processing thresholds relative to the target chunk size.
const (
	mergeCeilingFactor = 1.2
	splitFloorFactor   = 1.5
)

// Segmenter produces chunk sequences from raw document text. Segmentation is
// deterministic: identical (text, config) inputs yield identical chunks.
type Segmenter struct{}

// New creates a segmenter.
func New() *Segmenter {
	return &Segmenter{}
}

// span is an intermediate chunk candidate over the original text.
type span struct {
	start     int
	end       int
	sentences []sentence
	tokens    int
}

// Segment splits text into chunks for a document. Empty or whitespace-only
// input yields zero chunks.
func (s *Segmenter) Segment(documentID, text string, cfg chunk.Config) ([]chunk.Chunk, error) {
	if err := domain.ValidateDocumentID(documentID); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: chunking config: %w", domain.ErrValidation, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	sections := splitSections(text, cfg.SemanticMode)

	var spans []span
	if cfg.PreserveBoundaries {
		for _, sec := range sections {
			sentences := splitSentences(text, sec.start, sec.end)
			spans = append(spans, accumulate(text, sentences, cfg.TargetTokens, cfg.OverlapTokens)...)
		}
	} else {
		var sentences []sentence
		for _, sec := range sections {
			sentences = append(sentences, splitSentences(text, sec.start, sec.end)...)
		}
		spans = accumulate(text, sentences, cfg.TargetTokens, cfg.OverlapTokens)
	}

	spans = mergeSmall(text, spans, cfg.MinTokens, cfg.TargetTokens)
	spans = splitOversized(text, spans, cfg.TargetTokens, cfg.OverlapTokens)

	chunks := make([]chunk.Chunk, 0, len(spans))
	for i, sp := range spans {
		piece := text[sp.start:sp.end]
		c, err := chunk.New(documentID, i, piece, sp.start, sp.end, extractKeywords(piece))
		if err != nil {
			return nil, fmt.Errorf("build chunk %d: %w", i, err)
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

// SplitText re-segments a single text under a tighter token target. Used by
// the indexing pre-flight to shrink chunks that exceed the provider's
// per-item token limit. Sentences that alone exceed the target are
// hard-split on whitespace.
func (s *Segmenter) SplitText(text string, targetTokens int) []string {
	if strings.TrimSpace(text) == "" || targetTokens <= 0 {
		return nil
	}
	sentences := splitSentences(text, 0, len(text))
	sentences = hardSplitOversized(text, sentences, targetTokens)
	spans := accumulate(text, sentences, targetTokens, 0)

	pieces := make([]string, 0, len(spans))
	for _, sp := range spans {
		pieces = append(pieces, text[sp.start:sp.end])
	}
	return pieces
}

// accumulate packs sentences into spans up to targetTokens, seeding each new
// span with the trailing overlapTokens worth of sentences from the one just
// closed.
func accumulate(text string, sentences []sentence, targetTokens, overlapTokens int) []span {
	var spans []span
	var cur []sentence
	curTokens := 0

	flush := func() {
		if len(cur) == 0 {
			return
		}
		spans = append(spans, newSpan(text, cur))
	}

	for _, sent := range sentences {
		if curTokens > 0 && curTokens+sent.tokens > targetTokens {
			flush()
			cur = overlapTail(cur, overlapTokens)
			curTokens = 0
			for _, o := range cur {
				curTokens += o.tokens
			}
		}
		cur = append(cur, sent)
		curTokens += sent.tokens
	}
	flush()
	return spans
}

// overlapTail returns the trailing sentences of a closed span worth
// approximately overlapTokens. Never returns the whole span, so each new
// span makes progress.
func overlapTail(sentences []sentence, overlapTokens int) []sentence {
	if overlapTokens <= 0 || len(sentences) <= 1 {
		return nil
	}
	total := 0
	i := len(sentences)
	for i > 1 && total < overlapTokens {
		i--
		total += sentences[i].tokens
	}
	tail := sentences[i:]
	return append([]sentence(nil), tail...)
}

func newSpan(text string, sentences []sentence) span {
	start := sentences[0].start
	end := sentences[len(sentences)-1].end
	return span{
		start:     start,
		end:       end,
		sentences: sentences,
		tokens:    estimateTokens(text[start:end]),
	}
}

// mergeSmall folds spans below minTokens into a neighbor when the combined
// size stays under mergeCeilingFactor × targetTokens. A lone span is kept
// regardless of the minimum.
func mergeSmall(text string, spans []span, minTokens, targetTokens int) []span {
	if len(spans) <= 1 {
		return spans
	}
	ceiling := int(float64(targetTokens) * mergeCeilingFactor)

	// Forward pass: fold small spans into their predecessor.
	merged := spans[:0:0]
	for _, sp := range spans {
		if len(merged) > 0 && sp.tokens < minTokens {
			prev := merged[len(merged)-1]
			if combined := combineSpans(text, prev, sp); combined.tokens <= ceiling {
				merged[len(merged)-1] = combined
				continue
			}
		}
		merged = append(merged, sp)
	}

	// The first span can only merge forward.
	if len(merged) > 1 && merged[0].tokens < minTokens {
		if combined := combineSpans(text, merged[0], merged[1]); combined.tokens <= ceiling {
			merged = append([]span{combined}, merged[2:]...)
		}
	}
	return merged
}

// combineSpans joins two contiguous (possibly overlapping) spans.
func combineSpans(text string, a, b span) span {
	start := a.start
	if b.start < start {
		start = b.start
	}
	end := b.end
	if a.end > end {
		end = a.end
	}
	sentences := append(append([]sentence(nil), a.sentences...), b.sentences...)
	return span{
		start:     start,
		end:       end,
		sentences: sentences,
		tokens:    estimateTokens(text[start:end]),
	}
}

// splitOversized re-runs sentence accumulation on any span above
// splitFloorFactor × targetTokens. A single sentence above the threshold
// stays whole here; the indexing pre-flight hard-splits it if the provider
// limit requires.
func splitOversized(text string, spans []span, targetTokens, overlapTokens int) []span {
	floor := int(float64(targetTokens) * splitFloorFactor)
	out := make([]span, 0, len(spans))
	for _, sp := range spans {
		if sp.tokens <= floor || len(sp.sentences) <= 1 {
			out = append(out, sp)
			continue
		}
		out = append(out, accumulate(text, dedupeSentences(sp.sentences), targetTokens, overlapTokens)...)
	}
	return out
}

// dedupeSentences drops repeated overlap sentences from a merged span before
// re-accumulation, keyed by start offset.
func dedupeSentences(sentences []sentence) []sentence {
	out := sentences[:0:0]
	lastStart := -1
	for _, s := range sentences {
		if s.start <= lastStart {
			continue
		}
		out = append(out, s)
		lastStart = s.start
	}
	return out
}

// hardSplitOversized force-splits single sentences above targetTokens on
// whitespace so the pre-flight can always satisfy a provider limit.
func hardSplitOversized(text string, sentences []sentence, targetTokens int) []sentence {
	out := make([]sentence, 0, len(sentences))
	for _, s := range sentences {
		if s.tokens <= targetTokens {
			out = append(out, s)
			continue
		}
		out = append(out, splitOnWhitespace(text, s, targetTokens)...)
	}
	return out
}

func splitOnWhitespace(text string, s sentence, targetTokens int) []sentence {
	var parts []sentence
	start := s.start
	tokens := 0
	i := s.start
	for i < s.end {
		j := i
		for j < s.end && text[j] != ' ' && text[j] != '\n' && text[j] != '\t' {
			j++
		}
		wordTokens := estimateTokens(text[i:j])
		if tokens > 0 && tokens+wordTokens > targetTokens {
			if part, ok := makeSentence(text, start, i); ok {
				parts = append(parts, part)
			}
			start = i
			tokens = 0
		}
		tokens += wordTokens
		i = j
		for i < s.end && (text[i] == ' ' || text[i] == '\n' || text[i] == '\t') {
			i++
		}
	}
	if part, ok := makeSentence(text, start, s.end); ok {
		parts = append(parts, part)
	}
	return parts
}

func estimateTokens(s string) int {
	return chunk.EstimateTokens(s)
}
