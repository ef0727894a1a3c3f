package segmenter

import (
	"strings"
	"unicode"
)

// sentence is a span of the original document text.
type sentence struct {
	start  int
	end    int
	text   string
	tokens int
}

// abbreviations that end with a period but do not terminate a sentence.
var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"sr": true, "jr": true, "st": true, "no": true, "vs": true,
	"etc": true, "inc": true, "ltd": true, "co": true, "corp": true,
	"fig": true, "vol": true, "approx": true, "dept": true, "est": true,
	"e.g": true, "i.e": true, "et.al": true, "u.s": true, "u.k": true,
}

// splitSentences splits text[start:end] into sentences on sentence-final
// punctuation ('.', '!', '?'), protecting common abbreviations and initials.
// Offsets are absolute into the original document text.
func splitSentences(text string, start, end int) []sentence {
	var out []sentence
	segStart := start
	i := start

	for i < end {
		c := text[i]
		if c == '!' || c == '?' || (c == '.' && !isAbbreviationDot(text, segStart, i)) {
			// Consume trailing closers and repeated punctuation (")", quotes, "...").
			j := i + 1
			for j < end && (text[j] == '.' || text[j] == '!' || text[j] == '?' ||
				text[j] == ')' || text[j] == '"' || text[j] == '\'') {
				j++
			}
			if j >= end || text[j] == ' ' || text[j] == '\t' || text[j] == '\n' {
				if s, ok := makeSentence(text, segStart, j); ok {
					out = append(out, s)
				}
				// Skip whitespace to the next sentence start.
				for j < end && (text[j] == ' ' || text[j] == '\t' || text[j] == '\n') {
					j++
				}
				segStart = j
				i = j
				continue
			}
			i = j
			continue
		}
		i++
	}

	if s, ok := makeSentence(text, segStart, end); ok {
		out = append(out, s)
	}
	return out
}

// isAbbreviationDot reports whether the period at pos ends a protected
// abbreviation or a single-letter initial rather than a sentence.
func isAbbreviationDot(text string, segStart, pos int) bool {
	// Word immediately before the dot.
	w := pos
	for w > segStart {
		r := rune(text[w-1])
		if unicode.IsLetter(r) || text[w-1] == '.' {
			w--
			continue
		}
		break
	}
	word := strings.ToLower(strings.TrimSuffix(text[w:pos], "."))
	if word == "" {
		return false
	}
	if abbreviations[word] {
		return true
	}
	// Single-letter initials: "J. Smith", "U.S. policy".
	if len(word) == 1 {
		return true
	}
	// A digit right before the dot followed by a digit is a decimal, but the
	// caller only reaches here for letter contexts; dotted compounds like
	// "e.g" are caught above via the map.
	return false
}

// makeSentence builds a sentence if the span contains non-whitespace text.
func makeSentence(text string, start, end int) (sentence, bool) {
	raw := text[start:end]
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return sentence{}, false
	}
	// Tighten offsets to the trimmed span.
	lead := strings.Index(raw, trimmed)
	s := start + lead
	e := s + len(trimmed)
	return sentence{
		start:  s,
		end:    e,
		text:   trimmed,
		tokens: estimateTokens(trimmed),
	}, true
}
