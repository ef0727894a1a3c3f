package segmenter

import (
	"regexp"
	"strings"
	"unicode"
)

// section is a structurally bounded span of the document text.
type section struct {
	start int
	end   int
}

var numberedHeading = regexp.MustCompile(`^\s*(\d+(\.\d+)*[.)]?|[IVXLC]+\.)\s+\S`)

const (
	maxHeadingLen   = 80
	maxHeadingWords = 10
)

// splitSections splits the document at structural boundaries: blank-line
// paragraph breaks, plus heading-like lines when semantic mode is on. A
// heading starts a new section that includes the heading line itself.
func splitSections(text string, semantic bool) []section {
	var sections []section
	lines := splitLines(text)

	secStart := -1
	prevBlank := true

	flush := func(end int) {
		if secStart >= 0 && end > secStart {
			sections = append(sections, section{start: secStart, end: end})
			secStart = -1
		}
	}

	for _, ln := range lines {
		content := strings.TrimSpace(text[ln.start:ln.end])
		if content == "" {
			flush(ln.start)
			prevBlank = true
			continue
		}
		if semantic && !prevBlank && isHeadingLine(content) {
			// Heading opens a fresh section even without a blank line before it.
			flush(ln.start)
		}
		if secStart < 0 {
			secStart = ln.start
		}
		prevBlank = false
	}
	flush(len(text))
	return sections
}

type line struct {
	start int
	end   int
}

func splitLines(text string) []line {
	var lines []line
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, line{start: start, end: i})
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, line{start: start, end: len(text)})
	}
	return lines
}

// isHeadingLine recognizes heading-like lines: numbered headings, short
// all-caps lines, short title-case lines, and lines ending in a colon.
func isHeadingLine(content string) bool {
	if len(content) > maxHeadingLen {
		return false
	}
	if numberedHeading.MatchString(content) {
		return true
	}
	if strings.HasSuffix(content, ":") {
		return true
	}
	words := strings.Fields(content)
	if len(words) == 0 || len(words) > maxHeadingWords {
		return false
	}
	if isAllCaps(content) {
		return true
	}
	return isTitleCase(words)
}

// isAllCaps reports whether the line has letters and none of them lowercase.
func isAllCaps(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// isTitleCase reports whether every word starts with an uppercase letter
// (short connectives excepted) and the line carries no sentence punctuation.
func isTitleCase(words []string) bool {
	connectives := map[string]bool{
		"a": true, "an": true, "and": true, "at": true, "by": true,
		"for": true, "in": true, "of": true, "on": true, "or": true,
		"the": true, "to": true, "with": true,
	}
	for i, w := range words {
		if strings.ContainsAny(w, ".!?,;") {
			return false
		}
		if i > 0 && connectives[strings.ToLower(w)] {
			continue
		}
		r := []rune(w)[0]
		if !unicode.IsUpper(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
