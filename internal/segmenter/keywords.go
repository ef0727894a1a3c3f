package segmenter

import (
	"regexp"
	"sort"
	"strings"
)

// maxKeywordsPerChunk bounds the extracted keyword set.
const maxKeywordsPerChunk = 10

// Identifier-shaped tokens: acronyms, hyphenated codes (ISO-27001),
// camel-case names, and alphanumeric designators.
var (
	acronymPattern    = regexp.MustCompile(`\b[A-Z]{2,8}\b`)
	codePattern       = regexp.MustCompile(`\b[A-Za-z]{2,}[-_][A-Za-z0-9]{1,12}\b`)
	camelCasePattern  = regexp.MustCompile(`\b[a-z]+[A-Z][A-Za-z]*\b`)
	designatorPattern = regexp.MustCompile(`\b[A-Za-z]{2,}\d{1,6}\b`)
)

// vocabulary lists domain terms recognized as keywords wherever they appear.
var vocabulary = map[string]bool{
	"security": true, "compliance": true, "encryption": true, "audit": true,
	"policy": true, "governance": true, "retention": true, "privacy": true,
	"authentication": true, "authorization": true, "incident": true,
	"vulnerability": true, "regulation": true, "certification": true,
	"contract": true, "liability": true, "warranty": true, "indemnity": true,
	"invoice": true, "payment": true, "renewal": true, "termination": true,
	"architecture": true, "deployment": true, "infrastructure": true,
	"migration": true, "backup": true, "recovery": true, "latency": true,
	"throughput": true, "availability": true, "scalability": true,
}

// extractKeywords pulls identifier-pattern tokens and recognized vocabulary
// terms from a chunk's text, deduplicated and capped. Output order is
// deterministic: by first occurrence is not needed, sorted keeps re-chunking
// stable.
func extractKeywords(text string) []string {
	seen := make(map[string]bool)

	add := func(term string) {
		term = strings.Trim(strings.ToLower(term), "-_")
		if len(term) > 2 && !seen[term] {
			seen[term] = true
		}
	}

	for _, m := range acronymPattern.FindAllString(text, -1) {
		add(m)
	}
	for _, m := range codePattern.FindAllString(text, -1) {
		add(m)
	}
	for _, m := range camelCasePattern.FindAllString(text, -1) {
		add(m)
	}
	for _, m := range designatorPattern.FindAllString(text, -1) {
		add(m)
	}
	for _, w := range strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z')
	}) {
		if vocabulary[strings.ToLower(w)] {
			add(w)
		}
	}

	if len(seen) == 0 {
		return nil
	}
	keywords := make([]string, 0, len(seen))
	for k := range seen {
		keywords = append(keywords, k)
	}
	sort.Strings(keywords)
	if len(keywords) > maxKeywordsPerChunk {
		keywords = keywords[:maxKeywordsPerChunk]
	}
	return keywords
}
