package result

// Candidate is a vector search hit enriched with the chunk's stored keyword
// terms. Candidates feed the keyword scoring stage before fusion.
type Candidate struct {
	Result
	keywords []string
}

// NewCandidate creates a scoring candidate.
func NewCandidate(base Result, keywords []string) Candidate {
	return Candidate{Result: base, keywords: keywords}
}

// Keywords returns the chunk's stored keyword terms.
func (c *Candidate) Keywords() []string { return c.keywords }
