// Package query defines the normalized search query value object.
package query

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/kailas-cloud/docpipe/internal/domain"
	"github.com/kailas-cloud/docpipe/internal/domain/search/filters"
	"github.com/kailas-cloud/docpipe/internal/domain/search/options"
)

// MaxLength bounds the raw query text.
const MaxLength = 4096

// Query is a validated search query. Normalization lower-cases and trims the
// text so semantically identical queries share a cache key.
type Query struct {
	raw        string
	normalized string
}

// New validates and normalizes a search query.
func New(raw string) (Query, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return Query{}, fmt.Errorf("%w: query is empty", domain.ErrValidation)
	}
	if len(raw) > MaxLength {
		return Query{}, fmt.Errorf("%w: query exceeds %d characters", domain.ErrValidation, MaxLength)
	}
	return Query{raw: raw, normalized: normalized}, nil
}

// Raw returns the query as submitted.
func (q Query) Raw() string { return q.raw }

// Normalized returns the lower-cased, trimmed query text.
func (q Query) Normalized() string { return q.normalized }

// CacheKey derives a stable cache key from the normalized query, the filter
// signature and the option signature.
func (q Query) CacheKey(f filters.Filters, o options.Options) string {
	h := sha256.New()
	h.Write([]byte(q.normalized))
	h.Write([]byte{0})
	h.Write([]byte(f.Signature()))
	h.Write([]byte{0})
	h.Write([]byte(o.Signature()))
	return hex.EncodeToString(h.Sum(nil))
}
