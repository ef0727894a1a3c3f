// Package filters defines the metadata predicates a search query runs under.
package filters

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/docpipe/internal/domain"
)

// MaxDocumentIDs bounds the document id list in a single query.
const MaxDocumentIDs = 64

// DateRange restricts results to documents indexed within [From, To].
// Either bound may be zero, meaning unbounded on that side.
type DateRange struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether the range has no bounds.
func (r DateRange) IsZero() bool { return r.From.IsZero() && r.To.IsZero() }

// Filters is a validated set of search predicates. TenantID is mandatory:
// tenant isolation is a correctness invariant, enforced before ranking.
type Filters struct {
	tenantID    string
	documentIDs []string
	categories  []string
	dateRange   DateRange
}

// New validates and creates search filters. documentIDs may list one or many
// documents; a single-document filter is just a one-element list.
func New(tenantID string, documentIDs, categories []string, dateRange DateRange) (Filters, error) {
	if err := domain.ValidateTenantID(tenantID); err != nil {
		return Filters{}, err
	}
	if len(documentIDs) > MaxDocumentIDs {
		return Filters{}, fmt.Errorf("%w: too many document ids (max %d)", domain.ErrValidation, MaxDocumentIDs)
	}
	for _, id := range documentIDs {
		if err := domain.ValidateDocumentID(id); err != nil {
			return Filters{}, err
		}
	}
	if !dateRange.From.IsZero() && !dateRange.To.IsZero() && dateRange.To.Before(dateRange.From) {
		return Filters{}, fmt.Errorf("%w: date range end before start", domain.ErrValidation)
	}
	return Filters{
		tenantID:    tenantID,
		documentIDs: append([]string(nil), documentIDs...),
		categories:  append([]string(nil), categories...),
		dateRange:   dateRange,
	}, nil
}

// TenantID returns the tenant the query is scoped to.
func (f Filters) TenantID() string { return f.tenantID }

// DocumentIDs returns the document id restriction, if any.
func (f Filters) DocumentIDs() []string { return f.documentIDs }

// Categories returns the category tag restriction, if any.
func (f Filters) Categories() []string { return f.categories }

// DateRange returns the indexed-at range restriction.
func (f Filters) DateRange() DateRange { return f.dateRange }

// Signature returns a canonical string representation used for cache keys.
// Order-insensitive over documentIDs and categories.
func (f Filters) Signature() string {
	docs := append([]string(nil), f.documentIDs...)
	sort.Strings(docs)
	cats := append([]string(nil), f.categories...)
	sort.Strings(cats)

	var b strings.Builder
	b.WriteString("tenant=")
	b.WriteString(f.tenantID)
	b.WriteString("|docs=")
	b.WriteString(strings.Join(docs, ","))
	b.WriteString("|cats=")
	b.WriteString(strings.Join(cats, ","))
	b.WriteString("|from=")
	if !f.dateRange.From.IsZero() {
		b.WriteString(f.dateRange.From.UTC().Format(time.RFC3339))
	}
	b.WriteString("|to=")
	if !f.dateRange.To.IsZero() {
		b.WriteString(f.dateRange.To.UTC().Format(time.RFC3339))
	}
	return b.String()
}
