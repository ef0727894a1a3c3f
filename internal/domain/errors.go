package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation signals malformed input (bad filters, weights, config).
	ErrValidation = errors.New("validation failed")
	// ErrTenantRequired signals a query or command without a tenant identifier.
	ErrTenantRequired = errors.New("tenant id is required")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrProvider signals an embedding provider failure of any kind.
	ErrProvider = errors.New("embedding provider error")
	// ErrProviderUnavailable is the retryable provider failure subtype
	// (timeout, network, rate limit, 5xx). Unwraps to ErrProvider.
	ErrProviderUnavailable = fmt.Errorf("%w: provider unavailable", ErrProvider)
	// ErrProviderRejected is the terminal provider failure subtype
	// (invalid input, quota, auth). Unwraps to ErrProvider.
	ErrProviderRejected = fmt.Errorf("%w: request rejected", ErrProvider)

	// ErrStore signals a backing-store operation failure.
	ErrStore = errors.New("store error")
	// ErrSearchTimeout signals a search deadline exceeded with no cached
	// fallback available.
	ErrSearchTimeout = errors.New("search deadline exceeded")
)

// IndexingFailedError reports that a majority of embedding batches failed,
// aborting the whole document. Carries enough context for an external
// orchestrator to retry.
type IndexingFailedError struct {
	DocumentID     string
	TenantID       string
	FailedBatches  int
	TotalBatches   int
	FailedChunkIDs []string
}

func (e *IndexingFailedError) Error() string {
	return fmt.Sprintf(
		"indexing document %s (tenant %s) failed: %d/%d batches failed (chunks: %s)",
		e.DocumentID, e.TenantID, e.FailedBatches, e.TotalBatches,
		strings.Join(e.FailedChunkIDs, ","),
	)
}

func (e *IndexingFailedError) Unwrap() error { return ErrProvider }
