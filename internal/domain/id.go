package domain

import (
	"fmt"
	"regexp"
)

// KeyPrefix namespaces every key the pipeline writes to the backing store.
const KeyPrefix = "docpipe:"

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateTenantID checks that a tenant identifier is present and well-formed.
// Queries and commands without a tenant must be rejected, never defaulted.
func ValidateTenantID(id string) error {
	if id == "" {
		return ErrTenantRequired
	}
	if len(id) > 256 || !idRegex.MatchString(id) {
		return fmt.Errorf("%w: malformed tenant id %q", ErrValidation, id)
	}
	return nil
}

// ValidateDocumentID checks that a document identifier is well-formed.
func ValidateDocumentID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: document id is required", ErrValidation)
	}
	if len(id) > 256 || !idRegex.MatchString(id) {
		return fmt.Errorf("%w: malformed document id %q", ErrValidation, id)
	}
	return nil
}
