// file: internal/identity/strategy.go
// version: 1.0.0
// guid: 9b4e2f7a-6c1d-4a3e-8f5b-0d9c2e6a4b7f

package identity

import "github.com/jdfalk/abs-meta/internal/models"

// Strategy decides how a provider derives the native identifier for a
// metadata record when the record does not already carry one. Returning
// an empty string falls the caller back to the content hash.
type Strategy interface {
	ProviderID(meta models.BookMetadata) string
}

// ContentHash is the default strategy: no native identifier, always use
// the content hash of the descriptive fields.
type ContentHash struct{}

func (ContentHash) ProviderID(models.BookMetadata) string { return "" }

// GlobalIdentifierFirst prefers globally unique external identifiers
// (ISBN, then ASIN) over the content hash. Storytel records frequently
// carry an ISBN even when the search path did not, so this keeps detail
// lookups and search results converging on the same row.
type GlobalIdentifierFirst struct{}

func (GlobalIdentifierFirst) ProviderID(meta models.BookMetadata) string {
	if meta.ISBN != "" {
		return meta.ISBN
	}
	if meta.ASIN != "" {
		return meta.ASIN
	}
	return ""
}
