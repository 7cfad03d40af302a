// file: internal/models/metadata.go
// version: 1.1.0
// guid: 3f8a1b2c-9d4e-4f6a-8b0c-5d2e7f1a9c3b

package models

// SeriesMetadata is a single series membership entry for a book.
type SeriesMetadata struct {
	Series   string `json:"series"`
	Sequence string `json:"sequence"`
}

// BookMetadata is the normalized metadata shape shared by all providers.
// Title is the only required field; everything else is best-effort and
// omitted from JSON when empty so consumers never see null/empty noise.
type BookMetadata struct {
	Title         string           `json:"title"`
	Subtitle      string           `json:"subtitle,omitempty"`
	Author        string           `json:"author,omitempty"`
	Narrator      string           `json:"narrator,omitempty"`
	Publisher     string           `json:"publisher,omitempty"`
	PublishedYear string           `json:"publishedYear,omitempty"`
	Description   string           `json:"description,omitempty"`
	Cover         string           `json:"cover,omitempty"`
	ISBN          string           `json:"isbn,omitempty"`
	ASIN          string           `json:"asin,omitempty"`
	Genres        []string         `json:"genres,omitempty"`
	Tags          []string         `json:"tags,omitempty"`
	Series        []SeriesMetadata `json:"series,omitempty"`
	Language      string           `json:"language,omitempty"`
	Duration      int              `json:"duration,omitempty"` // minutes

	// ProviderID carries the provider's native identifier when the record
	// came from a detail lookup. It addresses the book row, it is not part
	// of the public metadata payload.
	ProviderID string `json:"-"`
	Provider   string `json:"-"`
}

// SearchQuery is an inbound search request before fingerprinting.
type SearchQuery struct {
	Query  string `json:"query,omitempty" form:"query"`
	Author string `json:"author,omitempty" form:"author"`
	Type   string `json:"type,omitempty" form:"type"`
	ISBN   string `json:"isbn,omitempty" form:"isbn"`
}

// ProviderConfig declares a provider's identity and its path parameter
// contract as data: which parameters are required, which values are
// allowed, and which parameters accept comma-separated lists.
type ProviderConfig struct {
	Name                string              `json:"name"`
	BaseURL             string              `json:"-"`
	RequiredParams      []string            `json:"requiredParams"`
	OptionalParams      []string            `json:"optionalParams"`
	ParameterWhitelists map[string][]string `json:"parameterWhitelists"`
	CommaSeparated      []string            `json:"-"`
}
