// file: internal/database/store.go
// version: 1.2.0
// guid: 4a8c1e6f-2b9d-4e3a-8c7f-1d5b9a0e3c6d

package database

import (
	"fmt"
	"time"

	"github.com/jdfalk/abs-meta/internal/models"
)

// BookRow is a persisted book record as known from one provider. One row
// exists per (provider, provider_id) pair; a later write for the same pair
// replaces the row content and refreshes UpdatedAt.
type BookRow struct {
	ID            string
	Provider      string
	ProviderID    string
	Title         string
	Subtitle      string
	Author        string
	Narrator      string
	Publisher     string
	PublishedYear string
	Description   string
	Cover         string
	ISBN          string
	ASIN          string
	Genres        []string
	Tags          []string
	Series        []models.SeriesMetadata
	Language      string
	Duration      int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Metadata converts the row to the public metadata shape. Empty fields
// stay zero-valued and are stripped by the json omitempty tags, so the
// public contract never distinguishes absent from explicitly empty.
func (r *BookRow) Metadata() models.BookMetadata {
	return models.BookMetadata{
		Title:         r.Title,
		Subtitle:      r.Subtitle,
		Author:        r.Author,
		Narrator:      r.Narrator,
		Publisher:     r.Publisher,
		PublishedYear: r.PublishedYear,
		Description:   r.Description,
		Cover:         r.Cover,
		ISBN:          r.ISBN,
		ASIN:          r.ASIN,
		Genres:        r.Genres,
		Tags:          r.Tags,
		Series:        r.Series,
		Language:      r.Language,
		Duration:      r.Duration,
		Provider:      r.Provider,
		ProviderID:    r.ProviderID,
	}
}

// Store is the persistence contract shared by the SQLite and Pebble
// backends. Absence is signalled with (nil, nil), never an error.
//
// Search entries hold weak references: GetSearchResults returns ids that
// may no longer resolve via GetBooksByIDs, and callers must tolerate the
// gap. Expiry is logical: GetSearchResults treats a row whose expires_at
// has passed as absent whether or not DeleteExpired has run yet.
type Store interface {
	// UpsertBook inserts or replaces the row keyed by (provider, providerID)
	// and returns the canonical row id. UpdatedAt is refreshed on every call.
	UpsertBook(provider, providerID string, meta models.BookMetadata) (string, error)

	// GetBook returns the row for a provider-native identifier, or nil.
	GetBook(provider, providerID string) (*BookRow, error)

	// GetBooksByIDs returns the rows for the given ids. Order is not
	// guaranteed to match the input; missing ids are silently omitted.
	GetBooksByIDs(ids []string) ([]BookRow, error)

	// PutSearchResults inserts or replaces the search entry for fingerprint
	// with expires_at = now + ttl.
	PutSearchResults(fingerprint, provider string, bookIDs []string, ttl time.Duration) error

	// GetSearchResults returns the ordered book ids for fingerprint, or nil
	// when no live entry exists.
	GetSearchResults(fingerprint string) ([]string, error)

	// DeleteProvider removes all book rows and search entries for provider.
	DeleteProvider(provider string) error

	// DeleteExpired removes search entries whose expires_at <= now and
	// returns the number of rows reclaimed. Book rows are never touched:
	// they have no TTL of their own.
	DeleteExpired(now time.Time) (int64, error)

	Close() error
}

// NewStore opens the configured backend.
func NewStore(storeType, path string) (Store, error) {
	switch storeType {
	case "sqlite", "sqlite3", "":
		return NewSQLiteStore(path)
	case "pebble":
		return NewPebbleStore(path)
	default:
		return nil, fmt.Errorf("unknown database type %q (expected sqlite or pebble)", storeType)
	}
}
