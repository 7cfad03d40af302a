// file: internal/cache/cache.go
// version: 2.0.0
// guid: b3e8f1a6-7c2d-4e9b-8a5f-3d0c6b1e9f4a

package cache

import (
	"fmt"
	"time"

	"github.com/jdfalk/abs-meta/internal/database"
	"github.com/jdfalk/abs-meta/internal/identity"
	"github.com/jdfalk/abs-meta/internal/models"
)

// Service is the single entry point providers use to read and write the
// metadata cache. It combines identity derivation, the deduplicating book
// store and the TTL-bound search index behind one facade.
//
// There is deliberately no single-flight deduplication here: two
// concurrent misses for the same fingerprint both go upstream and the
// last Set wins. Book upserts are idempotent by identity, so the only
// cost is the duplicated upstream fetch.
type Service struct {
	store      database.Store
	strategies map[string]identity.Strategy
	ttl        func() time.Duration
}

// NewService creates the cache facade. ttl is consulted on every write so
// operators can change the configured TTL without a restart; strategies
// maps provider names to their identity policy (nil entries fall back to
// the content hash).
func NewService(store database.Store, strategies map[string]identity.Strategy, ttl func() time.Duration) *Service {
	if strategies == nil {
		strategies = map[string]identity.Strategy{}
	}
	return &Service{store: store, strategies: strategies, ttl: ttl}
}

// Get returns the cached, ordered result list for a search request, or
// (nil, false, nil) on a logical miss. Ids whose book rows have been
// deleted independently are dropped without error; remaining books keep
// their original relative order.
func (s *Service) Get(provider string, query models.SearchQuery, pathParams map[string]string) ([]models.BookMetadata, bool, error) {
	fingerprint := identity.Fingerprint(provider, query, pathParams)

	ids, err := s.store.GetSearchResults(fingerprint)
	if err != nil {
		return nil, false, fmt.Errorf("search index read failed: %w", err)
	}
	if len(ids) == 0 {
		return nil, false, nil
	}

	rows, err := s.store.GetBooksByIDs(ids)
	if err != nil {
		return nil, false, fmt.Errorf("book resolution failed: %w", err)
	}

	byID := make(map[string]*database.BookRow, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}

	// Re-order to the stored rank; the store does not guarantee it.
	results := make([]models.BookMetadata, 0, len(ids))
	for _, id := range ids {
		row, ok := byID[id]
		if !ok {
			continue // weak reference: the row was deleted independently
		}
		results = append(results, row.Metadata())
	}
	return results, true, nil
}

// Set persists each metadata record by identity and records the ordered id
// list under the request fingerprint. All book upserts complete before the
// index write so a visible search entry never references a book that has
// not been persisted yet.
func (s *Service) Set(provider string, query models.SearchQuery, books []models.BookMetadata, pathParams map[string]string) error {
	fingerprint := identity.Fingerprint(provider, query, pathParams)

	bookIDs := make([]string, 0, len(books))
	for _, book := range books {
		id, err := s.store.UpsertBook(provider, s.resolveProviderID(provider, book), book)
		if err != nil {
			return fmt.Errorf("failed to cache book %q: %w", book.Title, err)
		}
		bookIDs = append(bookIDs, id)
	}

	if err := s.store.PutSearchResults(fingerprint, provider, bookIDs, s.ttl()); err != nil {
		return fmt.Errorf("failed to cache search results: %w", err)
	}
	return nil
}

// StoreBook caches a single book by native identity before any search
// result list references it. providerID may be empty, in which case the
// provider's identity strategy and then the content hash decide.
func (s *Service) StoreBook(provider string, meta models.BookMetadata, providerID string) (string, error) {
	if providerID == "" {
		providerID = s.resolveProviderID(provider, meta)
	}
	id, err := s.store.UpsertBook(provider, providerID, meta)
	if err != nil {
		return "", fmt.Errorf("failed to store book %q: %w", meta.Title, err)
	}
	return id, nil
}

// GetBook returns a cached book by provider-native identity, or nil.
func (s *Service) GetBook(provider, providerID string) (*models.BookMetadata, error) {
	row, err := s.store.GetBook(provider, providerID)
	if err != nil {
		return nil, fmt.Errorf("book read failed: %w", err)
	}
	if row == nil {
		return nil, nil
	}
	meta := row.Metadata()
	return &meta, nil
}

// ClearProvider removes every book row and search entry for a provider.
func (s *Service) ClearProvider(provider string) error {
	return s.store.DeleteProvider(provider)
}

// ClearExpired removes search entries whose TTL has elapsed.
func (s *Service) ClearExpired() (int64, error) {
	return s.store.DeleteExpired(time.Now())
}

// resolveProviderID picks the native identifier for a record: the id the
// record already carries wins, then the provider's identity strategy
// (e.g. ISBN/ASIN for storytel), then the content hash fallback.
func (s *Service) resolveProviderID(provider string, meta models.BookMetadata) string {
	if meta.ProviderID != "" {
		return meta.ProviderID
	}
	strategy := s.strategies[provider]
	if strategy == nil {
		strategy = identity.ContentHash{}
	}
	if id := strategy.ProviderID(meta); id != "" {
		return id
	}
	return identity.ContentID(meta.Title, meta.Subtitle, meta.Author, meta.Publisher)
}
