// file: internal/database/mock_store.go
// version: 1.1.0
// guid: 1f7b3d9a-4e8c-4b2f-a6d1-9c5e0a3f7b2d

package database

import (
	"sync"
	"time"

	"github.com/jdfalk/abs-meta/internal/identity"
	"github.com/jdfalk/abs-meta/internal/models"
)

// MockStore is an in-memory Store used in tests. It mirrors the backend
// semantics (replace-on-upsert, logical expiry on read) without touching
// disk, and can be primed to fail for error-path coverage.
type MockStore struct {
	mu      sync.Mutex
	books   map[string]BookRow    // keyed by row id
	entries map[string]mockSearch // keyed by fingerprint

	// FailWith, when set, is returned by every mutating and reading
	// operation. Used to exercise storage error propagation.
	FailWith error
}

type mockSearch struct {
	provider  string
	bookIDs   []string
	expiresAt time.Time
}

// NewMockStore creates an empty in-memory store
func NewMockStore() *MockStore {
	return &MockStore{
		books:   make(map[string]BookRow),
		entries: make(map[string]mockSearch),
	}
}

func (m *MockStore) UpsertBook(provider, providerID string, meta models.BookMetadata) (string, error) {
	if m.FailWith != nil {
		return "", m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	id := identity.BookID(provider, providerID)
	now := time.Now().UTC()
	createdAt := now
	if prev, ok := m.books[id]; ok {
		createdAt = prev.CreatedAt
	}
	m.books[id] = BookRow{
		ID:            id,
		Provider:      provider,
		ProviderID:    providerID,
		Title:         meta.Title,
		Subtitle:      meta.Subtitle,
		Author:        meta.Author,
		Narrator:      meta.Narrator,
		Publisher:     meta.Publisher,
		PublishedYear: meta.PublishedYear,
		Description:   meta.Description,
		Cover:         meta.Cover,
		ISBN:          meta.ISBN,
		ASIN:          meta.ASIN,
		Genres:        meta.Genres,
		Tags:          meta.Tags,
		Series:        meta.Series,
		Language:      meta.Language,
		Duration:      meta.Duration,
		CreatedAt:     createdAt,
		UpdatedAt:     now,
	}
	return id, nil
}

func (m *MockStore) GetBook(provider, providerID string) (*BookRow, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.books[identity.BookID(provider, providerID)]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (m *MockStore) GetBooksByIDs(ids []string) ([]BookRow, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var rows []BookRow
	for _, id := range ids {
		if row, ok := m.books[id]; ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (m *MockStore) PutSearchResults(fingerprint, provider string, bookIDs []string, ttl time.Duration) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[fingerprint] = mockSearch{
		provider:  provider,
		bookIDs:   append([]string(nil), bookIDs...),
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (m *MockStore) GetSearchResults(fingerprint string) ([]string, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[fingerprint]
	if !ok || !entry.expiresAt.After(time.Now()) {
		return nil, nil
	}
	return append([]string(nil), entry.bookIDs...), nil
}

func (m *MockStore) DeleteProvider(provider string) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, row := range m.books {
		if row.Provider == provider {
			delete(m.books, id)
		}
	}
	for fp, entry := range m.entries {
		if entry.provider == provider {
			delete(m.entries, fp)
		}
	}
	return nil
}

func (m *MockStore) DeleteExpired(now time.Time) (int64, error) {
	if m.FailWith != nil {
		return 0, m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for fp, entry := range m.entries {
		if !entry.expiresAt.After(now) {
			delete(m.entries, fp)
			removed++
		}
	}
	return removed, nil
}

func (m *MockStore) Close() error { return nil }

// DeleteBook removes a single book row directly, bypassing provider-scoped
// invalidation. Tests use it to create dangling search references.
func (m *MockStore) DeleteBook(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.books, id)
}

// BookCount reports the number of stored book rows.
func (m *MockStore) BookCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.books)
}
