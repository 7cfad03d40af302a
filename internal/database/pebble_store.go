// file: internal/database/pebble_store.go
// version: 1.1.0
// guid: 6d3a9f1e-8b4c-4d7a-9e2f-5c1b8a6d0e4f

package database

import (
	"encoding/json"
	"fmt"
	"time"

	pebble "github.com/cockroachdb/pebble/v2"

	"github.com/jdfalk/abs-meta/internal/identity"
	"github.com/jdfalk/abs-meta/internal/models"
)

// PebbleStore implements the Store interface using PebbleDB (LSM key-value store)
//
// Key Schema:
// - book:<provider>:<provider_id> -> BookRow JSON
// - search:<fingerprint>          -> searchEntry JSON (provider, ids, expiry)
//
// The book key embeds the canonical row id (provider:provider_id), so a
// lookup by id is a lookup by key. Provider-scoped deletes iterate the
// book:<provider>: prefix; search entries carry the provider inline and
// are filtered during the sweep.
type PebbleStore struct {
	db *pebble.DB
}

type searchEntry struct {
	Provider  string    `json:"provider"`
	BookIDs   []string  `json:"bookIds"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewPebbleStore creates a new PebbleDB store
func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open PebbleDB: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

// Close closes the database
func (p *PebbleStore) Close() error {
	return p.db.Close()
}

func bookKey(provider, providerID string) []byte {
	return []byte("book:" + provider + ":" + providerID)
}

// UpsertBook inserts or replaces the row for (provider, provider_id).
// CreatedAt survives replacement; UpdatedAt always advances.
func (p *PebbleStore) UpsertBook(provider, providerID string, meta models.BookMetadata) (string, error) {
	id := identity.BookID(provider, providerID)
	key := bookKey(provider, providerID)
	now := time.Now().UTC()

	row := BookRow{
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
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if existing, closer, err := p.db.Get(key); err == nil {
		var prev BookRow
		if err := json.Unmarshal(existing, &prev); err == nil && !prev.CreatedAt.IsZero() {
			row.CreatedAt = prev.CreatedAt
		}
		closer.Close()
	} else if err != pebble.ErrNotFound {
		return "", fmt.Errorf("failed to read existing book %s: %w", id, err)
	}

	value, err := json.Marshal(row)
	if err != nil {
		return "", fmt.Errorf("failed to encode book %s: %w", id, err)
	}
	if err := p.db.Set(key, value, pebble.Sync); err != nil {
		return "", fmt.Errorf("failed to upsert book %s: %w", id, err)
	}
	return id, nil
}

// GetBook returns the row for (provider, provider_id), or nil when absent
func (p *PebbleStore) GetBook(provider, providerID string) (*BookRow, error) {
	value, closer, err := p.db.Get(bookKey(provider, providerID))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var row BookRow
	if err := json.Unmarshal(value, &row); err != nil {
		return nil, fmt.Errorf("failed to decode book %s:%s: %w", provider, providerID, err)
	}
	return &row, nil
}

// GetBooksByIDs returns the rows for the given ids; missing ids are skipped
func (p *PebbleStore) GetBooksByIDs(ids []string) ([]BookRow, error) {
	var books []BookRow
	for _, id := range ids {
		value, closer, err := p.db.Get([]byte("book:" + id))
		if err == pebble.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}

		var row BookRow
		unmarshalErr := json.Unmarshal(value, &row)
		closer.Close()
		if unmarshalErr != nil {
			return nil, fmt.Errorf("failed to decode book %s: %w", id, unmarshalErr)
		}
		books = append(books, row)
	}
	return books, nil
}

// PutSearchResults inserts or replaces the search entry for fingerprint
func (p *PebbleStore) PutSearchResults(fingerprint, provider string, bookIDs []string, ttl time.Duration) error {
	now := time.Now().UTC()
	entry := searchEntry{
		Provider:  provider,
		BookIDs:   bookIDs,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode search entry: %w", err)
	}
	if err := p.db.Set([]byte("search:"+fingerprint), value, pebble.Sync); err != nil {
		return fmt.Errorf("failed to store search results: %w", err)
	}
	return nil
}

// GetSearchResults returns the ordered book ids for fingerprint. Expiry is
// checked on read; a stale entry is a miss even before the reaper runs.
func (p *PebbleStore) GetSearchResults(fingerprint string) ([]string, error) {
	value, closer, err := p.db.Get([]byte("search:" + fingerprint))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var entry searchEntry
	if err := json.Unmarshal(value, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode search entry %s: %w", fingerprint, err)
	}
	if !entry.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	return entry.BookIDs, nil
}

// DeleteProvider removes all book rows and search entries for provider
func (p *PebbleStore) DeleteProvider(provider string) error {
	batch := p.db.NewBatch()
	defer batch.Close()

	prefix := []byte("book:" + provider + ":")
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: append(prefix, 0xFF),
	})
	if err != nil {
		return err
	}
	for iter.First(); iter.Valid(); iter.Next() {
		key := append([]byte(nil), iter.Key()...)
		if err := batch.Delete(key, nil); err != nil {
			iter.Close()
			return err
		}
	}
	if err := iter.Close(); err != nil {
		return err
	}

	searchIter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("search:"),
		UpperBound: []byte("search;"),
	})
	if err != nil {
		return err
	}
	for searchIter.First(); searchIter.Valid(); searchIter.Next() {
		var entry searchEntry
		if err := json.Unmarshal(searchIter.Value(), &entry); err != nil {
			continue
		}
		if entry.Provider != provider {
			continue
		}
		key := append([]byte(nil), searchIter.Key()...)
		if err := batch.Delete(key, nil); err != nil {
			searchIter.Close()
			return err
		}
	}
	if err := searchIter.Close(); err != nil {
		return err
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to delete provider %s: %w", provider, err)
	}
	return nil
}

// DeleteExpired removes search entries whose expiry has passed
func (p *PebbleStore) DeleteExpired(now time.Time) (int64, error) {
	batch := p.db.NewBatch()
	defer batch.Close()

	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("search:"),
		UpperBound: []byte("search;"),
	})
	if err != nil {
		return 0, err
	}

	var removed int64
	for iter.First(); iter.Valid(); iter.Next() {
		var entry searchEntry
		if err := json.Unmarshal(iter.Value(), &entry); err != nil {
			continue
		}
		if entry.ExpiresAt.After(now) {
			continue
		}
		key := append([]byte(nil), iter.Key()...)
		if err := batch.Delete(key, nil); err != nil {
			iter.Close()
			return 0, err
		}
		removed++
	}
	if err := iter.Close(); err != nil {
		return 0, err
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return 0, fmt.Errorf("failed to delete expired search entries: %w", err)
	}
	return removed, nil
}
