// file: internal/database/sqlite_store.go
// version: 1.3.0
// guid: 8e1f4a7c-5d2b-4c9e-a3f8-6b0d1e4c7a2f

package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jdfalk/abs-meta/internal/identity"
	"github.com/jdfalk/abs-meta/internal/models"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

const bookSelectColumns = `
	id, provider, provider_id, title, subtitle, author, narrator,
	publisher, published_year, description, cover, isbn, asin,
	genres, tags, series, language, duration, created_at, updated_at
`

func scanBook(scanner rowScanner, row *BookRow) error {
	var subtitle, author, narrator, publisher, publishedYear sql.NullString
	var description, cover, isbn, asin, language sql.NullString
	var genres, tags, series sql.NullString
	var duration sql.NullInt64

	err := scanner.Scan(
		&row.ID, &row.Provider, &row.ProviderID, &row.Title, &subtitle,
		&author, &narrator, &publisher, &publishedYear, &description,
		&cover, &isbn, &asin, &genres, &tags, &series, &language,
		&duration, &row.CreatedAt, &row.UpdatedAt,
	)
	if err != nil {
		return err
	}

	row.Subtitle = subtitle.String
	row.Author = author.String
	row.Narrator = narrator.String
	row.Publisher = publisher.String
	row.PublishedYear = publishedYear.String
	row.Description = description.String
	row.Cover = cover.String
	row.ISBN = isbn.String
	row.ASIN = asin.String
	row.Language = language.String
	row.Duration = int(duration.Int64)

	if genres.Valid && genres.String != "" {
		if err := json.Unmarshal([]byte(genres.String), &row.Genres); err != nil {
			return fmt.Errorf("failed to decode genres for %s: %w", row.ID, err)
		}
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &row.Tags); err != nil {
			return fmt.Errorf("failed to decode tags for %s: %w", row.ID, err)
		}
	}
	if series.Valid && series.String != "" {
		if err := json.Unmarshal([]byte(series.String), &row.Series); err != nil {
			return fmt.Errorf("failed to decode series for %s: %w", row.ID, err)
		}
	}
	return nil
}

// SQLiteStore implements the Store interface using SQLite3
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	store := &SQLiteStore{db: db}

	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return store, nil
}

// createTables creates all required tables
func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS books (
		id TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		provider_id TEXT NOT NULL,
		title TEXT NOT NULL,
		subtitle TEXT,
		author TEXT,
		narrator TEXT,
		publisher TEXT,
		published_year TEXT,
		description TEXT,
		cover TEXT,
		isbn TEXT,
		asin TEXT,
		genres TEXT,
		tags TEXT,
		series TEXT,
		language TEXT,
		duration INTEGER,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(provider, provider_id)
	);

	CREATE INDEX IF NOT EXISTS idx_books_provider ON books(provider);
	CREATE INDEX IF NOT EXISTS idx_books_provider_id ON books(provider, provider_id);

	CREATE TABLE IF NOT EXISTS search_cache (
		id TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		book_ids TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		expires_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_search_cache_provider ON search_cache(provider);
	CREATE INDEX IF NOT EXISTS idx_search_cache_provider_expires ON search_cache(provider, expires_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertBook inserts or replaces the row keyed by (provider, provider_id).
// INSERT OR REPLACE keeps the replace atomic at the statement level, which
// is all the concurrency the cache needs (last write wins, no field merge).
func (s *SQLiteStore) UpsertBook(provider, providerID string, meta models.BookMetadata) (string, error) {
	id := identity.BookID(provider, providerID)

	genres, err := encodeJSONList(meta.Genres)
	if err != nil {
		return "", fmt.Errorf("failed to encode genres: %w", err)
	}
	tags, err := encodeJSONList(meta.Tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	var series interface{}
	if len(meta.Series) > 0 {
		raw, err := json.Marshal(meta.Series)
		if err != nil {
			return "", fmt.Errorf("failed to encode series: %w", err)
		}
		series = string(raw)
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(`
		INSERT INTO books (
			id, provider, provider_id, title, subtitle, author, narrator,
			publisher, published_year, description, cover, isbn, asin,
			genres, tags, series, language, duration, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(provider, provider_id) DO UPDATE SET
			title = excluded.title,
			subtitle = excluded.subtitle,
			author = excluded.author,
			narrator = excluded.narrator,
			publisher = excluded.publisher,
			published_year = excluded.published_year,
			description = excluded.description,
			cover = excluded.cover,
			isbn = excluded.isbn,
			asin = excluded.asin,
			genres = excluded.genres,
			tags = excluded.tags,
			series = excluded.series,
			language = excluded.language,
			duration = excluded.duration,
			updated_at = excluded.updated_at`,
		id, provider, providerID, meta.Title, meta.Subtitle, meta.Author,
		meta.Narrator, meta.Publisher, meta.PublishedYear, meta.Description,
		meta.Cover, meta.ISBN, meta.ASIN, genres, tags, series,
		meta.Language, meta.Duration, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to upsert book %s: %w", id, err)
	}
	return id, nil
}

func encodeJSONList(values []string) (interface{}, error) {
	if len(values) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// GetBook returns the row for (provider, provider_id), or nil when absent
func (s *SQLiteStore) GetBook(provider, providerID string) (*BookRow, error) {
	var row BookRow
	err := scanBook(s.db.QueryRow(
		"SELECT "+bookSelectColumns+" FROM books WHERE provider = ? AND provider_id = ?",
		provider, providerID,
	), &row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetBooksByIDs returns the rows for the given ids in no particular order
func (s *SQLiteStore) GetBooksByIDs(ids []string) ([]BookRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.Query(
		"SELECT "+bookSelectColumns+" FROM books WHERE id IN ("+placeholders+")",
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []BookRow
	for rows.Next() {
		var book BookRow
		if err := scanBook(rows, &book); err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

// PutSearchResults inserts or replaces the search entry for fingerprint
func (s *SQLiteStore) PutSearchResults(fingerprint, provider string, bookIDs []string, ttl time.Duration) error {
	raw, err := json.Marshal(bookIDs)
	if err != nil {
		return fmt.Errorf("failed to encode book ids: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO search_cache (id, provider, book_ids, created_at, expires_at) VALUES (?, ?, ?, ?, ?)",
		fingerprint, provider, string(raw), now, now.Add(ttl),
	)
	if err != nil {
		return fmt.Errorf("failed to store search results: %w", err)
	}
	return nil
}

// GetSearchResults returns the ordered book ids for fingerprint. The expiry
// check happens in the query itself so a stale row is a miss even before
// DeleteExpired has physically reclaimed it.
func (s *SQLiteStore) GetSearchResults(fingerprint string) ([]string, error) {
	var raw string
	err := s.db.QueryRow(
		"SELECT book_ids FROM search_cache WHERE id = ? AND expires_at > ?",
		fingerprint, time.Now().UTC(),
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("failed to decode book ids for %s: %w", fingerprint, err)
	}
	return ids, nil
}

// DeleteProvider removes all book rows and search entries for provider
func (s *SQLiteStore) DeleteProvider(provider string) error {
	if _, err := s.db.Exec("DELETE FROM books WHERE provider = ?", provider); err != nil {
		return fmt.Errorf("failed to delete books for provider %s: %w", provider, err)
	}
	if _, err := s.db.Exec("DELETE FROM search_cache WHERE provider = ?", provider); err != nil {
		return fmt.Errorf("failed to delete search entries for provider %s: %w", provider, err)
	}
	return nil
}

// DeleteExpired removes search entries whose expiry has passed. Only rows
// already logically expired are touched, so concurrent readers never see a
// live entry disappear.
func (s *SQLiteStore) DeleteExpired(now time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM search_cache WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired search entries: %w", err)
	}
	return res.RowsAffected()
}
