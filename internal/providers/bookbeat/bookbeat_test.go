// file: internal/providers/bookbeat/bookbeat_test.go
// version: 1.0.0
// guid: 3e9b6d0f-2a5c-4d8e-9f1b-7c4a0e8d2b5f

package bookbeat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfalk/abs-meta/internal/cache"
	"github.com/jdfalk/abs-meta/internal/database"
	"github.com/jdfalk/abs-meta/internal/models"
)

const searchBody = `{
	"count": 1,
	"_embedded": {
		"books": [{
			"id": 42,
			"title": "Dune",
			"description": "<p>Arrakis, the <b>desert</b> planet.</p>",
			"image": "https://images.bookbeat.com/dune.jpg?w=400",
			"author": "Frank Herbert",
			"language": "english",
			"audiobookisbn": "9780441013593",
			"ebookisbn": null,
			"published": "1965-08-01T00:00:00Z",
			"contenttypetags": ["audiobook"],
			"series": {"id": 7, "name": "Dune Chronicles", "partnumber": 1},
			"_embedded": {
				"contributors": [
					{"id": 1, "displayname": "Frank Herbert", "role": "bb-author"},
					{"id": 2, "displayname": "Scott Brick", "role": "bb-narrator"}
				]
			}
		}]
	}
}`

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*Provider, *database.MockStore) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := database.NewMockStore()
	svc := cache.NewService(store, nil, func() time.Duration { return time.Hour })

	return NewWithClient(svc, NewClientWithBaseURL(server.URL)), store
}

func TestProviderConfig(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {})

	cfg := provider.Config()
	assert.Equal(t, "bookbeat", cfg.Name)
	assert.Empty(t, cfg.RequiredParams)
	assert.Equal(t, []string{"language"}, cfg.OptionalParams)
	assert.Equal(t, []string{"language"}, cfg.CommaSeparated)
	assert.Contains(t, cfg.ParameterWhitelists["language"], "se")
}

func TestNewUsesConfiguredBaseURL(t *testing.T) {
	svc := cache.NewService(database.NewMockStore(), nil, func() time.Duration { return time.Hour })

	provider := New(svc)
	assert.Equal(t, provider.config.BaseURL, provider.client.baseURL)

	t.Setenv("BOOKBEAT_BASE_URL", "http://127.0.0.1:9/api/")
	provider = New(svc)
	assert.Equal(t, "http://127.0.0.1:9/api", provider.client.baseURL)
}

func TestSearchFormatsAndCaches(t *testing.T) {
	provider, store := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/next/search", r.URL.Path)
		assert.Equal(t, "dune", r.URL.Query().Get("query"))
		// Market codes map to repeated language filters.
		assert.Equal(t, []string{"swedish", "german"}, r.URL.Query()["language"])
		_, _ = w.Write([]byte(searchBody))
	})

	results, err := provider.Search(context.Background(), models.SearchQuery{Query: "dune"}, map[string]string{"language": "se,de"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	meta := results[0]
	assert.Equal(t, "Dune", meta.Title)
	assert.Equal(t, "Frank Herbert", meta.Author)
	assert.Equal(t, "Scott Brick", meta.Narrator)
	assert.Equal(t, "Arrakis, the desert planet.", meta.Description)
	assert.Equal(t, "https://images.bookbeat.com/dune.jpg?w=1024", meta.Cover)
	assert.Equal(t, "9780441013593", meta.ISBN)
	assert.Equal(t, "1965", meta.PublishedYear)
	assert.Equal(t, []models.SeriesMetadata{{Series: "Dune Chronicles", Sequence: "1"}}, meta.Series)
	assert.Equal(t, []string{"audiobook"}, meta.Tags)
	assert.Equal(t, "42", meta.ProviderID)

	row, err := store.GetBook("bookbeat", "42")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "Dune", row.Title)
}

func TestSearchUsesCachedBook(t *testing.T) {
	var calls int
	provider, store := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(searchBody))
	})

	// Prime the book cache with a record under the native id.
	_, err := store.UpsertBook("bookbeat", "42", models.BookMetadata{Title: "Dune (cached)"})
	require.NoError(t, err)

	results, err := provider.Search(context.Background(), models.SearchQuery{Query: "dune"}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Dune (cached)", results[0].Title)
	assert.Equal(t, 1, calls, "only the search endpoint is hit")
}

func TestSearchUpstreamFailureDegradesToEmpty(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	results, err := provider.Search(context.Background(), models.SearchQuery{Query: "dune"}, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCleanDescription(t *testing.T) {
	assert.Equal(t, "Arrakis, the desert planet.",
		cleanDescription("<p>Arrakis, the <b>desert</b> planet.</p>"))
	assert.Empty(t, cleanDescription(""))
}

func TestFormatBookMetadataEmptyTitleRejected(t *testing.T) {
	assert.Nil(t, formatBookMetadata(&bookResult{}))
	assert.Nil(t, formatBookMetadata(nil))
}
