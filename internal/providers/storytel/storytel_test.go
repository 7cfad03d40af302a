// file: internal/providers/storytel/storytel_test.go
// version: 1.0.0
// guid: 8d2f5a9c-4e7b-4c0f-8a3d-1b6e9c4f7a0d

package storytel

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
	"github.com/jdfalk/abs-meta/internal/identity"
	"github.com/jdfalk/abs-meta/internal/models"
)

const searchBody = `{
	"books": [
		{"book": {"id": 123, "name": "Dune"}}
	]
}`

const detailsBody = `{
	"slb": {
		"book": {
			"id": 123,
			"name": "Dune",
			"authorsAsString": "Frank Herbert",
			"language": {"isoValue": "en"},
			"largeCover": "/images/320x320/dune.jpg"
		},
		"abook": {
			"isbn": "9780441013593",
			"description": "Arrakis, the desert planet.",
			"publisher": {"name": "Macmillan Audio"},
			"releaseDateFormat": "2020-01-15",
			"length": 75960000,
			"narratorAsString": "Scott Brick"
		}
	}
}`

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*Provider, *database.MockStore) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := database.NewMockStore()
	svc := cache.NewService(store, map[string]identity.Strategy{
		providerName: identity.GlobalIdentifierFirst{},
	}, func() time.Duration { return time.Hour })

	return NewWithClient(svc, NewClientWithBaseURL(server.URL)), store
}

func TestProviderConfig(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {})

	cfg := provider.Config()
	assert.Equal(t, "storytel", cfg.Name)
	assert.Equal(t, []string{"language"}, cfg.RequiredParams)
	assert.Contains(t, cfg.ParameterWhitelists["language"], "sv")
}

func TestNewUsesConfiguredBaseURL(t *testing.T) {
	svc := cache.NewService(database.NewMockStore(), nil, func() time.Duration { return time.Hour })

	provider := New(svc)
	assert.Equal(t, provider.config.BaseURL, provider.client.baseURL)

	t.Setenv("STORYTEL_BASE_URL", "http://127.0.0.1:9/api/")
	provider = New(svc)
	assert.Equal(t, "http://127.0.0.1:9/api", provider.client.baseURL)
}

func TestSearchFetchesDetailsAndCaches(t *testing.T) {
	var detailCalls int
	provider, store := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search.action":
			assert.Equal(t, "sv", r.URL.Query().Get("request_locale"))
			_, _ = w.Write([]byte(searchBody))
		case "/getBookInfoForContent.action":
			detailCalls++
			assert.Equal(t, "123", r.URL.Query().Get("bookId"))
			_, _ = w.Write([]byte(detailsBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	results, err := provider.Search(context.Background(), models.SearchQuery{Query: "dune"}, map[string]string{"language": "sv"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "Dune", results[0].Title)
	assert.Equal(t, "Frank Herbert", results[0].Author)
	assert.Equal(t, "123", results[0].ProviderID)

	// The record was cached under its native id.
	row, err := store.GetBook("storytel", "123")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "Dune", row.Title)
	assert.Equal(t, 1, detailCalls)

	// A second search short-circuits through the book cache.
	_, err = provider.Search(context.Background(), models.SearchQuery{Query: "dune"}, map[string]string{"language": "sv"})
	require.NoError(t, err)
	assert.Equal(t, 1, detailCalls)
}

func TestSearchEmptyQueryReturnsNothing(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no upstream call expected")
	})

	results, err := provider.Search(context.Background(), models.SearchQuery{}, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchUpstreamFailureDegradesToEmpty(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	results, err := provider.Search(context.Background(), models.SearchQuery{Query: "dune"}, map[string]string{"language": "en"})
	require.NoError(t, err, "upstream failures are not the caller's problem")
	assert.Empty(t, results)
}

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		name  string
		query models.SearchQuery
		want  string
	}{
		{"query only", models.SearchQuery{Query: "dune"}, "dune"},
		{"subtitle stripped", models.SearchQuery{Query: "dune: part one"}, "dune"},
		{"author appended", models.SearchQuery{Query: "dune", Author: "Frank Herbert"}, "dune Frank Herbert"},
		{"author already present", models.SearchQuery{Query: "dune Frank Herbert", Author: "Frank Herbert"}, "dune Frank Herbert"},
		{"isbn appended", models.SearchQuery{Query: "dune", ISBN: "9780441013593"}, "dune 9780441013593"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildSearchQuery(tt.query))
		})
	}
}
