// file: internal/providers/bookbeat/bookbeat.go
// version: 1.0.0
// guid: 4a7d0c3f-6b9e-4e2a-8d5c-1f8b3e6a9d4c

package bookbeat

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jdfalk/abs-meta/internal/cache"
	"github.com/jdfalk/abs-meta/internal/models"
)

const providerName = "bookbeat"

// maxResults caps how many search hits are formatted; BookBeat returns
// full records inline so no detail round trips are needed.
const maxResults = 15

// Provider implements the BookBeat catalog backend. The language path
// parameter is optional and accepts a comma-separated list of market
// codes.
type Provider struct {
	config models.ProviderConfig
	client *Client
	cache  *cache.Service
}

// New creates the BookBeat provider backed by the given cache. The API
// base URL comes from the provider config, overridable through the
// BOOKBEAT_BASE_URL environment variable.
func New(svc *cache.Service) *Provider {
	p := NewWithClient(svc, nil)
	baseURL := os.Getenv("BOOKBEAT_BASE_URL")
	if baseURL == "" {
		baseURL = p.config.BaseURL
	}
	p.client = NewClientWithBaseURL(baseURL)
	return p
}

// NewWithClient creates the provider with a custom API client (for testing).
func NewWithClient(svc *cache.Service, client *Client) *Provider {
	return &Provider{
		config: models.ProviderConfig{
			Name:           providerName,
			BaseURL:        "https://www.bookbeat.com/api",
			RequiredParams: []string{},
			OptionalParams: []string{"language"},
			CommaSeparated: []string{"language"},
			ParameterWhitelists: map[string][]string{
				"language": {
					"at", "be", "bg", "hr", "cy", "cz", "dk", "ee", "fi", "fr",
					"de", "gr", "hu", "ie", "it", "lv", "lt", "lu", "en", "nl",
					"no", "pl", "pt", "ro", "sk", "si", "es", "se", "ch", "gb",
				},
			},
		},
		client: client,
		cache:  svc,
	}
}

// Config returns the provider's declared parameter contract.
func (p *Provider) Config() models.ProviderConfig {
	return p.config
}

// Search queries the BookBeat catalog, short-circuiting through the book
// cache for already-known records. Upstream failures degrade to an empty
// result list.
func (p *Provider) Search(ctx context.Context, query models.SearchQuery, pathParams map[string]string) ([]models.BookMetadata, error) {
	if query.Query == "" {
		return nil, nil
	}

	resp, err := p.client.SearchBooks(ctx, buildSearchQuery(query), pathParams["language"])
	if err != nil {
		log.Printf("[WARN] bookbeat search failed: %v", err)
		return nil, nil
	}
	if resp == nil || len(resp.Embedded.Books) == 0 {
		return nil, nil
	}

	hits := resp.Embedded.Books
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}

	var results []models.BookMetadata
	for i := range hits {
		book := &hits[i]
		if book.ID == 0 {
			continue
		}
		bookID := strconv.FormatInt(book.ID, 10)

		existing, err := p.cache.GetBook(providerName, bookID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			existing.ProviderID = bookID
			existing.Provider = providerName
			results = append(results, *existing)
			continue
		}

		meta := formatBookMetadata(book)
		if meta == nil {
			log.Printf("[WARN] bookbeat record %s could not be formatted", bookID)
			continue
		}
		meta.ProviderID = bookID
		meta.Provider = providerName

		if _, err := p.cache.StoreBook(providerName, *meta, bookID); err != nil {
			return nil, err
		}
		results = append(results, *meta)
	}
	return results, nil
}

func buildSearchQuery(query models.SearchQuery) string {
	var terms []string
	if query.Query != "" {
		terms = append(terms, strings.TrimSpace(strings.SplitN(query.Query, ":", 2)[0]))
	}
	if query.Author != "" && !strings.Contains(query.Query, query.Author) {
		terms = append(terms, query.Author)
	}
	if query.ISBN != "" {
		terms = append(terms, query.ISBN)
	}
	return strings.TrimSpace(strings.Join(terms, " "))
}
