// file: internal/providers/storytel/storytel.go
// version: 1.0.0
// guid: 7e3b0f8a-1d6c-4a9e-8f4b-2c7d5a0e9b3f

package storytel

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/jdfalk/abs-meta/internal/cache"
	"github.com/jdfalk/abs-meta/internal/models"
)

const providerName = "storytel"

// maxResults caps how many search hits get a detail lookup; each hit
// costs an extra upstream round trip.
const maxResults = 5

// Provider implements the Storytel catalog backend. The language path
// parameter is required and selects the request locale.
type Provider struct {
	config models.ProviderConfig
	client *Client
	cache  *cache.Service
}

// New creates the Storytel provider backed by the given cache. The API
// base URL comes from the provider config, overridable through the
// STORYTEL_BASE_URL environment variable.
func New(svc *cache.Service) *Provider {
	p := NewWithClient(svc, nil)
	baseURL := os.Getenv("STORYTEL_BASE_URL")
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
			BaseURL:        "https://www.storytel.com/api",
			RequiredParams: []string{"language"},
			OptionalParams: []string{},
			ParameterWhitelists: map[string][]string{
				"language": {
					"en", "sv", "no", "dk", "fi", "is", "de", "es", "fr", "it",
					"pl", "nl", "pt", "bg", "tr", "ru", "ar", "hi", "id", "th",
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

// Search queries the Storytel catalog and resolves each hit to full
// metadata, short-circuiting through the book cache when a hit is
// already known. Upstream failures degrade to an empty result list.
func (p *Provider) Search(ctx context.Context, query models.SearchQuery, pathParams map[string]string) ([]models.BookMetadata, error) {
	if query.Query == "" {
		return nil, nil
	}

	locale := pathParams["language"]
	if locale == "" {
		locale = "en"
	}

	resp, err := p.client.SearchBooks(ctx, buildSearchQuery(query), locale)
	if err != nil {
		log.Printf("[WARN] storytel search failed: %v", err)
		return nil, nil
	}
	if resp == nil || len(resp.Books) == 0 {
		return nil, nil
	}

	hits := resp.Books
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}

	var results []models.BookMetadata
	for _, hit := range hits {
		bookID := hit.Book.ID.String()
		if bookID == "" {
			continue
		}

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

		details, err := p.client.GetBookDetails(ctx, bookID, locale)
		if err != nil {
			log.Printf("[WARN] storytel details fetch failed for %s: %v", bookID, err)
			continue
		}

		meta := formatBookMetadata(details)
		if meta == nil {
			log.Printf("[WARN] storytel record %s could not be formatted", bookID)
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

// buildSearchQuery reduces the inbound query to the terms Storytel
// searches well on: title text before any colon, the author when not
// already present, and the isbn.
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
