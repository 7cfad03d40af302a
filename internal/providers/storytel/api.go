// file: internal/providers/storytel/api.go
// version: 1.0.0
// guid: 6a1e9d4f-7b3c-4e8a-9d0f-2c5b8e1a4d7c

package storytel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const userAgent = "abs-meta/1.0"

// Client fetches search results and book details from the public
// Storytel API endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClientWithBaseURL creates a client for the given API base URL.
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type searchResponse struct {
	Books []searchResult `json:"books"`
}

type searchResult struct {
	Book bookInfo `json:"book"`
}

type bookInfo struct {
	ID              json.Number   `json:"id"`
	Name            string        `json:"name"`
	AuthorsAsString string        `json:"authorsAsString"`
	Language        *languageInfo `json:"language"`
	Category        *categoryInfo `json:"category"`
	Series          []seriesInfo  `json:"series"`
	SeriesOrder     json.Number   `json:"seriesOrder"`
	LargeCover      string        `json:"largeCover"`
}

type languageInfo struct {
	ISOValue string `json:"isoValue"`
}

type categoryInfo struct {
	Title string `json:"title"`
}

type seriesInfo struct {
	Name string `json:"name"`
}

type publisherInfo struct {
	Name string `json:"name"`
}

type audiobookInfo struct {
	ISBN              string         `json:"isbn"`
	Description       string         `json:"description"`
	Publisher         *publisherInfo `json:"publisher"`
	ReleaseDateFormat string         `json:"releaseDateFormat"`
	Length            int64          `json:"length"` // milliseconds
	NarratorAsString  string         `json:"narratorAsString"`
}

type ebookInfo struct {
	ISBN              string         `json:"isbn"`
	Description       string         `json:"description"`
	Publisher         *publisherInfo `json:"publisher"`
	ReleaseDateFormat string         `json:"releaseDateFormat"`
}

type bookDetails struct {
	SLB *struct {
		Book  *bookInfo      `json:"book"`
		Abook *audiobookInfo `json:"abook"`
		Ebook *ebookInfo     `json:"ebook"`
	} `json:"slb"`
}

// SearchBooks runs a catalog search for the given locale.
func (c *Client) SearchBooks(ctx context.Context, query, locale string) (*searchResponse, error) {
	params := url.Values{}
	params.Set("request_locale", locale)
	params.Set("q", strings.Join(strings.Fields(query), "+"))

	var resp searchResponse
	if err := c.getJSON(ctx, c.baseURL+"/search.action?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("failed to search Storytel: %w", err)
	}
	return &resp, nil
}

// GetBookDetails fetches the full metadata record for a book id.
func (c *Client) GetBookDetails(ctx context.Context, bookID, locale string) (*bookDetails, error) {
	params := url.Values{}
	params.Set("bookId", bookID)
	params.Set("request_locale", locale)

	var details bookDetails
	if err := c.getJSON(ctx, c.baseURL+"/getBookInfoForContent.action?"+params.Encode(), &details); err != nil {
		return nil, fmt.Errorf("failed to fetch Storytel book %s: %w", bookID, err)
	}
	return &details, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Storytel API returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
