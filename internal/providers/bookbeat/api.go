// file: internal/providers/bookbeat/api.go
// version: 1.0.0
// guid: 5f9c2e7b-0a4d-4b8f-9c3e-6d1a8f4b0e7c

package bookbeat

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

// marketLanguages maps BookBeat market codes to the language filter
// values the search endpoint understands.
var marketLanguages = map[string]string{
	"at": "german",
	"be": "dutch",
	"bg": "bulgarian",
	"hr": "croatian",
	"cy": "greek",
	"cz": "czech",
	"dk": "danish",
	"ee": "estonian",
	"fi": "finnish",
	"fr": "french",
	"de": "german",
	"gr": "greek",
	"hu": "hungarian",
	"ie": "english",
	"it": "italian",
	"lv": "latvian",
	"lt": "lithuanian",
	"lu": "french",
	"en": "english",
	"nl": "dutch",
	"no": "norwegian",
	"pl": "polish",
	"pt": "portuguese",
	"ro": "romanian",
	"sk": "slovak",
	"si": "slovenian",
	"es": "spanish",
	"se": "swedish",
	"ch": "german",
	"gb": "english",
}

// Client fetches search results from the BookBeat next/search endpoint.
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
	Count    int `json:"count"`
	Embedded struct {
		Books []bookResult `json:"books"`
	} `json:"_embedded"`
}

type bookResult struct {
	ID              int64       `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Image           string      `json:"image"`
	Author          string      `json:"author"`
	Language        string      `json:"language"`
	AudiobookISBN   string      `json:"audiobookisbn"`
	EbookISBN       string      `json:"ebookisbn"`
	Published       string      `json:"published"`
	ContentTypeTags []string    `json:"contenttypetags"`
	Series          *seriesInfo `json:"series"`
	Embedded        struct {
		Contributors []contributor `json:"contributors"`
	} `json:"_embedded"`
}

type seriesInfo struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PartNumber int    `json:"partnumber"`
}

type contributor struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"displayname"`
	Role        string `json:"role"`
}

// SearchBooks runs a catalog search. languages is the raw comma-separated
// market code list from the path parameter; each market maps to a
// repeated language filter.
func (c *Client) SearchBooks(ctx context.Context, query, languages string) (*searchResponse, error) {
	params := url.Values{}
	params.Set("query", query)
	if languages != "" {
		for _, market := range strings.Split(languages, ",") {
			if lang, ok := marketLanguages[strings.TrimSpace(market)]; ok {
				params.Add("language", lang)
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/next/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search BookBeat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("BookBeat API returned status %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode BookBeat response: %w", err)
	}
	return &result, nil
}
