// file: internal/providers/storytel/formatter_test.go
// version: 1.0.0
// guid: 0b5e8c2f-7d1a-4f4b-9e3c-6a9d0f3b8e1c

package storytel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfalk/abs-meta/internal/models"
)

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		series string
		want   string
	}{
		{"plain title untouched", "Dune", "", "Dune"},
		{"german folge prefix", "Sherlock Holmes, Folge 12: Das letzte Problem", "", "Das letzte Problem"},
		{"german band prefix", "Die Zwerge, Band 2: Der Krieg der Zwerge", "", "Der Krieg der Zwerge"},
		{"ungekuerzt suffix", "Der Prozess (Ungekürzt)", "", "Der Prozess"},
		{"swedish avsnitt prefix", "Morden i Sandhamn, Avsnitt 3: I grunden utan skuld", "", "I grunden utan skuld"},
		{"series name stripped", "I grunden utan skuld - Morden i Sandhamn del 3", "Morden i Sandhamn", "I grunden utan skuld"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanTitle(tt.title, tt.series))
		})
	}
}

func TestExtractSubtitle(t *testing.T) {
	title, subtitle := extractSubtitle("Dune: The Graphic Novel")
	assert.Equal(t, "Dune", title)
	assert.Equal(t, "The Graphic Novel", subtitle)

	// Short tails are not subtitles.
	title, subtitle = extractSubtitle("Catch-22")
	assert.Equal(t, "Catch-22", title)
	assert.Empty(t, subtitle)

	title, subtitle = extractSubtitle("Plain Title")
	assert.Equal(t, "Plain Title", title)
	assert.Empty(t, subtitle)
}

func TestSplitGenre(t *testing.T) {
	assert.Equal(t, []string{"Crime", "Thriller"}, splitGenre("Crime / Thriller"))
	assert.Equal(t, []string{"Kids", "Fantasy"}, splitGenre("Kids, Fantasy"))
	assert.Nil(t, splitGenre(""))
}

func TestUpgradeCoverURL(t *testing.T) {
	assert.Equal(t,
		"https://storytel.com/images/1024x1024/123.jpg",
		upgradeCoverURL("/images/320x320/123.jpg"))
	assert.Empty(t, upgradeCoverURL(""))
}

func TestFormatBookMetadata(t *testing.T) {
	details := &bookDetails{}
	details.SLB = &struct {
		Book  *bookInfo      `json:"book"`
		Abook *audiobookInfo `json:"abook"`
		Ebook *ebookInfo     `json:"ebook"`
	}{
		Book: &bookInfo{
			ID:              "123",
			Name:            "Dune: The Graphic Novel",
			AuthorsAsString: "Frank Herbert",
			Language:        &languageInfo{ISOValue: "en"},
			Category:        &categoryInfo{Title: "Science Fiction / Classic"},
			Series:          []seriesInfo{{Name: "Dune Chronicles"}},
			SeriesOrder:     "1",
			LargeCover:      "/images/320x320/dune.jpg",
		},
		Abook: &audiobookInfo{
			ISBN:              "9780441013593",
			Description:       "Arrakis, the desert planet.",
			Publisher:         &publisherInfo{Name: "Macmillan Audio"},
			ReleaseDateFormat: "2020-01-15",
			Length:            75960000,
			NarratorAsString:  "Scott Brick",
		},
	}

	meta := formatBookMetadata(details)
	require.NotNil(t, meta)

	assert.Equal(t, "Dune", meta.Title)
	assert.Equal(t, "The Graphic Novel", meta.Subtitle)
	assert.Equal(t, "Frank Herbert", meta.Author)
	assert.Equal(t, "Scott Brick", meta.Narrator)
	assert.Equal(t, "Macmillan Audio", meta.Publisher)
	assert.Equal(t, "2020", meta.PublishedYear)
	assert.Equal(t, "9780441013593", meta.ISBN)
	assert.Equal(t, []string{"Science Fiction", "Classic"}, meta.Genres)
	assert.Equal(t, []models.SeriesMetadata{{Series: "Dune Chronicles", Sequence: "1"}}, meta.Series)
	assert.Equal(t, "en", meta.Language)
	assert.Equal(t, 1266, meta.Duration)
	assert.Equal(t, "https://storytel.com/images/1024x1024/dune.jpg", meta.Cover)
}

func TestFormatBookMetadataEbookFallback(t *testing.T) {
	details := &bookDetails{}
	details.SLB = &struct {
		Book  *bookInfo      `json:"book"`
		Abook *audiobookInfo `json:"abook"`
		Ebook *ebookInfo     `json:"ebook"`
	}{
		Book: &bookInfo{ID: "7", Name: "Dune"},
		Ebook: &ebookInfo{
			ISBN:              "9780000000001",
			Description:       "An ebook description.",
			Publisher:         &publisherInfo{Name: "Ace"},
			ReleaseDateFormat: "1965-08-01",
		},
	}

	meta := formatBookMetadata(details)
	require.NotNil(t, meta)
	assert.Equal(t, "9780000000001", meta.ISBN)
	assert.Equal(t, "An ebook description.", meta.Description)
	assert.Equal(t, "Ace", meta.Publisher)
	assert.Equal(t, "1965", meta.PublishedYear)
	assert.Equal(t, "en", meta.Language, "missing language defaults to en")
	assert.Zero(t, meta.Duration)
}

func TestFormatBookMetadataRejectsIncompleteRecords(t *testing.T) {
	assert.Nil(t, formatBookMetadata(nil))
	assert.Nil(t, formatBookMetadata(&bookDetails{}))

	// A record with neither audiobook nor ebook content is unusable.
	details := &bookDetails{}
	details.SLB = &struct {
		Book  *bookInfo      `json:"book"`
		Abook *audiobookInfo `json:"abook"`
		Ebook *ebookInfo     `json:"ebook"`
	}{
		Book: &bookInfo{ID: "1", Name: "Dune"},
	}
	assert.Nil(t, formatBookMetadata(details))
}
