// file: internal/providers/bookbeat/formatter.go
// version: 1.0.0
// guid: 1d6e9a3f-8c2b-4f7d-0e5a-9b4c7f2a6d0e

package bookbeat

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jdfalk/abs-meta/internal/models"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// cleanDescription strips embedded HTML markup from a description.
func cleanDescription(description string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(description, ""))
}

// formatBookMetadata converts a BookBeat search result to the shared
// metadata shape.
func formatBookMetadata(book *bookResult) *models.BookMetadata {
	if book == nil || book.Title == "" {
		return nil
	}

	narrator := ""
	for _, c := range book.Embedded.Contributors {
		if c.Role == "bb-narrator" {
			narrator = strings.TrimSpace(c.DisplayName)
			break
		}
	}

	publishedYear := ""
	if book.Published != "" {
		if published, err := time.Parse(time.RFC3339, book.Published); err == nil {
			publishedYear = strconv.Itoa(published.Year())
		} else if len(book.Published) >= 4 {
			publishedYear = book.Published[:4]
		}
	}

	var series []models.SeriesMetadata
	if book.Series != nil {
		series = []models.SeriesMetadata{{
			Series:   strings.TrimSpace(book.Series.Name),
			Sequence: strconv.Itoa(book.Series.PartNumber),
		}}
	}

	isbn := book.AudiobookISBN
	if isbn == "" {
		isbn = book.EbookISBN
	}

	return &models.BookMetadata{
		Title:         strings.TrimSpace(book.Title),
		Author:        strings.TrimSpace(book.Author),
		Narrator:      narrator,
		Description:   cleanDescription(book.Description),
		Cover:         strings.Replace(book.Image, "?w=400", "?w=1024", 1),
		ISBN:          isbn,
		Language:      strings.TrimSpace(book.Language),
		PublishedYear: publishedYear,
		Series:        series,
		Tags:          book.ContentTypeTags,
	}
}
