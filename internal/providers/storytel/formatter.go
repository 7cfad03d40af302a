// file: internal/providers/storytel/formatter.go
// version: 1.0.0
// guid: 2c8f5b0d-9a4e-4d1c-8b6f-3e7a0c5d9b2e

package storytel

import (
	"regexp"
	"strings"

	"github.com/jdfalk/abs-meta/internal/models"
)

// titlePatterns strip series/episode prefixes and edition suffixes that
// Storytel embeds in localized title strings.
var titlePatterns = []*regexp.Regexp{
	// German
	regexp.MustCompile(`(?i)^.*?,\s*Folge\s*\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?,\s*Band\s*\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?\s+-\s+\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?\s+\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?,\s*Teil\s*\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?,\s*Volume\s*\d+:\s*`),
	regexp.MustCompile(`(?i)\s*\((Ungekürzt|Gekürzt)\)\s*$`),
	regexp.MustCompile(`(?i),\s*Teil\s+\d+$`),
	regexp.MustCompile(`(?i)-\s*.*?(?:Reihe|Serie)\s+\d+$`),

	// Dutch/Belgian
	regexp.MustCompile(`(?i)^.*?,\s*Aflevering\s*\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?,\s*Deel\s*\d+:\s*`),

	// Portuguese/Brazilian
	regexp.MustCompile(`(?i)^.*?,\s*Episódio\s*\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?,\s*Parte\s*\d+:\s*`),

	// Bulgarian
	regexp.MustCompile(`(?i)^.*?,\s*епизод\s*\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?,\s*том\s*\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?,\s*част\s*\d+:\s*`),

	// Spanish
	regexp.MustCompile(`(?i)^.*?,\s*Episodio\s*\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?,\s*Volumen\s*\d+:\s*`),

	// Danish
	regexp.MustCompile(`(?i)^.*?,\s*Afsnit\s*\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?,\s*Bind\s*\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?,\s*Del\s*\d+:\s*`),

	// Arabic
	regexp.MustCompile(`(?i)^.*?,\s*حلقة\s*\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?,\s*مجلد\s*\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?,\s*جزء\s*\d+:\s*`),

	// Finnish
	regexp.MustCompile(`(?i)^.*?,\s*Jakso\s*\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?,\s*Volyymi\s*\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?,\s*Osa\s*\d+:\s*`),

	// French
	regexp.MustCompile(`(?i)^.*?,\s*Épisode\s*\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?,\s*Tome\s*\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?,\s*Partie\s*\d+:\s*`),

	// Indonesian
	regexp.MustCompile(`(?i)^.*?,\s*Episode\s*\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?,\s*Bagian\s*\d+:\s*`),

	// Hebrew
	regexp.MustCompile(`(?i)^.*?,\s*פרק\s*\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?,\s*כרך\s*\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?,\s*חלק\s*\d+:\s*`),

	// Hindi
	regexp.MustCompile(`(?i)^.*?,\s*कड़ी\s*\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?,\s*खण्ड\s*\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?,\s*भाग\s*\d+:\s*`),

	// Icelandic
	regexp.MustCompile(`(?i)^.*?,\s*Þáttur\s*\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?,\s*Bindi\s*\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?,\s*Hluti\s*\d+:\s*`),

	// Polish
	regexp.MustCompile(`(?i)^.*?,\s*Odcinek\s*\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?,\s*Tom\s*\d+:\s*`),
	regexp.MustCompile(`(?i)^.*?,\s*Część\s*\d+:\s*`),

	// Swedish
	regexp.MustCompile(`(?i)^.*?,\s*Avsnitt\s*\d+:\s*`),
}

// cleanTitle removes series/episode noise from a raw title. When the
// series name is known and embedded in the title, everything from the
// series name onwards is dropped as well.
func cleanTitle(title, seriesName string) string {
	cleaned := title
	for _, pattern := range titlePatterns {
		cleaned = pattern.ReplaceAllString(cleaned, "")
	}
	cleaned = strings.TrimSpace(cleaned)

	if seriesName != "" && strings.Contains(cleaned, seriesName) {
		re, err := regexp.Compile(`(?i)^(.+?)[-,]\s*` + regexp.QuoteMeta(seriesName))
		if err == nil {
			if match := re.FindStringSubmatch(cleaned); match != nil {
				cleaned = strings.TrimSpace(match[1])
			}
		}
	}
	return strings.TrimSpace(cleaned)
}

// extractSubtitle splits "Title: Subtitle" (or "Title - Subtitle") when
// the tail is substantial enough to be a real subtitle.
func extractSubtitle(title string) (string, string) {
	if strings.ContainsAny(title, ":-") {
		parts := strings.FieldsFunc(title, func(r rune) bool { return r == ':' || r == '-' })
		if len(parts) > 1 && len(strings.TrimSpace(parts[1])) >= 3 {
			return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		}
	}
	return strings.TrimSpace(title), ""
}

// splitGenre breaks Storytel's combined category title into genre names.
func splitGenre(genre string) []string {
	var genres []string
	for _, g := range strings.FieldsFunc(genre, func(r rune) bool { return r == '/' || r == ',' }) {
		g = strings.TrimSpace(g)
		if g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}

// upgradeCoverURL rewrites a relative cover path to an absolute URL at
// the highest resolution Storytel serves.
func upgradeCoverURL(coverPath string) string {
	if coverPath == "" {
		return ""
	}
	return "https://storytel.com" + strings.Replace(coverPath, "320x320", "1024x1024", 1)
}

// formatBookMetadata converts a Storytel detail response to the shared
// metadata shape. Audiobook fields win over ebook fields when both exist.
func formatBookMetadata(details *bookDetails) *models.BookMetadata {
	if details == nil || details.SLB == nil || details.SLB.Book == nil {
		return nil
	}

	book := details.SLB.Book
	abook := details.SLB.Abook
	ebook := details.SLB.Ebook
	if abook == nil && ebook == nil {
		return nil
	}

	var series []models.SeriesMetadata
	seriesName := ""
	if len(book.Series) > 0 && book.SeriesOrder.String() != "" {
		seriesName = strings.TrimSpace(book.Series[0].Name)
		series = []models.SeriesMetadata{{
			Series:   seriesName,
			Sequence: book.SeriesOrder.String(),
		}}
	}

	title, subtitle := extractSubtitle(cleanTitle(book.Name, seriesName))

	language := "en"
	if book.Language != nil && book.Language.ISOValue != "" {
		language = book.Language.ISOValue
	}

	var genres []string
	if book.Category != nil {
		genres = splitGenre(strings.TrimSpace(book.Category.Title))
	}

	meta := models.BookMetadata{
		Title:    title,
		Subtitle: subtitle,
		Author:   strings.TrimSpace(book.AuthorsAsString),
		Language: language,
		Genres:   genres,
		Series:   series,
		Cover:    upgradeCoverURL(book.LargeCover),
	}

	if abook != nil {
		meta.Narrator = strings.TrimSpace(abook.NarratorAsString)
		meta.Description = strings.TrimSpace(abook.Description)
		meta.ISBN = strings.TrimSpace(abook.ISBN)
		if abook.Publisher != nil {
			meta.Publisher = strings.TrimSpace(abook.Publisher.Name)
		}
		if abook.ReleaseDateFormat != "" && len(abook.ReleaseDateFormat) >= 4 {
			meta.PublishedYear = abook.ReleaseDateFormat[:4]
		}
		if abook.Length > 0 {
			meta.Duration = int(abook.Length / 60000) // ms to minutes
		}
	}
	if ebook != nil {
		if meta.Description == "" {
			meta.Description = strings.TrimSpace(ebook.Description)
		}
		if meta.ISBN == "" {
			meta.ISBN = strings.TrimSpace(ebook.ISBN)
		}
		if meta.Publisher == "" && ebook.Publisher != nil {
			meta.Publisher = strings.TrimSpace(ebook.Publisher.Name)
		}
		if meta.PublishedYear == "" && len(ebook.ReleaseDateFormat) >= 4 {
			meta.PublishedYear = ebook.ReleaseDateFormat[:4]
		}
	}

	return &meta
}
