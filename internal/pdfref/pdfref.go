// Package pdfref extracts reference material from PDF documents fetched for
// a DOI: the text of the references section and any DOIs appearing in it.
package pdfref

import (
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/dimarzo/citegraph/internal/doi"
)

var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// ExtractText extracts plain text from up to maxPages pages of a PDF.
// Pages that fail to render are skipped.
func ExtractText(r io.ReaderAt, size int64, maxPages int) (string, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", err
	}

	if maxPages <= 0 || maxPages > reader.NumPage() {
		maxPages = reader.NumPage()
	}

	var builder strings.Builder
	for i := 1; i <= maxPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

// ReferencesSection returns the text from the first case-insensitive
// "references" marker to the end, or "" when no marker exists.
func ReferencesSection(text string) string {
	idx := strings.Index(strings.ToLower(text), "references")
	if idx == -1 {
		return ""
	}
	return text[idx:]
}

// FindDOIs returns the canonical DOIs appearing in text, deduplicated,
// in order of first appearance. Trailing punctuation picked up by the
// pattern is trimmed before canonicalization.
func FindDOIs(text string) []string {
	seen := make(map[string]struct{})
	var found []string

	for _, match := range doiPattern.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:)")
		canon, err := doi.Canonicalize(match)
		if err != nil {
			continue
		}
		if _, dup := seen[canon]; dup {
			continue
		}
		seen[canon] = struct{}{}
		found = append(found, canon)
	}

	return found
}

// ExtractDOIs extracts the canonical DOIs found in a PDF's references
// section; when the document has no marked section, the whole text is
// searched.
func ExtractDOIs(r io.ReaderAt, size int64) ([]string, error) {
	text, err := ExtractText(r, size, 0)
	if err != nil {
		return nil, err
	}

	if section := ReferencesSection(text); section != "" {
		text = section
	}
	return FindDOIs(text), nil
}
