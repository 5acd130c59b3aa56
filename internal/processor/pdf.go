// internal/processor/pdf.go
package processor

import (
	"fmt"
	"regexp"
	"strings"

	"trip-planner-rag/internal/models"

	"github.com/ledongthuc/pdf"
)

var (
	spaceRe   = regexp.MustCompile(`[ \t\f\v\r]+`)
	paraSepRe = regexp.MustCompile(`\n\s*\n+`)
)

// PDFExtractor reads text out of PDF files, one record per page
type PDFExtractor struct{}

// Extensions returns the file extensions handled by the extractor
func (PDFExtractor) Extensions() []string {
	return []string{".pdf"}
}

// Extract extracts the plain text of every non-empty page of a PDF file
func (PDFExtractor) Extract(filePath, source string) (records []models.DocumentRecord, err error) {
	// The pdf reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = fmt.Errorf("failed to read PDF: %v", r)
		}
	}()

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract plain text from page %d: %w", i, err)
		}

		text = normalizeWhitespace(text)
		if text == "" {
			continue
		}

		records = append(records, models.DocumentRecord{
			Text:   text,
			Source: source,
		})
	}

	return records, nil
}

// normalizeWhitespace collapses runs of blanks while keeping paragraph breaks
func normalizeWhitespace(text string) string {
	text = spaceRe.ReplaceAllString(text, " ")
	text = paraSepRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
