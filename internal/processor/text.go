package processor

import (
	"fmt"
	"os"
	"unicode/utf8"

	"trip-planner-rag/internal/models"
)

// TextExtractor reads plain text files
type TextExtractor struct{}

// Extensions returns the file extensions handled by the extractor
func (TextExtractor) Extensions() []string {
	return []string{".txt"}
}

// Extract reads the whole file as a single record
func (TextExtractor) Extract(filePath, source string) ([]models.DocumentRecord, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %w", err)
	}

	if !utf8.Valid(data) {
		return nil, fmt.Errorf("text file is not valid UTF-8")
	}

	text := normalizeWhitespace(string(data))
	if text == "" {
		return nil, nil
	}

	return []models.DocumentRecord{{Text: text, Source: source}}, nil
}
