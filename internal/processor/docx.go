package processor

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"trip-planner-rag/internal/models"
)

var errNoDocumentXML = errors.New("word/document.xml not found")

// DocxExtractor reads Word (.docx) documents
type DocxExtractor struct{}

// Extensions returns the file extensions handled by the extractor
func (DocxExtractor) Extensions() []string {
	return []string{".docx"}
}

// Extract returns the paragraphs of word/document.xml as a single record
func (DocxExtractor) Extract(filePath, source string) ([]models.DocumentRecord, error) {
	reader, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open docx archive: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open document.xml: %w", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read document.xml: %w", err)
		}

		text, err := parseDocumentXML(content)
		if err != nil {
			return nil, err
		}
		if text == "" {
			return nil, nil
		}

		return []models.DocumentRecord{{Text: text, Source: source}}, nil
	}

	return nil, errNoDocumentXML
}

type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// parseDocumentXML joins the runs of every paragraph, one paragraph per block
func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("failed to parse document.xml: %w", err)
	}

	paragraphs := make([]string, 0, len(doc.Body.Paragraphs))
	for _, para := range doc.Body.Paragraphs {
		var sb strings.Builder
		for _, r := range para.Runs {
			for _, t := range r.Text {
				sb.WriteString(t.Content)
			}
		}
		if p := strings.TrimSpace(sb.String()); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	return normalizeWhitespace(strings.Join(paragraphs, "\n\n")), nil
}
