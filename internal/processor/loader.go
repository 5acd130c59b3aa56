package processor

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"trip-planner-rag/internal/models"

	"github.com/sirupsen/logrus"
)

// Extractor turns a single file into one or more document records
type Extractor interface {
	Extensions() []string
	Extract(filePath, source string) ([]models.DocumentRecord, error)
}

// LoadReport summarizes a folder load
type LoadReport struct {
	Loaded  []string
	Skipped []string
	Failed  map[string]error
}

// extraction is the outcome of one file: records or a failure reason
type extraction struct {
	source  string
	records []models.DocumentRecord
	err     error
}

// Loader reads a folder of heterogeneous documents
type Loader struct {
	extractors map[string]Extractor
	log        logrus.FieldLogger
}

// NewLoader creates a loader for PDF, plain text and Word documents
func NewLoader(log logrus.FieldLogger, extra ...Extractor) *Loader {
	l := &Loader{
		extractors: make(map[string]Extractor),
		log:        log,
	}

	for _, e := range append([]Extractor{PDFExtractor{}, TextExtractor{}, DocxExtractor{}}, extra...) {
		for _, ext := range e.Extensions() {
			l.extractors[strings.ToLower(ext)] = e
		}
	}

	return l
}

// LoadFolder loads every supported file in dir. A missing folder yields no
// records; files that fail to load are logged and left out.
func (l *Loader) LoadFolder(ctx context.Context, dir string) ([]models.DocumentRecord, LoadReport) {
	report := LoadReport{Failed: make(map[string]error)}

	l.log.Infof("Scanning folder for documents: %s", dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		l.log.WithError(err).Errorf("Knowledge base folder not readable at path: %s", dir)
		return nil, report
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var documents []models.DocumentRecord
	for _, entry := range entries {
		if ctx.Err() != nil {
			l.log.WithError(ctx.Err()).Warn("Document loading interrupted")
			break
		}

		name := entry.Name()
		if entry.IsDir() {
			report.Skipped = append(report.Skipped, name)
			continue
		}

		extractor, ok := l.extractors[strings.ToLower(filepath.Ext(name))]
		if !ok {
			l.log.Warnf("Ignoring unsupported file type: '%s'", name)
			report.Skipped = append(report.Skipped, name)
			continue
		}

		l.log.Infof("Loading document: '%s'", name)
		res := l.extract(extractor, filepath.Join(dir, name), name)
		if res.err != nil {
			l.log.WithError(res.err).Errorf("Failed to load document '%s'", name)
			report.Failed[name] = res.err
			continue
		}

		documents = append(documents, res.records...)
		report.Loaded = append(report.Loaded, name)
	}

	l.log.Infof("Successfully loaded content from %d document(s).", len(documents))

	return documents, report
}

func (l *Loader) extract(e Extractor, path, source string) extraction {
	records, err := e.Extract(path, source)
	if err != nil {
		return extraction{source: source, err: err}
	}

	// Provenance is always the bare filename, whatever the extractor set.
	for i := range records {
		records[i].Source = source
	}

	return extraction{source: source, records: records}
}
