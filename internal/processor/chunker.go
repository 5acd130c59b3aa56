package processor

import (
	"fmt"
	"strings"

	"trip-planner-rag/internal/models"

	"github.com/google/uuid"
)

const (
	// DefaultChunkSize is the maximum number of characters per chunk
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the number of characters shared by consecutive chunks
	DefaultChunkOverlap = 150
)

// chunkNamespace scopes the name-based chunk UUIDs
var chunkNamespace = uuid.MustParse("9b3c1a52-6f0e-4d3a-9a55-0c7f2f61d2a4")

// separators in the order they are tried: paragraph, line, sentence, word
var separators = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune(". "),
	[]rune("! "),
	[]rune("? "),
	[]rune(" "),
}

// Chunker splits documents into overlapping windows
type Chunker struct {
	chunkSize int
	overlap   int
}

// ChunkerOption configures a Chunker
type ChunkerOption func(*Chunker)

// WithChunkSize sets the window size in characters
func WithChunkSize(size int) ChunkerOption {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithChunkOverlap sets the overlap between consecutive chunks in characters
func WithChunkOverlap(overlap int) ChunkerOption {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// NewChunker creates a new chunker
func NewChunker(opts ...ChunkerOption) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// The window must advance on every cut
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// ChunkSize returns the configured window size
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// Overlap returns the configured overlap
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Split chunks every record. Positions count per source across records.
func (c *Chunker) Split(records []models.DocumentRecord) []models.Chunk {
	var chunks []models.Chunk
	positions := make(map[string]int)

	for _, record := range records {
		if strings.TrimSpace(record.Text) == "" {
			continue
		}

		for _, text := range c.SplitText(record.Text) {
			pos := positions[record.Source]
			positions[record.Source]++

			chunks = append(chunks, models.Chunk{
				ID:       chunkID(record.Source, pos, text),
				Text:     text,
				Source:   record.Source,
				Position: pos,
			})
		}
	}

	return chunks
}

// SplitText cuts text into windows of at most ChunkSize characters. Each
// window ends on the widest boundary available past the overlap point, and
// the next window starts exactly Overlap characters before that end.
func (c *Chunker) SplitText(text string) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var out []string
	start := 0
	for {
		end := start + c.chunkSize
		if end >= n {
			out = append(out, string(runes[start:n]))
			break
		}

		cut := findBoundary(runes, start+c.overlap+1, end)
		out = append(out, string(runes[start:cut]))
		start = cut - c.overlap
	}

	return out
}

// findBoundary returns the largest cut in [lo, hi] that falls right after a
// separator, trying separators widest first; hi when none is found.
func findBoundary(runes []rune, lo, hi int) int {
	for _, sep := range separators {
		for i := hi - len(sep); i+len(sep) >= lo && i >= 0; i-- {
			if hasPrefixAt(runes, i, sep) {
				return i + len(sep)
			}
		}
	}

	return hi
}

func hasPrefixAt(runes []rune, i int, sep []rune) bool {
	if i+len(sep) > len(runes) {
		return false
	}
	for j, r := range sep {
		if runes[i+j] != r {
			return false
		}
	}
	return true
}

func chunkID(source string, position int, text string) string {
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s\x00%d\x00%s", source, position, text))).String()
}
