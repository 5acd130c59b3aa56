package retrieval

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"trip-planner-rag/internal/embedding"
	"trip-planner-rag/internal/index"
	"trip-planner-rag/internal/models"
)

const (
	DefaultTopK      = 3
	DefaultThreshold = 0.4
)

// Result is the outcome of a retrieval. An empty result means no usable context.
type Result struct {
	Hits    []models.ScoredChunk
	Sources []string
}

// Context joins the retrieved chunk texts with blank lines
func (r Result) Context() string {
	texts := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		texts[i] = h.Text
	}
	return strings.Join(texts, "\n\n")
}

// Empty reports whether nothing relevant was found
func (r Result) Empty() bool {
	return len(r.Hits) == 0
}

// Retriever finds chunks relevant to a query
type Retriever struct {
	Index     index.Index
	Embedder  embedding.Embedder
	K         int
	Threshold float64
	log       logrus.FieldLogger
}

// NewRetriever creates a retriever with the default k and threshold
func NewRetriever(idx index.Index, embedder embedding.Embedder, log logrus.FieldLogger) *Retriever {
	return &Retriever{
		Index:     idx,
		Embedder:  embedder,
		K:         DefaultTopK,
		Threshold: DefaultThreshold,
		log:       log,
	}
}

// Retrieve returns up to K chunks scoring strictly above Threshold with their
// distinct sources in first-seen order. Failures degrade to an empty result.
func (r *Retriever) Retrieve(ctx context.Context, query string) Result {
	if r.Index == nil || r.Index.Len() == 0 {
		r.log.Warn("Vector index not available, skipping retrieval")
		return Result{}
	}

	vectors, err := r.Embedder.Embed(ctx, []string{query})
	if err != nil || len(vectors) != 1 {
		r.log.WithError(err).Warn("Failed to embed query, skipping retrieval")
		return Result{}
	}

	k := r.K
	if k <= 0 {
		k = DefaultTopK
	}

	hits, err := r.Index.Search(ctx, vectors[0], k)
	if err != nil {
		r.log.WithError(err).Warn("Vector search failed, skipping retrieval")
		return Result{}
	}

	var (
		result Result
		seen   = make(map[string]struct{})
	)
	for _, h := range hits {
		if h.Score <= r.Threshold {
			continue
		}
		result.Hits = append(result.Hits, h)
		if _, ok := seen[h.Source]; !ok {
			seen[h.Source] = struct{}{}
			result.Sources = append(result.Sources, h.Source)
		}
	}

	r.log.WithFields(logrus.Fields{
		"query":   query,
		"hits":    len(result.Hits),
		"sources": result.Sources,
	}).Debug("Retrieved context")

	return result
}
