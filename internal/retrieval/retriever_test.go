package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"trip-planner-rag/internal/models"
)

type fixedIndex struct {
	hits []models.ScoredChunk
	err  error
	k    int
}

func (f *fixedIndex) Search(_ context.Context, _ []float32, k int) ([]models.ScoredChunk, error) {
	f.k = k
	if f.err != nil {
		return nil, f.err
	}
	if len(f.hits) > k {
		return f.hits[:k], nil
	}
	return f.hits, nil
}

func (f *fixedIndex) Len() int { return len(f.hits) + 1 }

type stubEmbedder struct{ err error }

func (s stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}

func hit(id, source string, score float64) models.ScoredChunk {
	return models.ScoredChunk{
		Chunk: models.Chunk{ID: id, Text: "text " + id, Source: source},
		Score: score,
	}
}

func TestRetrieve_Threshold(t *testing.T) {
	log, _ := test.NewNullLogger()
	idx := &fixedIndex{hits: []models.ScoredChunk{
		hit("a", "kyoto.pdf", 0.41),
		hit("b", "food.txt", 0.39),
	}}

	r := NewRetriever(idx, stubEmbedder{}, log)
	res := r.Retrieve(context.Background(), "Kyoto temples")

	assert.Equal(t, 3, idx.k)
	assert.Len(t, res.Hits, 1)
	assert.Equal(t, "a", res.Hits[0].ID)
	assert.Equal(t, []string{"kyoto.pdf"}, res.Sources)
	assert.Equal(t, "text a", res.Context())
}

func TestRetrieve_StrictThreshold(t *testing.T) {
	log, _ := test.NewNullLogger()
	idx := &fixedIndex{hits: []models.ScoredChunk{hit("a", "kyoto.pdf", 0.4)}}

	res := NewRetriever(idx, stubEmbedder{}, log).Retrieve(context.Background(), "q")
	assert.True(t, res.Empty())
	assert.Empty(t, res.Sources)
	assert.Empty(t, res.Context())
}

func TestRetrieve_DedupesSources(t *testing.T) {
	log, _ := test.NewNullLogger()
	idx := &fixedIndex{hits: []models.ScoredChunk{
		hit("a", "kyoto.pdf", 0.9),
		hit("b", "food.txt", 0.8),
		hit("c", "kyoto.pdf", 0.7),
		hit("d", "extra.txt", 0.6),
	}}

	r := NewRetriever(idx, stubEmbedder{}, log)
	r.K = 4
	res := r.Retrieve(context.Background(), "q")

	assert.Len(t, res.Hits, 4)
	assert.Equal(t, []string{"kyoto.pdf", "food.txt", "extra.txt"}, res.Sources)
	assert.Equal(t, "text a\n\ntext b\n\ntext c\n\ntext d", res.Context())

	for i := 1; i < len(res.Hits); i++ {
		assert.GreaterOrEqual(t, res.Hits[i-1].Score, res.Hits[i].Score)
	}
}

func TestRetrieve_Degrades(t *testing.T) {
	log, hook := test.NewNullLogger()

	res := NewRetriever(nil, stubEmbedder{}, log).Retrieve(context.Background(), "q")
	assert.True(t, res.Empty())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	idx := &fixedIndex{hits: []models.ScoredChunk{hit("a", "kyoto.pdf", 0.9)}}
	res = NewRetriever(idx, stubEmbedder{err: errors.New("ollama down")}, log).Retrieve(context.Background(), "q")
	assert.True(t, res.Empty())

	idx.err = errors.New("search failed")
	res = NewRetriever(idx, stubEmbedder{}, log).Retrieve(context.Background(), "q")
	assert.True(t, res.Empty())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}
