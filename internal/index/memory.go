package index

import (
	"context"
	"fmt"
	"math"
	"sort"

	"trip-planner-rag/internal/models"
)

// Memory is an immutable in-memory index searched by brute-force cosine similarity
type Memory struct {
	entries   []models.IndexEntry
	norms     []float64
	dimension int
}

// NewMemory builds an in-memory index. All vectors must share one dimension.
func NewMemory(entries []models.IndexEntry) (*Memory, error) {
	m := &Memory{
		entries: make([]models.IndexEntry, len(entries)),
		norms:   make([]float64, len(entries)),
	}
	copy(m.entries, entries)

	for i, e := range m.entries {
		if i == 0 {
			m.dimension = len(e.Vector)
		} else if len(e.Vector) != m.dimension {
			return nil, fmt.Errorf("chunk %s has dimension %d, expected %d", e.ID, len(e.Vector), m.dimension)
		}
		m.norms[i] = norm(e.Vector)
	}

	return m, nil
}

// Len returns the number of indexed chunks
func (m *Memory) Len() int {
	return len(m.entries)
}

// Dimension returns the vector size, or 0 for an empty index
func (m *Memory) Dimension() int {
	return m.dimension
}

// Search returns up to k chunks ordered by descending similarity. Scores are
// cosine similarity clamped to [0, 1]; ties are broken by chunk ID.
func (m *Memory) Search(ctx context.Context, vector []float32, k int) ([]models.ScoredChunk, error) {
	if k <= 0 || len(m.entries) == 0 {
		return nil, nil
	}
	if len(vector) != m.dimension {
		return nil, fmt.Errorf("query has dimension %d, index has %d", len(vector), m.dimension)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	qn := norm(vector)
	scored := make([]models.ScoredChunk, len(m.entries))
	for i, e := range m.entries {
		scored[i] = models.ScoredChunk{
			Chunk: e.Chunk,
			Score: similarity(vector, e.Vector, qn, m.norms[i]),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ID < scored[j].ID
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func similarity(a, b []float32, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}

	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}

	return clamp(dot / (na * nb))
}

func clamp(s float64) float64 {
	switch {
	case math.IsNaN(s), s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}
