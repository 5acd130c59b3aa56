package index

import (
	"context"
	"errors"

	"trip-planner-rag/internal/models"
)

var (
	// ErrNotBuilt is returned when no index has been persisted yet
	ErrNotBuilt = errors.New("vector index not built")

	// ErrNoChunks is returned when a build is requested with nothing to index
	ErrNoChunks = errors.New("no chunks to index")

	// ErrCorrupt marks a persisted index that exists but cannot be read
	ErrCorrupt = errors.New("vector index is corrupt")
)

// Index answers nearest-neighbor queries over embedded chunks.
// Implementations are safe for concurrent searches.
type Index interface {
	Search(ctx context.Context, vector []float32, k int) ([]models.ScoredChunk, error)
	Len() int
}

// Store persists an index
type Store interface {
	Exists(ctx context.Context) (bool, error)
	Write(ctx context.Context, entries []models.IndexEntry) error
	Open(ctx context.Context) (Index, error)
}
