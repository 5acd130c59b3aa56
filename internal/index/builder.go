package index

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"trip-planner-rag/internal/embedding"
	"trip-planner-rag/internal/models"
)

// Builder embeds chunks and persists them to a Store
type Builder struct {
	Store    Store
	Embedder embedding.Embedder
	Batch    embedding.BatchOptions
	log      logrus.FieldLogger
}

// NewBuilder creates a builder
func NewBuilder(store Store, embedder embedding.Embedder, batch embedding.BatchOptions, log logrus.FieldLogger) *Builder {
	return &Builder{
		Store:    store,
		Embedder: embedder,
		Batch:    batch,
		log:      log,
	}
}

// Build returns the persisted index when one already exists. Otherwise it
// embeds every chunk, writes the result and returns the new index.
func (b *Builder) Build(ctx context.Context, chunks []models.Chunk) (Index, error) {
	exists, err := b.Store.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing index: %w", err)
	}
	if exists {
		b.log.Info("Vector index already exists, loading it")
		return b.Store.Open(ctx)
	}

	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	start := time.Now()
	opts := b.Batch
	if opts.Progress == nil {
		opts.Progress = func(processed, total int) {
			elapsed := time.Since(start)
			remaining := elapsed*time.Duration(total)/time.Duration(processed) - elapsed
			b.log.Infof("Progress: %d/%d chunks embedded (%.1f%%) - Est. remaining: %v",
				processed, total, float64(processed)/float64(total)*100, remaining.Round(time.Second))
		}
	}

	b.log.Infof("Creating embeddings for %d chunks...", len(chunks))
	vectors, err := embedding.EmbedBatch(ctx, b.Embedder, texts, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	entries := make([]models.IndexEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = models.IndexEntry{Chunk: c, Vector: vectors[i]}
	}

	if err := b.Store.Write(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to store index: %w", err)
	}
	b.log.Infof("Stored %d chunks in %v", len(entries), time.Since(start).Round(time.Millisecond))

	return b.Store.Open(ctx)
}

// Load opens the persisted index. It returns ErrNotBuilt when none exists.
func (b *Builder) Load(ctx context.Context) (Index, error) {
	return b.Store.Open(ctx)
}
