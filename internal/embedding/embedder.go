package embedding

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Embedder turns texts into fixed-length vectors. The same text must always
// produce the same vector.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// BatchOptions controls EmbedBatch
type BatchOptions struct {
	BatchSize     int
	MaxConcurrent int
	// Progress is called after every finished batch
	Progress func(processed, total int)
}

// EmbedBatch embeds texts in batches, running up to MaxConcurrent batches at
// once. The returned vectors are in the order of texts.
func EmbedBatch(ctx context.Context, e Embedder, texts []string, opts BatchOptions) ([][]float32, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}

	vectors := make([][]float32, len(texts))

	var mu sync.Mutex
	processed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MaxConcurrent)

	for start := 0; start < len(texts); start += opts.BatchSize {
		end := min(start+opts.BatchSize, len(texts))

		g.Go(func() error {
			batch, err := e.Embed(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("failed to embed chunks %d-%d: %w", start, end-1, err)
			}
			if len(batch) != end-start {
				return fmt.Errorf("embedder returned %d vectors for %d texts", len(batch), end-start)
			}

			// Each batch owns a disjoint range of vectors
			copy(vectors[start:end], batch)

			mu.Lock()
			processed += end - start
			if opts.Progress != nil {
				opts.Progress(processed, len(texts))
			}
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return vectors, nil
}
