package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"trip-planner-rag/internal/config"
	"trip-planner-rag/internal/currency"
	"trip-planner-rag/internal/database"
	"trip-planner-rag/internal/embedding"
	"trip-planner-rag/internal/index"
	"trip-planner-rag/internal/llm"
	"trip-planner-rag/internal/logger"
	"trip-planner-rag/internal/models"
	"trip-planner-rag/internal/planner"
	"trip-planner-rag/internal/processor"
	"trip-planner-rag/internal/retrieval"
)

// NewEmbedder creates the configured embedding backend
func NewEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	switch cfg.Embedding.Provider {
	case config.ProviderOpenAI:
		return embedding.NewOpenAIEmbedder(cfg.LLM.OpenAIAPIKey, cfg.Embedding.Model, cfg.Embedding.Dimension)
	case config.ProviderHash:
		return embedding.NewHashEmbedder(cfg.Embedding.Dimension), nil
	default:
		return embedding.NewOllamaEmbedder(cfg.LLM.OllamaHost, cfg.Embedding.Model)
	}
}

// NewGenerator creates the configured generation backend
func NewGenerator(cfg *config.Config) (llm.Generator, error) {
	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		g, err := llm.NewOpenAILLM(cfg.LLM.OpenAIAPIKey, cfg.LLM.Model)
		if err != nil {
			return nil, err
		}
		g.Temperature = cfg.LLM.Temperature
		g.Timeout = cfg.LLM.Timeout
		return g, nil
	default:
		g, err := llm.NewOllamaLLM(cfg.LLM.OllamaHost, cfg.LLM.Model)
		if err != nil {
			return nil, err
		}
		g.Temperature = cfg.LLM.Temperature
		g.Timeout = cfg.LLM.Timeout
		return g, nil
	}
}

// NewChunker creates a chunker from the chunk settings
func NewChunker(cfg *config.Config) *processor.Chunker {
	return processor.NewChunker(
		processor.WithChunkSize(cfg.Chunk.Size),
		processor.WithChunkOverlap(cfg.Chunk.Overlap),
	)
}

// NewBuilder opens the configured index store and wraps it in a builder.
// The returned func closes the store.
func NewBuilder(ctx context.Context, cfg *config.Config, embedder embedding.Embedder, log logrus.FieldLogger) (*index.Builder, func(), error) {
	store, closeStore, err := database.OpenIndexStore(ctx, cfg.Index.Location)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open index store: %w", err)
	}

	batch := embedding.BatchOptions{
		BatchSize:     cfg.Embedding.BatchSize,
		MaxConcurrent: cfg.Embedding.MaxConcurrent,
	}

	return index.NewBuilder(store, embedder, batch, log), closeStore, nil
}

// BuildFromFolder loads, chunks and indexes the knowledge base folder. It
// returns the chunks that were handed to the builder.
func BuildFromFolder(ctx context.Context, cfg *config.Config, builder *index.Builder, log logrus.FieldLogger) (index.Index, []models.Chunk, error) {
	docs, _ := processor.NewLoader(log).LoadFolder(ctx, cfg.KnowledgeBase.Dir)
	chunks := NewChunker(cfg).Split(docs)
	log.Infof("Split %d document record(s) into %d chunks", len(docs), len(chunks))

	idx, err := builder.Build(ctx, chunks)
	if err != nil {
		return nil, nil, err
	}

	return idx, chunks, nil
}

// NewPlanner wires retriever, generator and planner around an opened index
func NewPlanner(cfg *config.Config, idx index.Index, embedder embedding.Embedder, generator llm.Generator, log logrus.FieldLogger) *planner.Planner {
	r := retrieval.NewRetriever(idx, embedder, log)
	r.K = cfg.Index.TopK
	r.Threshold = cfg.Index.Threshold

	p := planner.New(r, generator, log)
	p.MaxDays = cfg.Planner.MaxDays

	return p
}

// NewConverter creates the currency converter
func NewConverter(cfg *config.Config) *currency.Converter {
	return currency.NewConverter(
		cfg.Currency.BaseURL,
		cfg.Currency.RetryMax,
		cfg.Currency.Timeout,
		logger.NewLeveledLogrus(logger.GetLogger()),
	)
}
