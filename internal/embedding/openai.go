package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	// DefaultOpenAIModel is used when no model is configured
	DefaultOpenAIModel = "text-embedding-3-small"

	// maxOpenAIBatch is the largest input array sent in one request
	maxOpenAIBatch = 100
)

// ErrAPIKeyNotSet is returned when the OpenAI key is missing
var ErrAPIKeyNotSet = errors.New("OpenAI API key not set")

// OpenAIEmbedder generates embeddings with the OpenAI embeddings API
type OpenAIEmbedder struct {
	client    openai.Client
	model     string
	dimension int
}

// NewOpenAIEmbedder creates a new OpenAI embedder. A dimension of 0 keeps
// the model's native size.
func NewOpenAIEmbedder(apiKey, model string, dimension int, opts ...option.RequestOption) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAIEmbedder{
		client:    openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...),
		model:     model,
		dimension: dimension,
	}, nil
}

// Embed generates embeddings for a batch of texts
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxOpenAIBatch {
		end := min(start+maxOpenAIBatch, len(texts))

		params := openai.EmbeddingNewParams{
			Model: openai.EmbeddingModel(e.model),
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts[start:end],
			},
		}
		if e.dimension > 0 {
			params.Dimensions = openai.Int(int64(e.dimension))
		}

		resp, err := e.client.Embeddings.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), end-start)
		}

		for _, data := range resp.Data {
			vector := make([]float32, len(data.Embedding))
			for i, v := range data.Embedding {
				vector[i] = float32(v)
			}
			embeddings = append(embeddings, vector)
		}
	}

	return embeddings, nil
}
