package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// OllamaEmbedder generates embeddings using Ollama API
type OllamaEmbedder struct {
	Client     *api.Client
	Model      string
	MaxRetries int
	Timeout    time.Duration
}

// NewOllamaEmbedder creates a new Ollama embedder. An empty host falls back
// to OLLAMA_HOST.
func NewOllamaEmbedder(host string, model string) (*OllamaEmbedder, error) {
	client, err := NewOllamaClient(host)
	if err != nil {
		return nil, err
	}

	return &OllamaEmbedder{
		Client:     client,
		Model:      model,
		MaxRetries: 3,
		Timeout:    time.Second * 30,
	}, nil
}

// NewOllamaClient creates an Ollama API client for host
func NewOllamaClient(host string) (*api.Client, error) {
	hostURL := envconfig.Host()
	if host != "" {
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
		}
		hostURL = u
	}

	return api.NewClient(hostURL, http.DefaultClient), nil
}

// Embed generates embeddings for a batch of texts
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var (
		embeddings [][]float32
		err        error
	)

	for retries := 0; retries <= e.MaxRetries; retries++ {
		if retries > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(retries) * time.Second):
			}
		}

		embeddings, err = e.createEmbeddings(ctx, texts)
		if err == nil {
			return embeddings, nil
		}
	}

	return nil, fmt.Errorf("failed to create embeddings after %d retries: %w", e.MaxRetries, err)
}

// createEmbeddings performs a single /api/embed call
func (e *OllamaEmbedder) createEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	req := api.EmbedRequest{
		Model: e.Model,
		Input: texts,
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	resp, err := e.Client.Embed(ctxWithTimeout, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}

	return resp.Embeddings, nil
}
