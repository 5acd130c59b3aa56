package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"trip-planner-rag/internal/embedding"
	"trip-planner-rag/internal/models"
)

// DefaultTimeout bounds a single generation call
const DefaultTimeout = 5 * time.Minute

// Generator turns a prompt into a validated trip plan. Every failure is an *Error.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (*models.TripPlan, error)
}

// OllamaLLM handles interactions with the Ollama LLM API
type OllamaLLM struct {
	Client      *api.Client
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// NewOllamaLLM creates a new Ollama LLM client. An empty host falls back to
// OLLAMA_HOST.
func NewOllamaLLM(host string, model string) (*OllamaLLM, error) {
	client, err := embedding.NewOllamaClient(host)
	if err != nil {
		return nil, err
	}

	return &OllamaLLM{
		Client:      client,
		Model:       model,
		Temperature: 0.2,
		Timeout:     DefaultTimeout,
	}, nil
}

// Generate sends the prompt with the plan schema as the response format
func (o *OllamaLLM) Generate(ctx context.Context, prompt Prompt) (*models.TripPlan, error) {
	text, err := prompt.Text()
	if err != nil {
		return nil, malformedError(err)
	}

	schema, err := PlanSchema()
	if err != nil {
		return nil, malformedError(err)
	}

	content, err := o.GenerateResponse(ctx, text, schema)
	if err != nil {
		return nil, transportError(err)
	}

	return ParsePlan(content)
}

// GenerateResponse performs a single non-streaming chat call and returns the
// assistant message content
func (o *OllamaLLM) GenerateResponse(ctx context.Context, prompt string, format []byte) (string, error) {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stream := false
	req := api.ChatRequest{
		Model: o.Model,
		Messages: []api.Message{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: prompt},
		},
		Stream: &stream,
		Format: format,
		Options: map[string]interface{}{
			"temperature": o.Temperature,
		},
	}

	var responseBuilder strings.Builder

	err := o.Client.Chat(ctx, &req, func(resp api.ChatResponse) error {
		_, err := responseBuilder.WriteString(resp.Message.Content)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	return responseBuilder.String(), nil
}
