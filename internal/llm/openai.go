package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"trip-planner-rag/internal/models"
)

// DefaultOpenAIModel is used when no model is configured
const DefaultOpenAIModel = "gpt-4o-mini"

var ErrAPIKeyNotSet = errors.New("OpenAI API key not set")

// OpenAILLM generates plans with OpenAI structured outputs
type OpenAILLM struct {
	client      openai.Client
	model       string
	Temperature float64
	Timeout     time.Duration
}

// NewOpenAILLM creates a new OpenAI generator
func NewOpenAILLM(apiKey, model string, opts ...option.RequestOption) (*OpenAILLM, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAILLM{
		client:      openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)...),
		model:       model,
		Temperature: 0.2,
		Timeout:     DefaultTimeout,
	}, nil
}

// Generate sends the prompt with a json_schema response format
func (c *OpenAILLM) Generate(ctx context.Context, prompt Prompt) (*models.TripPlan, error) {
	text, err := prompt.Text()
	if err != nil {
		return nil, malformedError(err)
	}

	raw, err := PlanSchema()
	if err != nil {
		return nil, malformedError(err)
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, malformedError(err)
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(c.Temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "trip_plan",
					Schema: schema,
					Strict: openai.Bool(false),
				},
			},
		},
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, transportError(fmt.Errorf("OpenAI API call failed: %w", err))
	}

	if len(completion.Choices) == 0 {
		return nil, &Error{Kind: KindEmpty, Err: errors.New("no completion choices returned")}
	}

	return ParsePlan(completion.Choices[0].Message.Content)
}
