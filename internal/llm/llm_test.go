package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-planner-rag/internal/models"
	"trip-planner-rag/internal/retrieval"
)

var kyoto = models.TripRequest{
	Destination: "Kyoto, Japan",
	FromDate:    "2025-10-10",
	ToDate:      "2025-10-12",
	Preferences: "historical, nature",
}

var kyotoDates = []string{"October 10, 2025", "October 11, 2025", "October 12, 2025"}

func TestCompose_GeneralKnowledge(t *testing.T) {
	p := Compose(kyoto, kyotoDates, retrieval.Result{})

	gk, ok := p.(GeneralKnowledge)
	require.True(t, ok)
	assert.Len(t, gk.Dates, 3)
	assert.Equal(t, []string{}, p.AllowedSources())

	text, err := p.Text()
	require.NoError(t, err)
	assert.Contains(t, text, "Kyoto, Japan")
	assert.Contains(t, text, "historical, nature")
	assert.Contains(t, text, "Day 1: October 10, 2025")
	assert.Contains(t, text, "Day 3: October 12, 2025")
	assert.Contains(t, text, `"sources" must be an empty array`)
	assert.NotContains(t, text, "CONTEXT START")
}

func TestCompose_ContextAugmented(t *testing.T) {
	result := retrieval.Result{
		Hits: []models.ScoredChunk{
			{Chunk: models.Chunk{ID: "1", Text: "Kinkaku-ji opens at 9am.", Source: "kyoto.pdf"}, Score: 0.8},
			{Chunk: models.Chunk{ID: "2", Text: "Try yudofu near Nanzen-ji.", Source: "food.txt"}, Score: 0.6},
		},
		Sources: []string{"kyoto.pdf", "food.txt"},
	}

	p := Compose(kyoto, kyotoDates, result)

	ca, ok := p.(ContextAugmented)
	require.True(t, ok)
	assert.Equal(t, result.Sources, p.AllowedSources())
	assert.Equal(t, "Kinkaku-ji opens at 9am.\n\nTry yudofu near Nanzen-ji.", ca.Context)

	text, err := p.Text()
	require.NoError(t, err)
	assert.Contains(t, text, "Kinkaku-ji opens at 9am.\n\nTry yudofu near Nanzen-ji.")
	assert.Contains(t, text, `["kyoto.pdf", "food.txt"]`)
	assert.NotContains(t, text, "empty array")
}

func TestCompose_BlankContextFallsBack(t *testing.T) {
	result := retrieval.Result{
		Hits:    []models.ScoredChunk{{Chunk: models.Chunk{ID: "1", Text: "  \n ", Source: "blank.txt"}, Score: 0.9}},
		Sources: []string{"blank.txt"},
	}
	_, ok := Compose(kyoto, kyotoDates, result).(GeneralKnowledge)
	assert.True(t, ok)

	result = retrieval.Result{
		Hits: []models.ScoredChunk{{Chunk: models.Chunk{ID: "1", Text: "text"}, Score: 0.9}},
	}
	_, ok = Compose(kyoto, kyotoDates, result).(GeneralKnowledge)
	assert.True(t, ok)
}

func TestPlanSchema(t *testing.T) {
	raw, err := PlanSchema()
	require.NoError(t, err)

	var schema struct {
		Type       string                     `json:"type"`
		Required   []string                   `json:"required"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(raw, &schema))

	assert.Equal(t, "object", schema.Type)
	assert.ElementsMatch(t, []string{"hotels", "restaurants", "itinerary", "sources"}, schema.Required)
	assert.Contains(t, string(schema.Properties["restaurants"]), "recommendation_reason")
	assert.Contains(t, string(schema.Properties["hotels"]), "map_link")
}

func TestParsePlan(t *testing.T) {
	plan, err := ParsePlan("```json\n" + `{"hotels":[],"restaurants":[],"itinerary":[{"day":1,"date":"x","activities":[{"name":"Gion","description":"walk","map_link":"https://maps.example/gion"}]}],"sources":[]}` + "\n```")
	require.NoError(t, err)
	require.Len(t, plan.Itinerary, 1)
	assert.Equal(t, "Gion", plan.Itinerary[0].Activities[0].Name)

	plan, err = ParsePlan(`{"hotels":[],"restaurants":[],"sources":[]}`)
	require.NoError(t, err, "missing itinerary is not a parse failure")
	assert.Empty(t, plan.Itinerary)

	_, err = ParsePlan("   ")
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = ParsePlan("Sure! Here is your plan")
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = ParsePlan(`{"hotels":[{"name":"Hoshinoya"}],"restaurants":[],"itinerary":[],"sources":[]}`)
	assert.ErrorIs(t, err, ErrMalformed)

	var genErr *Error
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, KindMalformed, genErr.Kind)
}

func TestParsePlan_RequiredKeys(t *testing.T) {
	itinerary := `"itinerary":[{"day":1,"date":"x","activities":[{"name":"Gion","description":"walk","map_link":"https://maps.example/gion"}]}]`

	for name, payload := range map[string]string{
		"no hotels":          `{"restaurants":[],"sources":[],` + itinerary + `}`,
		"no restaurants":     `{"hotels":[],"sources":[],` + itinerary + `}`,
		"no sources":         `{"hotels":[],"restaurants":[],` + itinerary + `}`,
		"only itinerary":     `{` + itinerary + `}`,
		"null hotels":        `{"hotels":null,"restaurants":[],"sources":[],` + itinerary + `}`,
		"activity no link":   `{"hotels":[],"restaurants":[],"sources":[],"itinerary":[{"day":1,"date":"x","activities":[{"name":"Gion","description":"walk"}]}]}`,
		"day no activities":  `{"hotels":[],"restaurants":[],"sources":[],"itinerary":[{"day":1,"date":"x"}]}`,
		"restaurant no name": `{"hotels":[],"restaurants":[{"cuisine":"Tofu","recommendation_reason":"old","map_link":"https://maps.example/r"}],"sources":[],` + itinerary + `}`,
		"not an object":      `null`,
		"array":              `[]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePlan(payload)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestParsePlan_EmptyValuesAreKept(t *testing.T) {
	plan, err := ParsePlan(`{
		"hotels":[{"name":"Hoshinoya","description":"","price_range":"","map_link":""}],
		"restaurants":[],
		"itinerary":[{"day":1,"date":"","activities":[{"name":"Gion","description":"","map_link":"https://maps.example/gion"}]}],
		"sources":[]
	}`)
	require.NoError(t, err, "empty strings satisfy the schema")
	require.Len(t, plan.Itinerary, 1)
	assert.Empty(t, plan.Itinerary[0].Activities[0].Description)
	assert.Empty(t, plan.Itinerary[0].Activities[0].Time, "time is optional")
	assert.Equal(t, "Hoshinoya", plan.Hotels[0].Name)

	plan, err = ParsePlan(`{"hotels":[],"restaurants":[],"itinerary":null,"sources":[]}`)
	require.NoError(t, err, "a null itinerary is left to the reconciler")
	assert.Empty(t, plan.Itinerary)
}

func chatServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)

		var req struct {
			Model    string          `json:"model"`
			Stream   *bool           `json:"stream"`
			Format   json.RawMessage `json:"format"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.1", req.Model)
		require.NotNil(t, req.Stream)
		assert.False(t, *req.Stream)
		assert.Contains(t, string(req.Format), `"itinerary"`)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.True(t, strings.HasPrefix(req.Messages[1].Content, "Plan a complete trip to Kyoto, Japan"))

		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"model failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":   req.Model,
			"message": map[string]string{"role": "assistant", "content": content},
			"done":    true,
		})
	}))
}

func TestOllamaLLM_Generate(t *testing.T) {
	srv := chatServer(t, `{"hotels":[{"name":"Hoshinoya Kyoto","description":"Riverside ryokan","price_range":"$$$$","map_link":"[Hoshinoya](https://maps.example/h)"}],"restaurants":[],"itinerary":[],"sources":[]}`, http.StatusOK)
	defer srv.Close()

	o, err := NewOllamaLLM(srv.URL, "llama3.1")
	require.NoError(t, err)

	plan, err := o.Generate(context.Background(), Compose(kyoto, kyotoDates, retrieval.Result{}))
	require.NoError(t, err)
	require.Len(t, plan.Hotels, 1)
	assert.Equal(t, "[Hoshinoya](https://maps.example/h)", plan.Hotels[0].MapLink)
}

func TestOllamaLLM_Failures(t *testing.T) {
	prompt := Compose(kyoto, kyotoDates, retrieval.Result{})

	srv := chatServer(t, "", http.StatusInternalServerError)
	o, err := NewOllamaLLM(srv.URL, "llama3.1")
	require.NoError(t, err)
	_, err = o.Generate(context.Background(), prompt)
	assert.ErrorIs(t, err, ErrTransport)
	srv.Close()

	srv = chatServer(t, "", http.StatusOK)
	o, err = NewOllamaLLM(srv.URL, "llama3.1")
	require.NoError(t, err)
	_, err = o.Generate(context.Background(), prompt)
	assert.ErrorIs(t, err, ErrEmptyResponse)
	srv.Close()

	srv = chatServer(t, "{not json", http.StatusOK)
	o, err = NewOllamaLLM(srv.URL, "llama3.1")
	require.NoError(t, err)
	_, err = o.Generate(context.Background(), prompt)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.False(t, errors.Is(err, ErrTransport))
	srv.Close()
}

func TestOllamaLLM_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	o, err := NewOllamaLLM(srv.URL, "llama3.1")
	require.NoError(t, err)
	o.Timeout = 50 * time.Millisecond

	_, err = o.Generate(context.Background(), Compose(kyoto, kyotoDates, retrieval.Result{}))
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewOpenAILLM_RequiresKey(t *testing.T) {
	_, err := NewOpenAILLM("", "")
	assert.ErrorIs(t, err, ErrAPIKeyNotSet)
}
