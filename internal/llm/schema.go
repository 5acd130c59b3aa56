package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"

	"trip-planner-rag/internal/models"
)

var ErrGeneratedSchemaIsNil = errors.New("generated JSON Schema is nil")

// maxReportedViolations caps the schema errors quoted in a malformed error
const maxReportedViolations = 3

var (
	schemaOnce sync.Once
	schemaJSON json.RawMessage
	schemaErr  error

	// planValidator checks payloads against PlanSchema with the itinerary
	// made optional and nullable, so its absence reaches the reconciler
	planValidator *gojsonschema.Schema
)

func loadSchemas() {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}

	schema := r.Reflect(&models.TripPlan{})
	if schema == nil {
		schemaErr = ErrGeneratedSchemaIsNil
		return
	}
	schema.Version = ""
	schema.ID = ""

	if schemaJSON, schemaErr = schema.MarshalJSON(); schemaErr != nil {
		return
	}

	planValidator, schemaErr = validatorSchema(schemaJSON)
}

// validatorSchema derives the parse-time schema from the published one
func validatorSchema(published []byte) (*gojsonschema.Schema, error) {
	var doc map[string]any
	if err := json.Unmarshal(published, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode plan schema: %w", err)
	}

	if required, ok := doc["required"].([]any); ok {
		kept := make([]any, 0, len(required))
		for _, key := range required {
			if key != "itinerary" {
				kept = append(kept, key)
			}
		}
		doc["required"] = kept
	}

	if props, ok := doc["properties"].(map[string]any); ok {
		if itinerary, ok := props["itinerary"]; ok {
			props["itinerary"] = map[string]any{
				"anyOf": []any{itinerary, map[string]any{"type": "null"}},
			}
		}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan schema: %w", err)
	}

	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to compile plan schema: %w", err)
	}

	return s, nil
}

// PlanSchema returns the JSON Schema every generated plan must satisfy
func PlanSchema() (json.RawMessage, error) {
	schemaOnce.Do(loadSchemas)
	return schemaJSON, schemaErr
}

// ParsePlan decodes the model's textual payload and validates it against
// PlanSchema. A missing or null itinerary is returned as an empty one.
func ParsePlan(content string) (*models.TripPlan, error) {
	content = stripCodeFence(strings.TrimSpace(content))
	if content == "" {
		return nil, &Error{Kind: KindEmpty}
	}

	if _, err := PlanSchema(); err != nil {
		return nil, malformedError(err)
	}

	result, err := planValidator.Validate(gojsonschema.NewStringLoader(content))
	if err != nil {
		return nil, malformedError(fmt.Errorf("failed to decode plan: %w", err))
	}
	if !result.Valid() {
		return nil, malformedError(fmt.Errorf("plan does not match schema: %s", violations(result)))
	}

	var plan models.TripPlan
	if err := json.Unmarshal([]byte(content), &plan); err != nil {
		return nil, malformedError(fmt.Errorf("failed to decode plan: %w", err))
	}

	return &plan, nil
}

func violations(result *gojsonschema.Result) string {
	errs := result.Errors()

	msgs := make([]string, 0, maxReportedViolations)
	for i, e := range errs {
		if i == maxReportedViolations {
			msgs = append(msgs, fmt.Sprintf("and %d more", len(errs)-i))
			break
		}
		msgs = append(msgs, e.String())
	}

	return strings.Join(msgs, "; ")
}

// stripCodeFence removes a ```json ... ``` wrapper some models add
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}
