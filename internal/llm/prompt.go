package llm

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"trip-planner-rag/internal/models"
	"trip-planner-rag/internal/retrieval"
)

// SystemPrompt is sent as the system message of every generation request
const SystemPrompt = "You are an expert travel planner. You answer only with a JSON object " +
	"matching the requested schema, with no markdown and no commentary."

// Prompt is either a ContextAugmented or a GeneralKnowledge prompt
type Prompt interface {
	// Text renders the user message
	Text() (string, error)
	// AllowedSources is the exact list the model is told to return in "sources"
	AllowedSources() []string
	isPrompt()
}

// ContextAugmented grounds the plan in retrieved knowledge base text
type ContextAugmented struct {
	Request models.TripRequest
	Context string
	Sources []string
	Dates   []string
}

// GeneralKnowledge asks the model to plan from its own knowledge
type GeneralKnowledge struct {
	Request models.TripRequest
	Dates   []string
}

// Compose picks the prompt variant. Retrieved context is used only when it is
// non-blank and carries at least one source.
func Compose(req models.TripRequest, dates []string, result retrieval.Result) Prompt {
	ctx := result.Context()
	if strings.TrimSpace(ctx) != "" && len(result.Sources) > 0 {
		return ContextAugmented{
			Request: req,
			Context: ctx,
			Sources: append([]string(nil), result.Sources...),
			Dates:   dates,
		}
	}

	return GeneralKnowledge{Request: req, Dates: dates}
}

const planInstructions = `For "hotels", suggest 3 highly-rated hotels. Include name, description, approximate price range and a full, absolute Google Maps search link that opens Google Maps on that hotel.

For "restaurants", suggest 3 popular restaurants. Include name, cuisine type, a brief reason for recommendation and a full, absolute Google Maps search link that opens Google Maps on that restaurant.

For "itinerary", plan a day-by-day itinerary. Each day has a "day" (integer), a "date" (string) and an "activities" array. Each activity has an optional "time", a "name", a "description" and a "map_link".

Every map_link must be a bare absolute URL such as https://www.google.com/maps/search/?api=1&query=Kinkaku-ji+Kyoto, never a markdown link.`

const contextTemplate = `Plan a complete trip to {{.Request.Destination}} from {{.Request.FromDate}} to {{.Request.ToDate}}.
Consider these preferences: {{prefs .Request.Preferences}}.

Use the following travel guide excerpts as your primary source of information:
--- CONTEXT START ---
{{.Context}}
--- CONTEXT END ---

Provide the output as a JSON object with four top-level keys: "hotels", "restaurants", "itinerary" and "sources".

` + planInstructions + `

The itinerary must have exactly {{len .Dates}} days, one for each of these dates in order:
{{range $i, $d := .Dates}}Day {{inc $i}}: {{$d}}
{{end}}
For "sources", return exactly this list of file names and nothing else: {{json .Sources}}. Do not invent, add or remove sources.`

const generalTemplate = `Plan a complete trip to {{.Request.Destination}} from {{.Request.FromDate}} to {{.Request.ToDate}}.
Consider these preferences: {{prefs .Request.Preferences}}.

No travel guide material is available for this destination, so rely on your general knowledge.

Provide the output as a JSON object with four top-level keys: "hotels", "restaurants", "itinerary" and "sources".

` + planInstructions + `

The itinerary must have exactly {{len .Dates}} days. Assign "day" and "date" to match this list positionally:
{{range $i, $d := .Dates}}Day {{inc $i}}: {{$d}}
{{end}}
"sources" must be an empty array: [].`

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"prefs": func(p string) string {
		if strings.TrimSpace(p) == "" {
			return "any"
		}
		return p
	},
	"json": func(items []string) string {
		quoted := make([]string, len(items))
		for i, s := range items {
			quoted[i] = fmt.Sprintf("%q", s)
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	},
}

var (
	contextTmpl = template.Must(template.New("context").Funcs(funcs).Parse(contextTemplate))
	generalTmpl = template.Must(template.New("general").Funcs(funcs).Parse(generalTemplate))
)

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}

// Text renders the context-augmented user message
func (p ContextAugmented) Text() (string, error) {
	return render(contextTmpl, p)
}

func (p ContextAugmented) AllowedSources() []string {
	return p.Sources
}

func (ContextAugmented) isPrompt() {}

// Text renders the general-knowledge user message
func (p GeneralKnowledge) Text() (string, error) {
	return render(generalTmpl, p)
}

func (GeneralKnowledge) AllowedSources() []string {
	return []string{}
}

func (GeneralKnowledge) isPrompt() {}
