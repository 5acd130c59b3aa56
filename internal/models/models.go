package models

// DocumentRecord is the normalized text of one loaded file (or one PDF page)
type DocumentRecord struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Chunk represents a window of text cut from a DocumentRecord
type Chunk struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Source   string `json:"source"`
	Position int    `json:"position"`
}

// ScoredChunk is a chunk returned by a similarity search.
// Score is in [0,1], higher is more similar.
type ScoredChunk struct {
	Chunk
	Score float64 `json:"score"`
}

// IndexEntry pairs a chunk with its embedding vector
type IndexEntry struct {
	Chunk
	Vector []float32 `json:"vector"`
}

// TripRequest represents an incoming trip planning call
type TripRequest struct {
	Destination string `json:"destination"`
	FromDate    string `json:"from_date"`
	ToDate      string `json:"to_date"`
	Preferences string `json:"preferences,omitempty"`
}

// TripPlan is the structured itinerary produced by the model
type TripPlan struct {
	Hotels      []Hotel      `json:"hotels" jsonschema:"required"`
	Restaurants []Restaurant `json:"restaurants" jsonschema:"required"`
	Itinerary   []DayPlan    `json:"itinerary" jsonschema:"required"`
	Sources     []string     `json:"sources" jsonschema:"required"`
}

// Hotel is a recommended place to stay
type Hotel struct {
	Name        string `json:"name" jsonschema:"required"`
	Description string `json:"description" jsonschema:"required"`
	PriceRange  string `json:"price_range" jsonschema:"required"`
	MapLink     string `json:"map_link" jsonschema:"required,description=Full Google Maps search link"`
}

// Restaurant is a recommended place to eat
type Restaurant struct {
	Name    string `json:"name" jsonschema:"required"`
	Cuisine string `json:"cuisine" jsonschema:"required"`
	Reason  string `json:"recommendation_reason" jsonschema:"required"`
	MapLink string `json:"map_link" jsonschema:"required,description=Full Google Maps search link"`
}

// DayPlan holds the activities of a single itinerary day
type DayPlan struct {
	Day        int        `json:"day" jsonschema:"required"`
	Date       string     `json:"date" jsonschema:"required"`
	Activities []Activity `json:"activities" jsonschema:"required"`
}

// Activity is a tourist spot or activity within a day
type Activity struct {
	Time        string `json:"time,omitempty" jsonschema:"description=Optional time for the activity"`
	Name        string `json:"name" jsonschema:"required,description=Name of the tourist spot or activity"`
	Description string `json:"description" jsonschema:"required,description=Brief description of the activity"`
	MapLink     string `json:"map_link" jsonschema:"required,description=Full Google Maps search link"`
}
