package analysis

import "context"

// Provider wraps the two detections offered by a natural-language service.
// Each call returns the first result set reported for the supplied text.
type Provider interface {
	DetectEntities(ctx context.Context, text string) (EntityAnalysis, error)
	DetectSentiment(ctx context.Context, text string) (Sentiment, error)
}

// Sentiment is the document-level polarity reported by a provider.
type Sentiment struct {
	Score     float64 `json:"score"`
	Magnitude float64 `json:"magnitude"`
}

// Entity represents a named entity detected in the text.
type Entity struct {
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Salience float64           `json:"salience"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Mentions []Mention         `json:"mentions,omitempty"`
}

// Mention holds details about a single entity mention.
type Mention struct {
	Content     string `json:"content"`
	BeginOffset int32  `json:"begin_offset"`
	Type        string `json:"type,omitempty"`
}

// EntityAnalysis is the entity payload handed to the result view as-is.
type EntityAnalysis struct {
	Entities []Entity `json:"entities"`
	Language string   `json:"language,omitempty"`
}

// Result merges the entity and sentiment detections for one text.
type Result struct {
	Analysis  EntityAnalysis `json:"analysis"`
	Sentiment Sentiment      `json:"sentiment"`
}
