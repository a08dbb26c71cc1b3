package api

import (
	"time"

	"phrase-sentiment/internal/store"
)

// AnalysisDTO is the API representation for a recorded analysis.
type AnalysisDTO struct {
	ID               uint      `json:"id"`
	Phrase           string    `json:"phrase"`
	Sentiment        string    `json:"sentiment"`
	Score            float64   `json:"score"`
	Magnitude        float64   `json:"magnitude"`
	Language         string    `json:"language,omitempty"`
	Entities         []string  `json:"entities"`
	Provider         string    `json:"provider"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// HistoryResponse holds a page of recorded analyses and the total count.
type HistoryResponse struct {
	Items []AnalysisDTO `json:"items"`
	Total int64         `json:"total"`
}

// AnalysisFromModel converts the store row into its API representation.
func AnalysisFromModel(row store.Analysis) AnalysisDTO {
	entities := row.EntityNames()
	if entities == nil {
		entities = []string{}
	}
	return AnalysisDTO{
		ID:               row.ID,
		Phrase:           row.Phrase,
		Sentiment:        row.Label,
		Score:            row.Score,
		Magnitude:        row.Magnitude,
		Language:         row.Language,
		Entities:         entities,
		Provider:         row.Provider,
		ProcessingTimeMs: row.ProcessingTimeMs,
		CreatedAt:        row.CreatedAt,
	}
}
