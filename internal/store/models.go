package store

import (
	"encoding/json"
	"strings"
	"time"
)

// Analysis records one successful phrase analysis.
type Analysis struct {
	ID               uint    `gorm:"primaryKey"`
	Phrase           string  `gorm:"type:text"`
	Label            string  `gorm:"size:16;index"`
	Score            float64 `gorm:"index"`
	Magnitude        float64
	Language         string `gorm:"size:16"`
	EntityCount      int
	EntitiesJSON     string `gorm:"type:text"`
	Provider         string `gorm:"size:32;index"`
	ProcessingTimeMs int64
	CreatedAt        time.Time `gorm:"index"`
}

// SetEntityNames persists the detected entity names as JSON.
func (a *Analysis) SetEntityNames(names []string) {
	if names == nil {
		names = []string{}
	}
	payload, _ := json.Marshal(names)
	a.EntitiesJSON = string(payload)
	a.EntityCount = len(names)
}

// EntityNames returns the unmarshalled entity names.
func (a *Analysis) EntityNames() []string {
	if strings.TrimSpace(a.EntitiesJSON) == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(a.EntitiesJSON), &out); err != nil {
		return nil
	}
	return out
}
