package model

import (
	"encoding/json"
	"time"
)

// Analysis is one paid face analysis. Result holds the validated model output
// exactly as it was accepted.
type Analysis struct {
	ID             uint            `gorm:"primaryKey" json:"-"`
	PublicID       string          `gorm:"size:36;not null;uniqueIndex" json:"id"`
	UserID         uint            `gorm:"not null;index" json:"user_id"`
	PhotoDataURI   string          `gorm:"type:mediumtext" json:"photo_data_uri,omitempty"`
	Goal           string          `gorm:"type:text" json:"goal,omitempty"`
	AestheticScore float64         `gorm:"not null" json:"aesthetic_score"`
	Result         json.RawMessage `gorm:"type:text;serializer:json" json:"result"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
}

// AnalysisSummary is the list view of an analysis; it leaves out the photo.
type AnalysisSummary struct {
	PublicID       string    `json:"id"`
	AestheticScore float64   `json:"aesthetic_score"`
	Goal           string    `json:"goal,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (a *Analysis) Summary() AnalysisSummary {
	return AnalysisSummary{
		PublicID:       a.PublicID,
		AestheticScore: a.AestheticScore,
		Goal:           a.Goal,
		CreatedAt:      a.CreatedAt,
	}
}
