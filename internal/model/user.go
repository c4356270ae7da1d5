package model

import "time"

type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Username      string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email         string    `gorm:"size:128;not null;uniqueIndex" json:"email"`
	PasswordHash  string    `gorm:"size:255;not null" json:"-"`
	DisplayName   string    `gorm:"size:128" json:"display_name"`
	Tokens        int       `gorm:"not null;default:0" json:"tokens"`
	AestheticGoal string    `gorm:"type:text" json:"aesthetic_goal"`
	AnalysisCount int       `gorm:"not null;default:0" json:"analysis_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
