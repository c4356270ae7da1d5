package model

import "time"

type Product struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:128;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	PriceCents  int       `gorm:"not null" json:"price_cents"`
	ImageURL    string    `gorm:"size:512" json:"image_url"`
	Link        string    `gorm:"size:512" json:"link"`
	CreatedAt   time.Time `json:"created_at"`
}
