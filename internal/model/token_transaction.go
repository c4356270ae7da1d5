package model

import "time"

const (
	ReasonSignupGrant = "signup_grant"
	ReasonAnalysis    = "analysis"
	ReasonQuickFlow   = "quick_flow"
	ReasonPurchase    = "purchase"
	ReasonAdminGrant  = "admin_grant"
)

// TokenTransaction is one append-only ledger row. Delta is negative for
// charges. Reference is unique so replays are detected.
type TokenTransaction struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Delta        int       `gorm:"not null" json:"delta"`
	Reason       string    `gorm:"size:32;not null" json:"reason"`
	Reference    string    `gorm:"size:128;not null;uniqueIndex" json:"reference"`
	BalanceAfter int       `gorm:"not null" json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}
