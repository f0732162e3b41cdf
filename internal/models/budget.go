package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is the single optional monthly spending ceiling per user.
// Upserted on write; at most one row per user.
type Budget struct {
	Base
	UserID        string          `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	LastAlertSent *time.Time      `json:"last_alert_sent,omitempty"`
}
