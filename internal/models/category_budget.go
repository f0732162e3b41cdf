package models

import "github.com/shopspring/decimal"

// CategoryBudget is a per-category monthly spending ceiling.
// Unique on (user, category); upserted on set, hard-deleted on remove.
type CategoryBudget struct {
	Base
	UserID   string          `gorm:"type:uuid;not null;uniqueIndex:idx_user_category" json:"user_id"`
	Category string          `gorm:"not null;uniqueIndex:idx_user_category" json:"category"`
	Amount   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
}
