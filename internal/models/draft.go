package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionDraft is a validated intermediate record for a transaction
// that has not been persisted yet: CSV rows decode into drafts, and the
// import operation turns drafts into rows. It carries no identity and no
// owner; both are assigned at insert time.
type TransactionDraft struct {
	AccountID         string             `json:"account_id,omitempty"`
	Type              TransactionType    `json:"type"`
	Amount            decimal.Decimal    `json:"amount"`
	Category          string             `json:"category"`
	Description       string             `json:"description,omitempty"`
	Date              time.Time          `json:"date"`
	IsRecurring       bool               `json:"is_recurring,omitempty"`
	RecurringInterval *RecurringInterval `json:"recurring_interval,omitempty"`
	Status            TransactionStatus  `json:"status,omitempty"`
}
