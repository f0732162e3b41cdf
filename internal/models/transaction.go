package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the direction of a money movement. The stored
// amount is always positive; the type carries the sign.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// TransactionStatus represents the lifecycle state of a transaction
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
)

// RecurringInterval represents how often a recurring transaction repeats
type RecurringInterval string

const (
	RecurringIntervalDaily   RecurringInterval = "DAILY"
	RecurringIntervalWeekly  RecurringInterval = "WEEKLY"
	RecurringIntervalMonthly RecurringInterval = "MONTHLY"
	RecurringIntervalYearly  RecurringInterval = "YEARLY"
)

// Transaction represents one money movement on an account
type Transaction struct {
	Base
	UserID      string            `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID   string            `gorm:"type:uuid;not null;index" json:"account_id"`
	Type        TransactionType   `gorm:"not null" json:"type"`
	Amount      decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"amount"`
	Category    string            `gorm:"not null" json:"category"`
	Description string            `json:"description"`
	Date        time.Time         `gorm:"not null;index" json:"date"`
	Status      TransactionStatus `gorm:"not null;default:'COMPLETED'" json:"status"`

	// Recurring transactions carry their schedule; NextRecurringDate drives
	// the pipeline that materializes due instances.
	IsRecurring       bool               `gorm:"not null;default:false" json:"is_recurring"`
	RecurringInterval *RecurringInterval `json:"recurring_interval,omitempty"`
	NextRecurringDate *time.Time         `gorm:"index" json:"next_recurring_date,omitempty"`
	LastProcessed     *time.Time         `json:"last_processed,omitempty"`

	// Relationships
	Account Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
}

// SignedAmount returns the amount with the sign implied by the type:
// positive for income, negative for expense.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// NextDate returns the occurrence following from, per the given interval.
func (i RecurringInterval) NextDate(from time.Time) time.Time {
	switch i {
	case RecurringIntervalDaily:
		return from.AddDate(0, 0, 1)
	case RecurringIntervalWeekly:
		return from.AddDate(0, 0, 7)
	case RecurringIntervalMonthly:
		return from.AddDate(0, 1, 0)
	case RecurringIntervalYearly:
		return from.AddDate(1, 0, 0)
	}
	return from
}
