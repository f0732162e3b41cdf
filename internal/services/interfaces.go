package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"balanceboard/internal/models"
	"balanceboard/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(userID, name string, accountType models.AccountType, initialBalance decimal.Decimal, isDefault bool) (*models.Account, error)
	GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID string) (*models.Account, error)
	GetDefaultAccount(userID string) (*models.Account, error)
	UpdateDefaultAccount(userID, accountID string) (*models.Account, error)
	DeleteAccount(userID, accountID string) error
	ApplyBalanceDelta(tx *gorm.DB, accountID string, delta decimal.Decimal) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate  *time.Time
	ToDate    *time.Time
	Type      *models.TransactionType
	Category  *string
	AccountID *string
}

// TransactionUpdateFields holds the optional fields of a transaction edit.
// Nil pointers leave the stored value unchanged.
type TransactionUpdateFields struct {
	AccountID         *string
	Type              *models.TransactionType
	Amount            *decimal.Decimal
	Category          *string
	Description       *string
	Date              *time.Time
	IsRecurring       *bool
	RecurringInterval *models.RecurringInterval
}

// ImportResult reports the outcome of a best-effort bulk import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Errors   []string `json:"errors,omitempty"`
}

// TransactionServicer defines the contract for the ledger: every operation
// that changes the transaction set while keeping account balances equal to
// the signed sum of their surviving transactions.
type TransactionServicer interface {
	CreateTransaction(userID string, draft models.TransactionDraft) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetAccountTransactions(userID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, fields TransactionUpdateFields) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
	BulkDeleteTransactions(userID string, transactionIDs []string) error
	ImportTransactions(userID string, drafts []models.TransactionDraft, targetAccountID string) (*ImportResult, error)
	ExportTransactions(userID, accountID string) (string, error)
	ProcessDueRecurring(now time.Time, limit int) (int, error)
}

// BudgetOverview pairs the user's overall budget (possibly nil) with the
// current month's expense total for one account.
type BudgetOverview struct {
	Budget          *models.Budget  `json:"budget"`
	CurrentExpenses decimal.Decimal `json:"current_expenses"`
}

// CategoryBudgetStatus joins a category budget with current-month spending.
type CategoryBudgetStatus struct {
	models.CategoryBudget
	Spent      decimal.Decimal `json:"spent"`
	Percentage float64         `json:"percentage"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	GetCurrentBudget(userID, accountID string) (*BudgetOverview, error)
	UpsertBudget(userID string, amount decimal.Decimal) (*models.Budget, error)
	GetCategoryBudgets(userID string) ([]models.CategoryBudget, error)
	GetCategorySpending(userID string) (map[string]decimal.Decimal, error)
	SetCategoryBudget(userID, category string, amount decimal.Decimal) (*models.CategoryBudget, error)
	DeleteCategoryBudget(userID, category string) error
	GetCategoryBudgetsWithSpending(userID string) ([]CategoryBudgetStatus, error)
	CheckAlerts(ctx context.Context, userID string)
}

// InsightType tags an insight entry for presentation.
type InsightType string

// Insight tag values.
const (
	InsightWarning InsightType = "warning"
	InsightSuccess InsightType = "success"
	InsightInfo    InsightType = "info"
	InsightTip     InsightType = "tip"
)

// Insight is one tagged observation about the user's spending.
type Insight struct {
	Type        InsightType      `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Category    string           `json:"category,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
}

// InsightServicer defines the contract for spending insights. It never
// returns an error: results degrade to deterministic analytics, and
// ultimately to a fixed fallback entry.
type InsightServicer interface {
	GetSpendingInsights(ctx context.Context, userID string) []Insight
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
