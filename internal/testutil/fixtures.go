package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"balanceboard/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:     email,
		Password:  string(hash),
		FirstName: "Test",
		IsActive:  true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates a checking account with zero balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string) *models.Account {
	t.Helper()
	return CreateTestAccountWithBalance(t, db, userID, decimal.Zero)
}

// CreateTestAccountWithBalance creates a checking account with the given balance.
// The balance is written directly; callers that care about the ledger invariant
// should create matching transactions themselves.
func CreateTestAccountWithBalance(t *testing.T, db *gorm.DB, userID string, balance decimal.Decimal) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:  userID,
		Name:    fmt.Sprintf("Test Account %d", nextID()),
		Type:    models.AccountTypeChecking,
		Balance: balance,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestDefaultAccount creates a checking account flagged as default.
func CreateTestDefaultAccount(t *testing.T, db *gorm.DB, userID string) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:    userID,
		Name:      fmt.Sprintf("Default Account %d", nextID()),
		Type:      models.AccountTypeChecking,
		IsDefault: true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test default account: %v", err)
	}
	return account
}

// CreateTestTransaction inserts a transaction row directly, bypassing the
// service layer. The account balance is NOT adjusted.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, accountID string, txType models.TransactionType, amount decimal.Decimal, category string, date time.Time) *models.Transaction {
	t.Helper()

	txn := &models.Transaction{
		UserID:    userID,
		AccountID: accountID,
		Type:      txType,
		Amount:    amount,
		Category:  category,
		Date:      date,
		Status:    models.TransactionStatusCompleted,
	}
	if err := db.Create(txn).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return txn
}

// CreateTestBudget creates an overall budget for the user.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID string, amount decimal.Decimal) *models.Budget {
	t.Helper()

	budget := &models.Budget{UserID: userID, Amount: amount}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestCategoryBudget creates a category budget for the user.
func CreateTestCategoryBudget(t *testing.T, db *gorm.DB, userID, category string, amount decimal.Decimal) *models.CategoryBudget {
	t.Helper()

	budget := &models.CategoryBudget{UserID: userID, Category: category, Amount: amount}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test category budget: %v", err)
	}
	return budget
}
