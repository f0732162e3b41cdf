// Package catalog holds the application-defined category catalog. Categories
// are fixed labels, not database rows; transactions store the category id as
// a plain string and the persistence layer does not enforce membership.
package catalog

import "balanceboard/internal/models"

// Category describes one entry in the category catalog.
type Category struct {
	ID    string                 `json:"id"`
	Name  string                 `json:"name"`
	Type  models.TransactionType `json:"type"`
	Color string                 `json:"color"`
}

// Default is the built-in category catalog.
var Default = []Category{
	// Income
	{ID: "salary", Name: "Salary", Type: models.TransactionTypeIncome, Color: "#10b981"},
	{ID: "freelance", Name: "Freelance", Type: models.TransactionTypeIncome, Color: "#0ea5e9"},
	{ID: "investments", Name: "Investments", Type: models.TransactionTypeIncome, Color: "#6366f1"},
	{ID: "business", Name: "Business Income", Type: models.TransactionTypeIncome, Color: "#d97706"},
	{ID: "rental", Name: "Rental Income", Type: models.TransactionTypeIncome, Color: "#9333ea"},
	{ID: "other-income", Name: "Other Income", Type: models.TransactionTypeIncome, Color: "#6b7280"},

	// Expense
	{ID: "housing", Name: "Housing", Type: models.TransactionTypeExpense, Color: "#ef4444"},
	{ID: "transportation", Name: "Transportation", Type: models.TransactionTypeExpense, Color: "#f97316"},
	{ID: "groceries", Name: "Groceries", Type: models.TransactionTypeExpense, Color: "#84cc16"},
	{ID: "utilities", Name: "Utilities", Type: models.TransactionTypeExpense, Color: "#0ea5e9"},
	{ID: "entertainment", Name: "Entertainment", Type: models.TransactionTypeExpense, Color: "#8b5cf6"},
	{ID: "food", Name: "Food & Dining", Type: models.TransactionTypeExpense, Color: "#f43f5e"},
	{ID: "shopping", Name: "Shopping", Type: models.TransactionTypeExpense, Color: "#ec4899"},
	{ID: "healthcare", Name: "Healthcare", Type: models.TransactionTypeExpense, Color: "#14b8a6"},
	{ID: "education", Name: "Education", Type: models.TransactionTypeExpense, Color: "#4f46e5"},
	{ID: "personal", Name: "Personal Care", Type: models.TransactionTypeExpense, Color: "#db2777"},
	{ID: "travel", Name: "Travel", Type: models.TransactionTypeExpense, Color: "#0284c7"},
	{ID: "insurance", Name: "Insurance", Type: models.TransactionTypeExpense, Color: "#475569"},
	{ID: "gifts", Name: "Gifts & Donations", Type: models.TransactionTypeExpense, Color: "#facc15"},
	{ID: "bills", Name: "Bills & EMIs", Type: models.TransactionTypeExpense, Color: "#c026d3"},
	{ID: "other-expense", Name: "Other Expenses", Type: models.TransactionTypeExpense, Color: "#94a3b8"},
}

var byID = func() map[string]Category {
	m := make(map[string]Category, len(Default))
	for _, c := range Default {
		m[c.ID] = c
	}
	return m
}()

// Lookup returns the catalog entry for the given category id.
func Lookup(id string) (Category, bool) {
	c, ok := byID[id]
	return c, ok
}

// IsValid reports whether id names a catalog category.
func IsValid(id string) bool {
	_, ok := byID[id]
	return ok
}
