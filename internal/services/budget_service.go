package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"balanceboard/internal/catalog"
	"balanceboard/internal/email"
	apperrors "balanceboard/internal/errors"
	"balanceboard/internal/logger"
	"balanceboard/internal/models"
)

// Budget alerts fire when current spending crosses this share of the budget.
var alertThreshold = decimal.NewFromInt(80)

// BudgetService handles overall and per-category budget logic.
type BudgetService struct {
	db     *gorm.DB
	sender email.Sender
}

// NewBudgetService creates a new budget service. sender may be nil, in which
// case budget alerts are skipped.
func NewBudgetService(db *gorm.DB, sender email.Sender) *BudgetService {
	return &BudgetService{db: db, sender: sender}
}

// monthWindow returns the first and last instant of the month containing t.
func monthWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

// GetCurrentBudget returns the user's overall budget together with the
// current month's expense total for one account. The budget is nil when the
// user has not set one.
func (s *BudgetService) GetCurrentBudget(userID, accountID string) (*BudgetOverview, error) {
	var budget models.Budget
	overview := &BudgetOverview{CurrentExpenses: decimal.Zero}

	err := s.db.Where("user_id = ?", userID).First(&budget).Error
	if err == nil {
		overview.Budget = &budget
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	start, end := monthWindow(time.Now())
	expenses, err := s.sumExpenses(userID, accountID, start, end)
	if err != nil {
		return nil, err
	}
	overview.CurrentExpenses = expenses
	return overview, nil
}

// UpsertBudget creates or replaces the user's single overall budget. The
// amount is intentionally not range-checked; only category budgets enforce
// positivity.
func (s *BudgetService) UpsertBudget(userID string, amount decimal.Decimal) (*models.Budget, error) {
	var budget models.Budget
	err := s.db.Where("user_id = ?", userID).First(&budget).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		budget = models.Budget{UserID: userID, Amount: amount}
		if err := s.db.Create(&budget).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return &budget, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	budget.Amount = amount
	if err := s.db.Model(&budget).Update("amount", amount).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// GetCategoryBudgets lists the user's category budgets.
func (s *BudgetService) GetCategoryBudgets(userID string) ([]models.CategoryBudget, error) {
	var budgets []models.CategoryBudget
	err := s.db.Where("user_id = ?", userID).Order("category ASC").Find(&budgets).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// GetCategorySpending returns current-month expense totals keyed by category.
func (s *BudgetService) GetCategorySpending(userID string) (map[string]decimal.Decimal, error) {
	start, end := monthWindow(time.Now())

	type row struct {
		Category string
		Total    decimal.Decimal
	}
	var rows []row
	err := s.db.Model(&models.Transaction{}).
		Select("category, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND type = ? AND date BETWEEN ? AND ?",
			userID, models.TransactionTypeExpense, start, end).
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	spending := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		spending[r.Category] = r.Total
	}
	return spending, nil
}

// SetCategoryBudget creates or replaces the budget for one category.
func (s *BudgetService) SetCategoryBudget(userID, category string, amount decimal.Decimal) (*models.CategoryBudget, error) {
	if !amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}
	if !catalog.IsValid(category) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown category: "+category)
	}

	var budget models.CategoryBudget
	err := s.db.Where("user_id = ? AND category = ?", userID, category).First(&budget).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		budget = models.CategoryBudget{UserID: userID, Category: category, Amount: amount}
		if err := s.db.Create(&budget).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return &budget, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	budget.Amount = amount
	if err := s.db.Model(&budget).Update("amount", amount).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// DeleteCategoryBudget removes the budget for one category permanently.
func (s *BudgetService) DeleteCategoryBudget(userID, category string) error {
	res := s.db.Unscoped().
		Where("user_id = ? AND category = ?", userID, category).
		Delete(&models.CategoryBudget{})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrCategoryBudgetNotFound
	}
	return nil
}

// GetCategoryBudgetsWithSpending joins each category budget with the current
// month's spending in that category. Percentage is zero when nothing was
// spent, regardless of the budget amount.
func (s *BudgetService) GetCategoryBudgetsWithSpending(userID string) ([]CategoryBudgetStatus, error) {
	budgets, err := s.GetCategoryBudgets(userID)
	if err != nil {
		return nil, err
	}
	spending, err := s.GetCategorySpending(userID)
	if err != nil {
		return nil, err
	}

	statuses := make([]CategoryBudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		spent := spending[b.Category]
		pct := 0.0
		if spent.IsPositive() && b.Amount.IsPositive() {
			pct, _ = spent.Div(b.Amount).Mul(decimal.NewFromInt(100)).Float64()
		}
		statuses = append(statuses, CategoryBudgetStatus{
			CategoryBudget: b,
			Spent:          spent,
			Percentage:     pct,
		})
	}
	return statuses, nil
}

// CheckAlerts emails the user when current-month spending on the default
// account crosses the alert threshold of their overall budget. At most one
// alert per calendar month. Failures are logged, never returned: alerting
// must not affect the operation that triggered the check.
func (s *BudgetService) CheckAlerts(ctx context.Context, userID string) {
	if s.sender == nil {
		return
	}
	log := logger.Get()

	var budget models.Budget
	if err := s.db.Where("user_id = ?", userID).First(&budget).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnw("budget alert check failed", "user_id", userID, "error", err.Error())
		}
		return
	}

	now := time.Now()
	if budget.LastAlertSent != nil &&
		budget.LastAlertSent.Year() == now.Year() &&
		budget.LastAlertSent.Month() == now.Month() {
		return
	}

	var account models.Account
	if err := s.db.Where("user_id = ? AND is_default = ?", userID, true).First(&account).Error; err != nil {
		return
	}

	start, end := monthWindow(now)
	expenses, err := s.sumExpenses(userID, account.ID, start, end)
	if err != nil {
		log.Warnw("budget alert check failed", "user_id", userID, "error", err.Error())
		return
	}
	if !budget.Amount.IsPositive() {
		return
	}

	pct := expenses.Div(budget.Amount).Mul(decimal.NewFromInt(100))
	if pct.LessThan(alertThreshold) {
		return
	}

	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		return
	}

	subject := "Budget Alert for " + account.Name
	html := fmt.Sprintf(
		"<h2>Budget Alert</h2><p>Hi %s,</p><p>You've used %s%% of your monthly budget.</p>"+
			"<p>Budget: %s<br>Spent so far: %s<br>Remaining: %s</p>",
		user.FirstName,
		pct.Round(1).String(),
		budget.Amount.StringFixed(2),
		expenses.StringFixed(2),
		budget.Amount.Sub(expenses).StringFixed(2),
	)
	if err := s.sender.Send(ctx, user.Email, subject, html); err != nil {
		log.Warnw("budget alert email failed", "user_id", userID, "error", err.Error())
		return
	}

	if err := s.db.Model(&budget).Update("last_alert_sent", now).Error; err != nil {
		log.Warnw("budget alert timestamp update failed", "user_id", userID, "error", err.Error())
	}
}

// sumExpenses totals completed and pending expense amounts for one account
// in [start, end].
func (s *BudgetService) sumExpenses(userID, accountID string, start, end time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := s.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND account_id = ? AND type = ? AND date BETWEEN ? AND ?",
			userID, accountID, models.TransactionTypeExpense, start, end).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result.Total, nil
}
