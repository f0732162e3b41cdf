package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"balanceboard/internal/ai"
	"balanceboard/internal/logger"
	"balanceboard/internal/models"
)

// Minimum transactions in the analysis window before the AI summarizer is
// consulted; below it only the deterministic rules run.
const aiMinTransactions = 10

var codeFencePattern = regexp.MustCompile("```(?:json)?")

// InsightService produces spending insights over a three-month window.
// Deterministic rules always run; with enough data an AI summarizer is
// layered on top, degrading back to the rules when it fails.
type InsightService struct {
	db *gorm.DB
	ai ai.Client
}

// NewInsightService creates a new insight service. aiClient may be nil, in
// which case only rule-based insights are produced.
func NewInsightService(db *gorm.DB, aiClient ai.Client) *InsightService {
	return &InsightService{db: db, ai: aiClient}
}

// GetSpendingInsights returns insights for a user. It never fails: any
// internal fault degrades to a single fallback entry.
func (s *InsightService) GetSpendingInsights(ctx context.Context, userID string) []Insight {
	insights, err := s.compute(ctx, userID)
	if err != nil {
		logger.Get().Errorw("insight computation failed", "user_id", userID, "error", err.Error())
		return []Insight{{
			Type:        InsightInfo,
			Title:       "Insights Unavailable",
			Description: "We couldn't analyze your spending right now. Please try again later.",
		}}
	}
	return insights
}

func (s *InsightService) compute(ctx context.Context, userID string) ([]Insight, error) {
	now := time.Now()
	since := now.AddDate(0, -3, 0)

	var txns []models.Transaction
	err := s.db.Where("user_id = ? AND date >= ?", userID, since).
		Order("date DESC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}

	if len(txns) == 0 {
		return []Insight{{
			Type:        InsightInfo,
			Title:       "Start Tracking",
			Description: "Add your first transactions to see spending insights here.",
		}}, nil
	}

	basic := s.basicInsights(txns, now)

	if len(txns) >= aiMinTransactions && s.ai != nil {
		enriched, err := s.aiInsights(ctx, txns)
		if err == nil {
			return enriched, nil
		}
		logger.Get().Warnw("ai insights unavailable, using rule-based insights",
			"user_id", userID, "error", err.Error())
		if errors.Is(err, ai.ErrOverloaded) {
			basic = append([]Insight{{
				Type:        InsightInfo,
				Title:       "AI Analysis Busy",
				Description: "The AI service is busy right now; showing standard insights instead.",
			}}, basic...)
		}
	}

	return basic, nil
}

// basicInsights runs the deterministic rules over the window.
func (s *InsightService) basicInsights(txns []models.Transaction, now time.Time) []Insight {
	var insights []Insight

	curStart, _ := monthWindow(now)
	prevStart, _ := monthWindow(curStart.AddDate(0, 0, -1))

	curExpenses := decimal.Zero
	prevExpenses := decimal.Zero
	curIncome := decimal.Zero
	windowExpenseTotal := decimal.Zero
	windowExpenseCount := 0
	var largestExpense *models.Transaction
	curByCategory := make(map[string]decimal.Decimal)

	for i := range txns {
		t := &txns[i]
		if t.Type == models.TransactionTypeExpense {
			windowExpenseTotal = windowExpenseTotal.Add(t.Amount)
			windowExpenseCount++
			if largestExpense == nil || t.Amount.GreaterThan(largestExpense.Amount) {
				largestExpense = t
			}
			switch {
			case !t.Date.Before(curStart):
				curExpenses = curExpenses.Add(t.Amount)
				curByCategory[t.Category] = curByCategory[t.Category].Add(t.Amount)
			case !t.Date.Before(prevStart):
				prevExpenses = prevExpenses.Add(t.Amount)
			}
		} else if !t.Date.Before(curStart) {
			curIncome = curIncome.Add(t.Amount)
		}
	}

	hundred := decimal.NewFromInt(100)

	// Month-over-month expense swing beyond 20% either way.
	if prevExpenses.IsPositive() {
		change := curExpenses.Sub(prevExpenses).Div(prevExpenses).Mul(hundred)
		if change.GreaterThan(decimal.NewFromInt(20)) {
			insights = append(insights, Insight{
				Type:        InsightWarning,
				Title:       "Spending Increased",
				Description: fmt.Sprintf("Your spending is up %s%% compared to last month.", change.Round(1).String()),
			})
		} else if change.LessThan(decimal.NewFromInt(-20)) {
			insights = append(insights, Insight{
				Type:        InsightSuccess,
				Title:       "Spending Decreased",
				Description: fmt.Sprintf("Nice work, your spending is down %s%% compared to last month.", change.Neg().Round(1).String()),
			})
		}
	}

	// Top spending category this month.
	if len(curByCategory) > 0 {
		categories := make([]string, 0, len(curByCategory))
		for c := range curByCategory {
			categories = append(categories, c)
		}
		sort.Strings(categories)
		top := categories[0]
		for _, c := range categories[1:] {
			if curByCategory[c].GreaterThan(curByCategory[top]) {
				top = c
			}
		}
		amount := curByCategory[top]
		insights = append(insights, Insight{
			Type:        InsightInfo,
			Title:       "Top Spending Category",
			Description: fmt.Sprintf("Most of this month's spending went to %s (%s).", top, amount.StringFixed(2)),
			Category:    top,
			Amount:      &amount,
		})
	}

	// One outlier at most: the largest expense, if it exceeds three times
	// the window mean.
	if windowExpenseCount > 0 && largestExpense != nil {
		mean := windowExpenseTotal.Div(decimal.NewFromInt(int64(windowExpenseCount)))
		if largestExpense.Amount.GreaterThan(mean.Mul(decimal.NewFromInt(3))) {
			amount := largestExpense.Amount
			insights = append(insights, Insight{
				Type:        InsightWarning,
				Title:       "Unusually Large Expense",
				Description: fmt.Sprintf("A %s expense of %s is well above your typical spending.", largestExpense.Category, amount.StringFixed(2)),
				Category:    largestExpense.Category,
				Amount:      &amount,
			})
		}
	}

	// Savings rate for the current month.
	if curIncome.IsPositive() {
		rate := curIncome.Sub(curExpenses).Div(curIncome).Mul(hundred)
		if rate.GreaterThan(decimal.NewFromInt(20)) {
			insights = append(insights, Insight{
				Type:        InsightSuccess,
				Title:       "Healthy Savings Rate",
				Description: fmt.Sprintf("You're saving %s%% of your income this month. Keep it up!", rate.Round(1).String()),
			})
		} else if rate.IsNegative() {
			insights = append(insights, Insight{
				Type:        InsightWarning,
				Title:       "Spending Exceeds Income",
				Description: "You spent more than you earned this month.",
			})
		}
	}

	// A thin result gets a generic tip so the list never feels empty.
	if len(insights) < 2 {
		insights = append(insights, Insight{
			Type:        InsightTip,
			Title:       "Keep Tracking",
			Description: "Record more transactions to unlock detailed insights.",
		})
	}

	return insights
}

// aiInsights asks the AI collaborator for insights over a spending summary
// and parses its JSON reply.
func (s *InsightService) aiInsights(ctx context.Context, txns []models.Transaction) ([]Insight, error) {
	totalIncome := decimal.Zero
	totalExpenses := decimal.Zero
	byCategory := make(map[string]decimal.Decimal)
	for i := range txns {
		t := &txns[i]
		if t.Type == models.TransactionTypeExpense {
			totalExpenses = totalExpenses.Add(t.Amount)
			byCategory[t.Category] = byCategory[t.Category].Add(t.Amount)
		} else {
			totalIncome = totalIncome.Add(t.Amount)
		}
	}

	var categories strings.Builder
	names := make([]string, 0, len(byCategory))
	for c := range byCategory {
		names = append(names, c)
	}
	sort.Strings(names)
	for _, c := range names {
		fmt.Fprintf(&categories, "- %s: %s\n", c, byCategory[c].StringFixed(2))
	}

	prompt := fmt.Sprintf(`Analyze this personal finance data from the last 3 months and provide 3-5 concise, actionable insights.

Total income: %s
Total expenses: %s
Number of transactions: %d
Expenses by category:
%s
Respond with ONLY a JSON array, no other text. Each element must have:
- "type": one of "warning", "success", "info", "tip"
- "title": short headline
- "description": one or two sentences

Example: [{"type":"tip","title":"...","description":"..."}]`,
		totalIncome.StringFixed(2), totalExpenses.StringFixed(2), len(txns), categories.String())

	raw, err := s.ai.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	cleaned := strings.TrimSpace(codeFencePattern.ReplaceAllString(raw, ""))

	var parsed []Insight
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("unparseable ai response: %w", err)
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("empty ai response")
	}

	for i := range parsed {
		switch parsed[i].Type {
		case InsightWarning, InsightSuccess, InsightInfo, InsightTip:
		default:
			parsed[i].Type = InsightInfo
		}
		if parsed[i].Title == "" {
			parsed[i].Title = "Insight"
		}
	}
	return parsed, nil
}
