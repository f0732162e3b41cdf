// Package csvcodec encodes and decodes transaction CSV files.
//
// The format is a fixed nine-column layout with minimal RFC-4180-style
// escaping: every encoded field is quote-wrapped with internal quotes
// doubled, and decoding splits rows on unquoted commas only. Columns are
// matched by header name, not position, so reordered files decode fine.
package csvcodec

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "balanceboard/internal/errors"
	"balanceboard/internal/models"
)

// Header column names, in export order.
const (
	ColDate              = "Date"
	ColType              = "Type"
	ColAmount            = "Amount"
	ColCategory          = "Category"
	ColDescription       = "Description"
	ColAccount           = "Account"
	ColRecurring         = "Recurring"
	ColRecurringInterval = "Recurring Interval"
	ColStatus            = "Status"
)

var headerColumns = []string{
	ColDate, ColType, ColAmount, ColCategory, ColDescription,
	ColAccount, ColRecurring, ColRecurringInterval, ColStatus,
}

// requiredColumns must all be present in an import header.
var requiredColumns = []string{ColDate, ColType, ColAmount, ColCategory}

// dateLayouts are the accepted input date formats. The exporter writes the
// first one.
var dateLayouts = []string{"2006-01-02", time.RFC3339, "01/02/2006"}

// Result is the outcome of decoding a CSV document. Decoding is best-effort
// per row: invalid rows land in Errors and valid rows in Drafts. Errors is
// nil when every row decoded.
type Result struct {
	Drafts       []models.TransactionDraft `json:"transactions"`
	Errors       []string                  `json:"errors,omitempty"`
	TotalRows    int                       `json:"total_rows"`
	AcceptedRows int                       `json:"successful_rows"`
}

// Encode renders transactions as a CSV document with the standard header.
// The Account relation must be preloaded for the account-name column.
func Encode(transactions []models.Transaction) string {
	var b strings.Builder
	b.WriteString(strings.Join(headerColumns, ","))

	for i := range transactions {
		t := &transactions[i]

		interval := ""
		if t.RecurringInterval != nil {
			interval = string(*t.RecurringInterval)
		}
		recurring := "No"
		if t.IsRecurring {
			recurring = "Yes"
		}

		fields := []string{
			t.Date.Format("2006-01-02"),
			string(t.Type),
			t.Amount.String(),
			t.Category,
			t.Description,
			t.Account.Name,
			recurring,
			interval,
			string(t.Status),
		}

		b.WriteByte('\n')
		for j, f := range fields {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quote(f))
		}
	}

	return b.String()
}

// Decode parses a CSV document into transaction drafts. The first line is
// the header; the required columns Date, Type, Amount, and Category must all
// be present or decoding fails with MISSING_COLUMNS. Rows that fail
// validation are collected as row-indexed error strings; decoding only fails
// outright when zero rows succeed.
func Decode(raw string) (*Result, error) {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	if len(lines) < 2 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "CSV file is empty or invalid")
	}

	header := splitRow(strings.TrimRight(lines[0], "\r"))
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrMissingColumns,
			"Missing required columns: "+strings.Join(missing, ", "))
	}

	result := &Result{}
	field := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	for n := 1; n < len(lines); n++ {
		line := strings.TrimSpace(strings.TrimRight(lines[n], "\r"))
		if line == "" {
			continue
		}
		result.TotalRows++

		row := splitRow(line)

		draft, err := decodeRow(row, field)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", n, err.Error()))
			continue
		}

		result.Drafts = append(result.Drafts, draft)
		result.AcceptedRows++
	}

	if result.AcceptedRows == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
			"Failed to parse CSV:\n"+strings.Join(result.Errors, "\n"))
	}

	return result, nil
}

// decodeRow validates one data row and builds a draft from it.
func decodeRow(row []string, field func([]string, string) string) (models.TransactionDraft, error) {
	var draft models.TransactionDraft

	date, err := parseDate(field(row, ColDate))
	if err != nil {
		return draft, err
	}

	amount, err := decimal.NewFromString(field(row, ColAmount))
	if err != nil || !amount.IsPositive() {
		return draft, apperrors.ErrInvalidAmount
	}

	txType := models.TransactionType(strings.ToUpper(field(row, ColType)))
	if txType != models.TransactionTypeIncome && txType != models.TransactionTypeExpense {
		return draft, apperrors.ErrInvalidType
	}

	draft.Date = date
	draft.Amount = amount
	draft.Type = txType
	draft.Category = field(row, ColCategory)
	draft.Description = field(row, ColDescription)
	draft.IsRecurring = strings.EqualFold(field(row, ColRecurring), "yes")

	if draft.IsRecurring {
		interval := models.RecurringInterval(strings.ToUpper(field(row, ColRecurringInterval)))
		switch interval {
		case models.RecurringIntervalDaily, models.RecurringIntervalWeekly,
			models.RecurringIntervalMonthly, models.RecurringIntervalYearly:
			draft.RecurringInterval = &interval
		default:
			// Unrecognized interval: keep the row, import it as a one-off.
			draft.IsRecurring = false
		}
	}

	draft.Status = models.TransactionStatus(strings.ToUpper(field(row, ColStatus)))
	if draft.Status == "" {
		draft.Status = models.TransactionStatusCompleted
	}

	return draft, nil
}

// parseDate tries each accepted layout in turn.
func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.ErrInvalidDate
}

// splitRow splits a CSV line on unquoted commas, stripping the surrounding
// quotes from each field and collapsing doubled quotes.
func splitRow(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		switch c := line[i]; {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				current.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))

	return fields
}

// quote wraps a field in double quotes, doubling any internal quotes.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
