package csvcodec

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	apperrors "balanceboard/internal/errors"
	"balanceboard/internal/models"
)

func TestEncode(t *testing.T) {
	interval := models.RecurringIntervalMonthly
	txns := []models.Transaction{
		{
			Type:        models.TransactionTypeExpense,
			Amount:      decimal.RequireFromString("42.50"),
			Category:    "groceries",
			Description: `Weekly "big" shop, with extras`,
			Date:        time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC),
			Status:      models.TransactionStatusCompleted,
			Account:     models.Account{Name: "Main Checking"},
		},
		{
			Type:              models.TransactionTypeIncome,
			Amount:            decimal.RequireFromString("2500"),
			Category:          "salary",
			Date:              time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			Status:            models.TransactionStatusCompleted,
			IsRecurring:       true,
			RecurringInterval: &interval,
			Account:           models.Account{Name: "Main Checking"},
		},
	}

	got := Encode(txns)
	want := "Date,Type,Amount,Category,Description,Account,Recurring,Recurring Interval,Status\n" +
		`"2026-08-15","EXPENSE","42.5","groceries","Weekly ""big"" shop, with extras","Main Checking","No","","COMPLETED"` + "\n" +
		`"2026-08-01","INCOME","2500","salary","","Main Checking","Yes","MONTHLY","COMPLETED"`

	if got != want {
		t.Errorf("unexpected CSV output:\ngot:  %s\nwant: %s", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	txns := []models.Transaction{
		{
			Type:        models.TransactionTypeExpense,
			Amount:      decimal.RequireFromString("12.30"),
			Category:    "food",
			Description: "Lunch, with a friend",
			Date:        time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC),
			Status:      models.TransactionStatusCompleted,
		},
	}

	result, err := Decode(Encode(txns))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(result.Drafts) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(result.Drafts))
	}

	draft := result.Drafts[0]
	if draft.Type != models.TransactionTypeExpense {
		t.Errorf("type = %s", draft.Type)
	}
	if !draft.Amount.Equal(decimal.RequireFromString("12.3")) {
		t.Errorf("amount = %s", draft.Amount)
	}
	if draft.Category != "food" {
		t.Errorf("category = %s", draft.Category)
	}
	if draft.Description != "Lunch, with a friend" {
		t.Errorf("description = %q", draft.Description)
	}
	if !draft.Date.Equal(time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %s", draft.Date)
	}
}

func TestDecodeMissingRequiredColumn(t *testing.T) {
	raw := "Date,Type,Category\n2026-01-01,EXPENSE,food"

	_, err := Decode(raw)
	if err == nil {
		t.Fatal("expected error for missing Amount column")
	}
	appErr, ok := err.(*apperrors.AppError)
	if !ok || appErr.Code != apperrors.ErrMissingColumns.Code {
		t.Errorf("expected MISSING_COLUMNS, got %v", err)
	}
	if !strings.Contains(appErr.Message, "Amount") {
		t.Errorf("message should name the missing column: %s", appErr.Message)
	}
}

func TestDecodeEmpty(t *testing.T) {
	for _, raw := range []string{"", "Date,Type,Amount,Category"} {
		if _, err := Decode(raw); err == nil {
			t.Errorf("expected error for input %q", raw)
		}
	}
}

func TestDecodeRowErrors(t *testing.T) {
	raw := strings.Join([]string{
		"Date,Type,Amount,Category",
		"2026-01-05,EXPENSE,10.00,food",
		"not-a-date,EXPENSE,5.00,food",
		"2026-01-06,TRANSFER,5.00,food",
		"2026-01-07,INCOME,-3,salary",
		"2026-01-08,income,99.99,salary",
	}, "\n")

	result, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if result.TotalRows != 5 {
		t.Errorf("total rows = %d, want 5", result.TotalRows)
	}
	if result.AcceptedRows != 2 {
		t.Errorf("accepted rows = %d, want 2", result.AcceptedRows)
	}
	if len(result.Errors) != 3 {
		t.Fatalf("errors = %v, want 3 entries", result.Errors)
	}
	for i, want := range []string{"Row 2", "Row 3", "Row 4"} {
		if !strings.HasPrefix(result.Errors[i], want) {
			t.Errorf("error %d = %q, want prefix %q", i, result.Errors[i], want)
		}
	}

	// Lowercase type is accepted.
	if result.Drafts[1].Type != models.TransactionTypeIncome {
		t.Errorf("lowercase income row not accepted: %v", result.Drafts[1])
	}
}

func TestDecodeAllRowsInvalid(t *testing.T) {
	raw := "Date,Type,Amount,Category\nbad,EXPENSE,1.00,food\n2026-01-01,EXPENSE,zero,food"

	_, err := Decode(raw)
	if err == nil {
		t.Fatal("expected error when no rows decode")
	}
	appErr, ok := err.(*apperrors.AppError)
	if !ok || appErr.Code != apperrors.ErrInvalidInput.Code {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestDecodeReorderedColumns(t *testing.T) {
	raw := "Amount,Category,Date,Type\n15.00,travel,2026-02-01,EXPENSE"

	result, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	draft := result.Drafts[0]
	if draft.Category != "travel" || !draft.Amount.Equal(decimal.NewFromInt(15)) {
		t.Errorf("column mapping broken: %+v", draft)
	}
}

func TestSplitRowQuotes(t *testing.T) {
	row := splitRow(`"a,b","say ""hi""",plain`)
	want := []string{"a,b", `say "hi"`, "plain"}
	if len(row) != len(want) {
		t.Fatalf("got %d fields, want %d", len(row), len(want))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("field %d = %q, want %q", i, row[i], want[i])
		}
	}
}

func TestDecodeRecurringInterval(t *testing.T) {
	raw := "Date,Type,Amount,Category,Recurring,Recurring Interval\n" +
		"2026-03-01,EXPENSE,9.99,bills,Yes,monthly\n" +
		"2026-03-02,EXPENSE,9.99,bills,No,WEEKLY"

	result, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	first := result.Drafts[0]
	if !first.IsRecurring || first.RecurringInterval == nil || *first.RecurringInterval != models.RecurringIntervalMonthly {
		t.Errorf("recurring row decoded wrong: %+v", first)
	}
	second := result.Drafts[1]
	if second.IsRecurring || second.RecurringInterval != nil {
		t.Errorf("non-recurring row should ignore interval: %+v", second)
	}
}

func TestDecodeUnknownRecurringInterval(t *testing.T) {
	raw := "Date,Type,Amount,Category,Recurring,Recurring Interval\n" +
		"2026-03-01,EXPENSE,9.99,bills,Yes,fortnightly"

	result, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if result.AcceptedRows != 1 || len(result.Errors) != 0 {
		t.Fatalf("row should be accepted, got %+v", result)
	}

	// The row survives as a one-off rather than being dropped later for
	// lacking a schedule.
	draft := result.Drafts[0]
	if draft.IsRecurring || draft.RecurringInterval != nil {
		t.Errorf("unknown interval should demote the row to one-off: %+v", draft)
	}
}
