package handlers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "balanceboard/internal/errors"
	"balanceboard/internal/models"
	"balanceboard/internal/pagination"
	"balanceboard/internal/services"
)

// --- mock transaction service ---

type mockTransactionService struct {
	createTransactionFn   func(userID string, draft models.TransactionDraft) (*models.Transaction, error)
	bulkDeleteFn          func(userID string, ids []string) error
	importTransactionsFn  func(userID string, drafts []models.TransactionDraft, targetAccountID string) (*services.ImportResult, error)
	exportTransactionsFn  func(userID, accountID string) (string, error)
	processDueRecurringFn func(now time.Time, limit int) (int, error)
}

func (m *mockTransactionService) CreateTransaction(userID string, draft models.TransactionDraft) (*models.Transaction, error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(userID, draft)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) GetUserTransactions(_ string, page pagination.PageRequest, _ services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()
	resp := pagination.NewPageResponse([]models.Transaction{}, page.Page, page.PageSize, 0)
	return &resp, nil
}

func (m *mockTransactionService) GetAccountTransactions(userID, _ string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	return m.GetUserTransactions(userID, page, filter)
}

func (m *mockTransactionService) GetTransactionByID(_, _ string) (*models.Transaction, error) {
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) UpdateTransaction(_, _ string, _ services.TransactionUpdateFields) (*models.Transaction, error) {
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) DeleteTransaction(_, _ string) error { return nil }

func (m *mockTransactionService) BulkDeleteTransactions(userID string, ids []string) error {
	if m.bulkDeleteFn != nil {
		return m.bulkDeleteFn(userID, ids)
	}
	return nil
}

func (m *mockTransactionService) ImportTransactions(userID string, drafts []models.TransactionDraft, targetAccountID string) (*services.ImportResult, error) {
	if m.importTransactionsFn != nil {
		return m.importTransactionsFn(userID, drafts, targetAccountID)
	}
	return &services.ImportResult{Imported: len(drafts)}, nil
}

func (m *mockTransactionService) ExportTransactions(userID, accountID string) (string, error) {
	if m.exportTransactionsFn != nil {
		return m.exportTransactionsFn(userID, accountID)
	}
	return "", nil
}

func (m *mockTransactionService) ProcessDueRecurring(now time.Time, limit int) (int, error) {
	if m.processDueRecurringFn != nil {
		return m.processDueRecurringFn(now, limit)
	}
	return 0, nil
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

func setupTransactionRouter(handler *TransactionHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/transactions", handler.Create)
	auth.GET("/transactions", handler.List)
	auth.POST("/transactions/bulk-delete", handler.BulkDelete)
	auth.GET("/transactions/export", handler.Export)
	auth.POST("/transactions/import", handler.Import)
	return r
}

func newTransactionHandler(txnSvc services.TransactionServicer) *TransactionHandler {
	return NewTransactionHandler(txnSvc, &mockBudgetService{}, &mockAuditService{})
}

func TestTransactionHandler_Create(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		txnSvc := &mockTransactionService{
			createTransactionFn: func(userID string, draft models.TransactionDraft) (*models.Transaction, error) {
				if userID != testUserID {
					t.Errorf("userID = %s", userID)
				}
				if !draft.Amount.Equal(decimal.RequireFromString("42.50")) {
					t.Errorf("amount = %s", draft.Amount)
				}
				return &models.Transaction{
					Base:      models.Base{ID: "txn-1"},
					UserID:    userID,
					AccountID: draft.AccountID,
					Type:      draft.Type,
					Amount:    draft.Amount,
					Category:  draft.Category,
				}, nil
			},
		}
		r := setupTransactionRouter(newTransactionHandler(txnSvc))

		rec := doRequest(r, "POST", "/transactions",
			`{"account_id":"acc-1","type":"EXPENSE","amount":42.50,"category":"groceries"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("unknown category rejected at the boundary", func(t *testing.T) {
		r := setupTransactionRouter(newTransactionHandler(&mockTransactionService{}))

		rec := doRequest(r, "POST", "/transactions",
			`{"account_id":"acc-1","type":"EXPENSE","amount":10,"category":"yachts"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("invalid type rejected", func(t *testing.T) {
		r := setupTransactionRouter(newTransactionHandler(&mockTransactionService{}))

		rec := doRequest(r, "POST", "/transactions",
			`{"account_id":"acc-1","type":"TRANSFER","amount":10,"category":"food"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_BulkDelete(t *testing.T) {
	t.Run("returns 204 and passes ids through", func(t *testing.T) {
		var gotIDs []string
		txnSvc := &mockTransactionService{
			bulkDeleteFn: func(_ string, ids []string) error {
				gotIDs = ids
				return nil
			},
		}
		r := setupTransactionRouter(newTransactionHandler(txnSvc))

		rec := doRequest(r, "POST", "/transactions/bulk-delete",
			`{"transaction_ids":["a","b","c"]}`)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(gotIDs) != 3 {
			t.Errorf("ids = %v", gotIDs)
		}
	})

	t.Run("empty id list rejected", func(t *testing.T) {
		r := setupTransactionRouter(newTransactionHandler(&mockTransactionService{}))

		rec := doRequest(r, "POST", "/transactions/bulk-delete", `{"transaction_ids":[]}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_Export(t *testing.T) {
	t.Run("serves CSV as attachment", func(t *testing.T) {
		txnSvc := &mockTransactionService{
			exportTransactionsFn: func(_, _ string) (string, error) {
				return "Date,Type,Amount,Category,Description,Account,Recurring,Recurring Interval,Status", nil
			},
		}
		r := setupTransactionRouter(newTransactionHandler(txnSvc))

		rec := doRequest(r, "GET", "/transactions/export", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
			t.Errorf("content type = %s", ct)
		}
		if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
			t.Errorf("content disposition = %s", cd)
		}
	})

	t.Run("empty export maps to 404", func(t *testing.T) {
		txnSvc := &mockTransactionService{
			exportTransactionsFn: func(_, _ string) (string, error) {
				return "", apperrors.ErrEmptyExport
			},
		}
		r := setupTransactionRouter(newTransactionHandler(txnSvc))

		rec := doRequest(r, "GET", "/transactions/export", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_Import(t *testing.T) {
	t.Run("raw CSV body is decoded and imported", func(t *testing.T) {
		var gotDrafts []models.TransactionDraft
		txnSvc := &mockTransactionService{
			importTransactionsFn: func(_ string, drafts []models.TransactionDraft, _ string) (*services.ImportResult, error) {
				gotDrafts = drafts
				return &services.ImportResult{Imported: len(drafts)}, nil
			},
		}
		r := setupTransactionRouter(newTransactionHandler(txnSvc))

		csv := "Date,Type,Amount,Category\n2026-01-05,EXPENSE,10.00,food\nbad-date,EXPENSE,5.00,food"
		rec := doRequest(r, "POST", "/transactions/import", csv)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(gotDrafts) != 1 {
			t.Fatalf("drafts = %d, want 1", len(gotDrafts))
		}

		result := parseJSON(t, rec)
		if result["imported"] != float64(1) {
			t.Errorf("imported = %v", result["imported"])
		}
		errs, _ := result["errors"].([]interface{})
		if len(errs) != 1 {
			t.Errorf("errors = %v, want the bad-date row reported", result["errors"])
		}
	})

	t.Run("header without required columns fails", func(t *testing.T) {
		r := setupTransactionRouter(newTransactionHandler(&mockTransactionService{}))

		rec := doRequest(r, "POST", "/transactions/import", "Date,Type\n2026-01-01,EXPENSE")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), apperrors.ErrMissingColumns.Code)
	})
}
