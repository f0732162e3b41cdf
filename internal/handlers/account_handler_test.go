package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "balanceboard/internal/errors"
	"balanceboard/internal/models"
)

func setupAccountRouter(handler *AccountHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/accounts", handler.Create)
	auth.GET("/accounts", handler.List)
	auth.GET("/accounts/:id", handler.Get)
	auth.PUT("/accounts/:id/default", handler.SetDefault)
	auth.DELETE("/accounts/:id", handler.Delete)
	return r
}

func newAccountHandler(acctSvc *mockAccountService) *AccountHandler {
	return NewAccountHandler(acctSvc, &mockTransactionService{}, &mockAuditService{})
}

func TestAccountHandler_Create(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		acctSvc := &mockAccountService{
			createAccountFn: func(userID, name string, accountType models.AccountType, balance decimal.Decimal, isDefault bool) (*models.Account, error) {
				return &models.Account{
					Base:      models.Base{ID: "acc-1"},
					UserID:    userID,
					Name:      name,
					Type:      accountType,
					Balance:   balance,
					IsDefault: true,
				}, nil
			},
		}
		r := setupAccountRouter(newAccountHandler(acctSvc))

		rec := doRequest(r, "POST", "/accounts",
			`{"name":"Everyday","type":"CHECKING","balance":100.50}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["name"] != "Everyday" {
			t.Errorf("name = %v", result["name"])
		}
	})

	t.Run("invalid account type rejected", func(t *testing.T) {
		r := setupAccountRouter(newAccountHandler(&mockAccountService{}))

		rec := doRequest(r, "POST", "/accounts", `{"name":"X","type":"OFFSHORE"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAccountHandler_Delete(t *testing.T) {
	cases := map[string]struct {
		err  error
		code int
	}{
		"only account":    {apperrors.ErrOnlyAccount, http.StatusBadRequest},
		"default account": {apperrors.ErrDefaultAccount, http.StatusBadRequest},
		"not found":       {apperrors.ErrAccountNotFound, http.StatusNotFound},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			acctSvc := &mockAccountService{
				deleteAccountFn: func(_, _ string) error { return tc.err },
			}
			r := setupAccountRouter(newAccountHandler(acctSvc))

			rec := doRequest(r, "DELETE", "/accounts/acc-1", "")
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
		})
	}

	t.Run("success returns 204", func(t *testing.T) {
		r := setupAccountRouter(newAccountHandler(&mockAccountService{}))

		rec := doRequest(r, "DELETE", "/accounts/acc-1", "")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	})
}

func TestAccountHandler_SetDefault(t *testing.T) {
	acctSvc := &mockAccountService{
		updateDefaultAccountFn: func(_, accountID string) (*models.Account, error) {
			return &models.Account{Base: models.Base{ID: accountID}, IsDefault: true}, nil
		},
	}
	r := setupAccountRouter(newAccountHandler(acctSvc))

	rec := doRequest(r, "PUT", "/accounts/acc-2/default", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if parseJSON(t, rec)["is_default"] != true {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}
