package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "balanceboard/internal/errors"
	"balanceboard/internal/models"
	"balanceboard/internal/pagination"
	"balanceboard/internal/services"
	"balanceboard/internal/validator"
)

// --- mock services ---

type mockUserService struct {
	createUserFn     func(email, password, firstName, lastName string) (*models.User, error)
	getUserByEmailFn func(email string) (*models.User, error)
	getUserByIDFn    func(id string) (*models.User, error)
	verifyPasswordFn func(user *models.User, password string) bool
}

func (m *mockUserService) CreateUser(email, password, firstName, lastName string) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(email, password, firstName, lastName)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByEmail(email string) (*models.User, error) {
	if m.getUserByEmailFn != nil {
		return m.getUserByEmailFn(email)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByID(id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{}, nil
}

func (m *mockUserService) VerifyPassword(user *models.User, password string) bool {
	if m.verifyPasswordFn != nil {
		return m.verifyPasswordFn(user, password)
	}
	return true
}

type mockAuditService struct{}

func (m *mockAuditService) Log(_, _, _, _, _ string, _ map[string]interface{}) {}

type mockAccountService struct {
	createAccountFn        func(userID, name string, accountType models.AccountType, initialBalance decimal.Decimal, isDefault bool) (*models.Account, error)
	getUserAccountsFn      func(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	getAccountByIDFn       func(userID, accountID string) (*models.Account, error)
	getDefaultAccountFn    func(userID string) (*models.Account, error)
	updateDefaultAccountFn func(userID, accountID string) (*models.Account, error)
	deleteAccountFn        func(userID, accountID string) error
}

func (m *mockAccountService) CreateAccount(userID, name string, accountType models.AccountType, initialBalance decimal.Decimal, isDefault bool) (*models.Account, error) {
	if m.createAccountFn != nil {
		return m.createAccountFn(userID, name, accountType, initialBalance, isDefault)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	if m.getUserAccountsFn != nil {
		return m.getUserAccountsFn(userID, page)
	}
	resp := pagination.NewPageResponse([]models.Account{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockAccountService) GetAccountByID(userID, accountID string) (*models.Account, error) {
	if m.getAccountByIDFn != nil {
		return m.getAccountByIDFn(userID, accountID)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) GetDefaultAccount(userID string) (*models.Account, error) {
	if m.getDefaultAccountFn != nil {
		return m.getDefaultAccountFn(userID)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) UpdateDefaultAccount(userID, accountID string) (*models.Account, error) {
	if m.updateDefaultAccountFn != nil {
		return m.updateDefaultAccountFn(userID, accountID)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) DeleteAccount(userID, accountID string) error {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(userID, accountID)
	}
	return nil
}

func (m *mockAccountService) ApplyBalanceDelta(_ *gorm.DB, _ string, _ decimal.Decimal) error {
	return nil
}

type mockBudgetService struct {
	getCurrentBudgetFn     func(userID, accountID string) (*services.BudgetOverview, error)
	upsertBudgetFn         func(userID string, amount decimal.Decimal) (*models.Budget, error)
	setCategoryBudgetFn    func(userID, category string, amount decimal.Decimal) (*models.CategoryBudget, error)
	deleteCategoryBudgetFn func(userID, category string) error
	categoryStatusesFn     func(userID string) ([]services.CategoryBudgetStatus, error)
}

func (m *mockBudgetService) GetCurrentBudget(userID, accountID string) (*services.BudgetOverview, error) {
	if m.getCurrentBudgetFn != nil {
		return m.getCurrentBudgetFn(userID, accountID)
	}
	return &services.BudgetOverview{CurrentExpenses: decimal.Zero}, nil
}

func (m *mockBudgetService) UpsertBudget(userID string, amount decimal.Decimal) (*models.Budget, error) {
	if m.upsertBudgetFn != nil {
		return m.upsertBudgetFn(userID, amount)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) GetCategoryBudgets(_ string) ([]models.CategoryBudget, error) {
	return nil, nil
}

func (m *mockBudgetService) GetCategorySpending(_ string) (map[string]decimal.Decimal, error) {
	return nil, nil
}

func (m *mockBudgetService) SetCategoryBudget(userID, category string, amount decimal.Decimal) (*models.CategoryBudget, error) {
	if m.setCategoryBudgetFn != nil {
		return m.setCategoryBudgetFn(userID, category, amount)
	}
	return &models.CategoryBudget{}, nil
}

func (m *mockBudgetService) DeleteCategoryBudget(userID, category string) error {
	if m.deleteCategoryBudgetFn != nil {
		return m.deleteCategoryBudgetFn(userID, category)
	}
	return nil
}

func (m *mockBudgetService) GetCategoryBudgetsWithSpending(userID string) ([]services.CategoryBudgetStatus, error) {
	if m.categoryStatusesFn != nil {
		return m.categoryStatusesFn(userID)
	}
	return nil, nil
}

func (m *mockBudgetService) CheckAlerts(_ context.Context, _ string) {}

// verify interface compliance
var (
	_ services.UserServicer    = (*mockUserService)(nil)
	_ services.AuditServicer   = (*mockAuditService)(nil)
	_ services.AccountServicer = (*mockAccountService)(nil)
	_ services.BudgetServicer  = (*mockBudgetService)(nil)
)

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

const testUserID = "0198c0ff-0000-7000-8000-000000000001"

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.GET("/profile", injectUserID(testUserID), handler.GetProfile)
	return r
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

// --- tests ---

func TestAuthHandler_Register(t *testing.T) {
	t.Run("returns 201 with token on success", func(t *testing.T) {
		userSvc := &mockUserService{
			createUserFn: func(email, password, firstName, lastName string) (*models.User, error) {
				return &models.User{
					Base:      models.Base{ID: testUserID},
					Email:     email,
					FirstName: firstName,
					LastName:  lastName,
					IsActive:  true,
				}, nil
			},
		}
		handler := NewAuthHandler(userSvc, &mockAuditService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"jo@example.com","password":"supersecret","first_name":"Jo"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["token"] == "" || result["token"] == nil {
			t.Error("expected a token in the response")
		}
		user := result["user"].(map[string]interface{})
		if user["email"] != "jo@example.com" {
			t.Errorf("email = %v", user["email"])
		}
	})

	t.Run("returns 409 on duplicate email", func(t *testing.T) {
		userSvc := &mockUserService{
			createUserFn: func(_, _, _, _ string) (*models.User, error) {
				return nil, apperrors.ErrDuplicateEmail
			},
		}
		handler := NewAuthHandler(userSvc, &mockAuditService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"jo@example.com","password":"supersecret","first_name":"Jo"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), apperrors.ErrDuplicateEmail.Code)
	})

	t.Run("returns 400 on short password", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{}, &mockAuditService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"jo@example.com","password":"short","first_name":"Jo"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_Login(t *testing.T) {
	activeUser := &models.User{
		Base:     models.Base{ID: testUserID, CreatedAt: time.Now()},
		Email:    "jo@example.com",
		IsActive: true,
	}

	t.Run("returns 200 with token on success", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByEmailFn: func(_ string) (*models.User, error) { return activeUser, nil },
		}
		handler := NewAuthHandler(userSvc, &mockAuditService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/login",
			`{"email":"jo@example.com","password":"supersecret"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if parseJSON(t, rec)["token"] == nil {
			t.Error("expected a token in the response")
		}
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		wrongPassword := &mockUserService{
			getUserByEmailFn: func(_ string) (*models.User, error) { return activeUser, nil },
			verifyPasswordFn: func(_ *models.User, _ string) bool { return false },
		}
		unknownEmail := &mockUserService{
			getUserByEmailFn: func(_ string) (*models.User, error) { return nil, apperrors.ErrUserNotFound },
		}

		for name, svc := range map[string]*mockUserService{"wrong password": wrongPassword, "unknown email": unknownEmail} {
			handler := NewAuthHandler(svc, &mockAuditService{})
			r := setupAuthRouter(handler)

			rec := doRequest(r, "POST", "/auth/login",
				`{"email":"jo@example.com","password":"nope12345"}`)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("%s: expected 401, got %d", name, rec.Code)
			}
			assertErrorCode(t, parseJSON(t, rec), apperrors.ErrInvalidCredentials.Code)
		}
	})

	t.Run("inactive user rejected", func(t *testing.T) {
		inactive := *activeUser
		inactive.IsActive = false
		userSvc := &mockUserService{
			getUserByEmailFn: func(_ string) (*models.User, error) { return &inactive, nil },
		}
		handler := NewAuthHandler(userSvc, &mockAuditService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/login",
			`{"email":"jo@example.com","password":"supersecret"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_GetProfile(t *testing.T) {
	userSvc := &mockUserService{
		getUserByIDFn: func(id string) (*models.User, error) {
			return &models.User{Base: models.Base{ID: id}, Email: "jo@example.com"}, nil
		},
	}
	handler := NewAuthHandler(userSvc, &mockAuditService{})
	r := setupAuthRouter(handler)

	rec := doRequest(r, "GET", "/profile", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if parseJSON(t, rec)["email"] != "jo@example.com" {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}
