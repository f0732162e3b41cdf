package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "balanceboard/internal/errors"
	"balanceboard/internal/services"
)

// BudgetHandler handles overall and per-category budget endpoints.
type BudgetHandler struct {
	budgetService  services.BudgetServicer
	accountService services.AccountServicer
	auditService   services.AuditServicer
}

// NewBudgetHandler creates a new budget handler
func NewBudgetHandler(budgetService services.BudgetServicer, accountService services.AccountServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{
		budgetService:  budgetService,
		accountService: accountService,
		auditService:   auditService,
	}
}

// UpsertBudgetRequest is the payload for setting the overall budget. Amount
// is a pointer so that a missing field fails binding instead of defaulting
// to zero.
type UpsertBudgetRequest struct {
	Amount *decimal.Decimal `json:"amount" binding:"required"`
}

// SetCategoryBudgetRequest is the payload for setting a category budget.
type SetCategoryBudgetRequest struct {
	Amount *decimal.Decimal `json:"amount" binding:"required"`
}

// GetCurrent godoc
// @Summary Get the overall budget and current-month spending
// @Tags budgets
// @Produce json
// @Security BearerAuth
// @Param account_id query string false "Account (default account when omitted)"
// @Success 200 {object} services.BudgetOverview
// @Router /budgets/current [get]
func (h *BudgetHandler) GetCurrent(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	accountID := c.Query("account_id")
	if accountID == "" {
		account, err := h.accountService.GetDefaultAccount(userID)
		if err != nil {
			respondWithError(c, err)
			return
		}
		accountID = account.ID
	} else if _, err := h.accountService.GetAccountByID(userID, accountID); err != nil {
		respondWithError(c, err)
		return
	}

	overview, err := h.budgetService.GetCurrentBudget(userID, accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// GetAccountBudget godoc
// @Summary Get the overall budget and current-month spending for one account
// @Tags budgets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Success 200 {object} services.BudgetOverview
// @Router /accounts/{id}/budget [get]
func (h *BudgetHandler) GetAccountBudget(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	accountID := c.Param("id")
	if _, err := h.accountService.GetAccountByID(userID, accountID); err != nil {
		respondWithError(c, err)
		return
	}

	overview, err := h.budgetService.GetCurrentBudget(userID, accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// Upsert godoc
// @Summary Set the overall monthly budget
// @Tags budgets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpsertBudgetRequest true "Budget amount"
// @Success 200 {object} models.Budget
// @Router /budgets [put]
func (h *BudgetHandler) Upsert(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req UpsertBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.UpsertBudget(userID, *req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "upsert", "budget", budget.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, budget)
}

// ListCategories godoc
// @Summary List category budgets with current-month spending
// @Tags budgets
// @Produce json
// @Security BearerAuth
// @Success 200 {array} services.CategoryBudgetStatus
// @Router /budgets/categories [get]
func (h *BudgetHandler) ListCategories(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	statuses, err := h.budgetService.GetCategoryBudgetsWithSpending(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, statuses)
}

// SetCategory godoc
// @Summary Set a category budget
// @Tags budgets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param category path string true "Category id"
// @Param request body SetCategoryBudgetRequest true "Budget amount"
// @Success 200 {object} models.CategoryBudget
// @Router /budgets/categories/{category} [put]
func (h *BudgetHandler) SetCategory(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req SetCategoryBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.SetCategoryBudget(userID, c.Param("category"), *req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "set_category_budget", "category_budget", budget.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, budget)
}

// DeleteCategory godoc
// @Summary Remove a category budget
// @Tags budgets
// @Produce json
// @Security BearerAuth
// @Param category path string true "Category id"
// @Success 204
// @Router /budgets/categories/{category} [delete]
func (h *BudgetHandler) DeleteCategory(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	category := c.Param("category")
	if err := h.budgetService.DeleteCategoryBudget(userID, category); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "delete_category_budget", "category_budget", "", c.ClientIP(),
		map[string]interface{}{"category": category})

	c.Status(http.StatusNoContent)
}
