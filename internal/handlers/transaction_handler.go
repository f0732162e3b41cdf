package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"balanceboard/internal/csvcodec"
	apperrors "balanceboard/internal/errors"
	"balanceboard/internal/models"
	"balanceboard/internal/pagination"
	"balanceboard/internal/services"
)

// Uploaded CSV files are capped to keep imports bounded.
const maxImportSize = 5 << 20 // 5 MiB

// TransactionHandler handles ledger endpoints.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	budgetService      services.BudgetServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(transactionService services.TransactionServicer, budgetService services.BudgetServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		budgetService:      budgetService,
		auditService:       auditService,
	}
}

// CreateTransactionRequest is the payload for recording a transaction.
type CreateTransactionRequest struct {
	AccountID         string          `json:"account_id" binding:"required"`
	Type              string          `json:"type" binding:"required,transaction_type"`
	Amount            decimal.Decimal `json:"amount" binding:"required"`
	Category          string          `json:"category" binding:"required,category"`
	Description       string          `json:"description"`
	Date              *time.Time      `json:"date"`
	IsRecurring       bool            `json:"is_recurring"`
	RecurringInterval string          `json:"recurring_interval" binding:"omitempty,recurring_interval"`
	Status            string          `json:"status" binding:"omitempty,transaction_status"`
}

// UpdateTransactionRequest is the payload for editing a transaction.
// Absent fields are left unchanged.
type UpdateTransactionRequest struct {
	AccountID         *string          `json:"account_id"`
	Type              *string          `json:"type" binding:"omitempty,transaction_type"`
	Amount            *decimal.Decimal `json:"amount"`
	Category          *string          `json:"category" binding:"omitempty,category"`
	Description       *string          `json:"description"`
	Date              *time.Time       `json:"date"`
	IsRecurring       *bool            `json:"is_recurring"`
	RecurringInterval *string          `json:"recurring_interval" binding:"omitempty,recurring_interval"`
}

// BulkDeleteRequest is the payload for deleting a set of transactions.
type BulkDeleteRequest struct {
	TransactionIDs []string `json:"transaction_ids" binding:"required,min=1"`
}

// parseTransactionFilter reads the optional list-filter query parameters.
func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if s := c.Query("start_date"); s != "" {
		t, err := parseFlexibleTime(s)
		if err != nil {
			return filter, err
		}
		filter.FromDate = &t
	}
	if s := c.Query("end_date"); s != "" {
		t, err := parseFlexibleTime(s)
		if err != nil {
			return filter, err
		}
		filter.ToDate = &t
	}
	if s := c.Query("type"); s != "" {
		txType := models.TransactionType(s)
		if txType != models.TransactionTypeIncome && txType != models.TransactionTypeExpense {
			return filter, apperrors.ErrInvalidType
		}
		filter.Type = &txType
	}
	if s := c.Query("category"); s != "" {
		filter.Category = &s
	}
	if s := c.Query("account_id"); s != "" {
		filter.AccountID = &s
	}
	return filter, nil
}

// checkBudgetAfterExpense fires the budget alert check in the background
// once an expense has landed.
func (h *TransactionHandler) checkBudgetAfterExpense(userID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		h.budgetService.CheckAlerts(ctx, userID)
	}()
}

// Create godoc
// @Summary Record a transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTransactionRequest true "Transaction details"
// @Success 201 {object} models.Transaction
// @Router /transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	draft := models.TransactionDraft{
		AccountID:   req.AccountID,
		Type:        models.TransactionType(req.Type),
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		IsRecurring: req.IsRecurring,
		Status:      models.TransactionStatus(req.Status),
	}
	if req.Date != nil {
		draft.Date = *req.Date
	}
	if req.RecurringInterval != "" {
		interval := models.RecurringInterval(req.RecurringInterval)
		draft.RecurringInterval = &interval
	}

	txn, err := h.transactionService.CreateTransaction(userID, draft)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "create", "transaction", txn.ID, c.ClientIP(), nil)
	if txn.Type == models.TransactionTypeExpense {
		h.checkBudgetAfterExpense(userID)
	}

	c.JSON(http.StatusCreated, txn)
}

// List godoc
// @Summary List the user's transactions
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param start_date query string false "Filter from date (YYYY-MM-DD)"
// @Param end_date query string false "Filter to date (YYYY-MM-DD)"
// @Param type query string false "INCOME or EXPENSE"
// @Param category query string false "Category id"
// @Param account_id query string false "Account id"
// @Success 200 {object} pagination.PageResponse[models.Transaction]
// @Router /transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp, err := h.transactionService.GetUserTransactions(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Get one transaction
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} models.Transaction
// @Router /transactions/{id} [get]
func (h *TransactionHandler) Get(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	txn, err := h.transactionService.GetTransactionByID(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

// Update godoc
// @Summary Edit a transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Param request body UpdateTransactionRequest true "Fields to change"
// @Success 200 {object} models.Transaction
// @Router /transactions/{id} [put]
func (h *TransactionHandler) Update(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	fields := services.TransactionUpdateFields{
		AccountID:   req.AccountID,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Date:        req.Date,
		IsRecurring: req.IsRecurring,
	}
	if req.Type != nil {
		txType := models.TransactionType(*req.Type)
		fields.Type = &txType
	}
	if req.RecurringInterval != nil {
		interval := models.RecurringInterval(*req.RecurringInterval)
		fields.RecurringInterval = &interval
	}

	txn, err := h.transactionService.UpdateTransaction(userID, c.Param("id"), fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "update", "transaction", txn.ID, c.ClientIP(), nil)
	if txn.Type == models.TransactionTypeExpense {
		h.checkBudgetAfterExpense(userID)
	}

	c.JSON(http.StatusOK, txn)
}

// Delete godoc
// @Summary Delete a transaction
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 204
// @Router /transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	transactionID := c.Param("id")
	if err := h.transactionService.DeleteTransaction(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "delete", "transaction", transactionID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// BulkDelete godoc
// @Summary Delete a set of transactions
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BulkDeleteRequest true "Transaction ids"
// @Success 204
// @Router /transactions/bulk-delete [post]
func (h *TransactionHandler) BulkDelete(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.transactionService.BulkDeleteTransactions(userID, req.TransactionIDs); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "bulk_delete", "transaction", "", c.ClientIP(),
		map[string]interface{}{"count": len(req.TransactionIDs)})

	c.Status(http.StatusNoContent)
}

// Export godoc
// @Summary Export transactions as CSV
// @Tags transactions
// @Produce text/csv
// @Security BearerAuth
// @Param account_id query string false "Limit to one account"
// @Success 200 {string} string
// @Router /transactions/export [get]
func (h *TransactionHandler) Export(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	csv, err := h.transactionService.ExportTransactions(userID, c.Query("account_id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	filename := "transactions_" + time.Now().Format("2006-01-02") + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", []byte(csv))
}

// readImportFile reads the uploaded CSV from the "file" multipart field,
// falling back to the raw request body.
func readImportFile(c *gin.Context) (string, error) {
	if file, err := c.FormFile("file"); err == nil {
		if file.Size > maxImportSize {
			return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "File too large")
		}
		f, err := file.Open()
		if err != nil {
			return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		defer func() { _ = f.Close() }()
		raw, err := io.ReadAll(io.LimitReader(f, maxImportSize))
		if err != nil {
			return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return string(raw), nil
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportSize))
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return string(raw), nil
}

// ImportPreview godoc
// @Summary Parse a CSV file without importing it
// @Tags transactions
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV file"
// @Success 200 {object} csvcodec.Result
// @Router /transactions/import/preview [post]
func (h *TransactionHandler) ImportPreview(c *gin.Context) {
	if _, ok := getUserID(c); !ok {
		return
	}

	raw, err := readImportFile(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := csvcodec.Decode(raw)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Import godoc
// @Summary Import transactions from a CSV file
// @Tags transactions
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV file"
// @Param account_id formData string false "Target account (default account when omitted)"
// @Success 200 {object} services.ImportResult
// @Router /transactions/import [post]
func (h *TransactionHandler) Import(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	raw, err := readImportFile(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	decoded, err := csvcodec.Decode(raw)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID := c.PostForm("account_id")
	if accountID == "" {
		accountID = c.Query("account_id")
	}

	result, err := h.transactionService.ImportTransactions(userID, decoded.Drafts, accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	// Row-level decode failures are reported alongside insert-time skips.
	result.Errors = append(decoded.Errors, result.Errors...)

	h.auditService.Log(userID, "import", "transaction", "", c.ClientIP(),
		map[string]interface{}{"imported": result.Imported})
	h.checkBudgetAfterExpense(userID)

	c.JSON(http.StatusOK, result)
}

// ProcessRecurringRequest bounds one pipeline run.
type ProcessRecurringRequest struct {
	Limit int `json:"limit" binding:"omitempty,min=1,max=1000"`
}

// ProcessRecurring godoc
// @Summary Materialize due recurring transactions
// @Tags pipeline
// @Accept json
// @Produce json
// @Param request body ProcessRecurringRequest false "Run options"
// @Success 200 {object} map[string]int
// @Router /pipeline/recurring/process [post]
func (h *TransactionHandler) ProcessRecurring(c *gin.Context) {
	var req ProcessRecurringRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}
	if req.Limit == 0 {
		req.Limit = 100
	}

	processed, err := h.transactionService.ProcessDueRecurring(time.Now(), req.Limit)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"processed": processed})
}
