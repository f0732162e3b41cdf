package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"balanceboard/internal/csvcodec"
	apperrors "balanceboard/internal/errors"
	"balanceboard/internal/logger"
	"balanceboard/internal/models"
	"balanceboard/internal/pagination"
)

// TransactionService handles ledger operations. Every mutation that touches
// the transaction set updates the owning account's balance inside the same
// database transaction, so the cached balance never drifts from the signed
// sum of surviving rows.
type TransactionService struct {
	db       *gorm.DB
	accounts AccountServicer
}

// NewTransactionService creates a new transaction service
func NewTransactionService(db *gorm.DB, accounts AccountServicer) *TransactionService {
	return &TransactionService{db: db, accounts: accounts}
}

func validateDraft(draft *models.TransactionDraft) error {
	if draft.Type != models.TransactionTypeIncome && draft.Type != models.TransactionTypeExpense {
		return apperrors.ErrInvalidType
	}
	if !draft.Amount.IsPositive() {
		return apperrors.ErrInvalidAmount
	}
	if draft.IsRecurring && draft.RecurringInterval == nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Recurring transactions require an interval")
	}
	return nil
}

// CreateTransaction records one money movement against an owned account.
func (s *TransactionService) CreateTransaction(userID string, draft models.TransactionDraft) (*models.Transaction, error) {
	if err := validateDraft(&draft); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetAccountByID(userID, draft.AccountID)
	if err != nil {
		return nil, err
	}

	if draft.Date.IsZero() {
		draft.Date = time.Now()
	}
	if draft.Status == "" {
		draft.Status = models.TransactionStatusCompleted
	}

	txn := &models.Transaction{
		UserID:            userID,
		AccountID:         account.ID,
		Type:              draft.Type,
		Amount:            draft.Amount,
		Category:          draft.Category,
		Description:       draft.Description,
		Date:              draft.Date,
		Status:            draft.Status,
		IsRecurring:       draft.IsRecurring,
		RecurringInterval: draft.RecurringInterval,
	}
	if txn.IsRecurring {
		next := txn.RecurringInterval.NextDate(txn.Date)
		txn.NextRecurringDate = &next
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(txn).Error; err != nil {
			return err
		}
		return s.accounts.ApplyBalanceDelta(tx, txn.AccountID, txn.SignedAmount())
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txn, nil
}

func applyFilter(query *gorm.DB, filter TransactionFilter) *gorm.DB {
	if filter.FromDate != nil {
		query = query.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("date <= ?", *filter.ToDate)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	return query
}

// GetUserTransactions retrieves a page of the user's transactions, newest first.
func (s *TransactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	var total int64
	countQuery := applyFilter(s.db.Model(&models.Transaction{}).Where("user_id = ?", userID), filter)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var txns []models.Transaction
	query := applyFilter(s.db.Where("user_id = ?", userID), filter).
		Order("date DESC, created_at DESC").
		Scopes(pagination.Paginate(page))
	if err := query.Find(&txns).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(txns, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetAccountTransactions retrieves a page of transactions for one owned account.
func (s *TransactionService) GetAccountTransactions(userID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if _, err := s.accounts.GetAccountByID(userID, accountID); err != nil {
		return nil, err
	}
	filter.AccountID = &accountID
	return s.GetUserTransactions(userID, page, filter)
}

// GetTransactionByID retrieves one transaction, scoped to its owner.
func (s *TransactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var txn models.Transaction
	err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &txn, nil
}

// UpdateTransaction edits a transaction. The old effect is reversed on the
// old account and the new effect applied on the (possibly different) new
// account, all in one database transaction.
func (s *TransactionService) UpdateTransaction(userID, transactionID string, fields TransactionUpdateFields) (*models.Transaction, error) {
	txn, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	oldAccountID := txn.AccountID
	oldSigned := txn.SignedAmount()

	if fields.AccountID != nil && *fields.AccountID != txn.AccountID {
		if _, err := s.accounts.GetAccountByID(userID, *fields.AccountID); err != nil {
			return nil, err
		}
		txn.AccountID = *fields.AccountID
	}
	if fields.Type != nil {
		txn.Type = *fields.Type
	}
	if fields.Amount != nil {
		txn.Amount = *fields.Amount
	}
	if fields.Category != nil {
		txn.Category = *fields.Category
	}
	if fields.Description != nil {
		txn.Description = *fields.Description
	}
	if fields.Date != nil {
		txn.Date = *fields.Date
	}
	if fields.IsRecurring != nil {
		txn.IsRecurring = *fields.IsRecurring
	}
	if fields.RecurringInterval != nil {
		txn.RecurringInterval = fields.RecurringInterval
	}

	if txn.Type != models.TransactionTypeIncome && txn.Type != models.TransactionTypeExpense {
		return nil, apperrors.ErrInvalidType
	}
	if !txn.Amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}
	if txn.IsRecurring {
		if txn.RecurringInterval == nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Recurring transactions require an interval")
		}
		next := txn.RecurringInterval.NextDate(txn.Date)
		txn.NextRecurringDate = &next
	} else {
		txn.RecurringInterval = nil
		txn.NextRecurringDate = nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.accounts.ApplyBalanceDelta(tx, oldAccountID, oldSigned.Neg()); err != nil {
			return err
		}
		// Save skips nil columns, so recurring fields are cleared explicitly.
		updates := map[string]interface{}{
			"account_id":          txn.AccountID,
			"type":                txn.Type,
			"amount":              txn.Amount,
			"category":            txn.Category,
			"description":         txn.Description,
			"date":                txn.Date,
			"is_recurring":        txn.IsRecurring,
			"recurring_interval":  txn.RecurringInterval,
			"next_recurring_date": txn.NextRecurringDate,
		}
		if err := tx.Model(&models.Transaction{}).Where("id = ?", txn.ID).Updates(updates).Error; err != nil {
			return err
		}
		return s.accounts.ApplyBalanceDelta(tx, txn.AccountID, txn.SignedAmount())
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txn, nil
}

// DeleteTransaction removes a transaction and reverses its balance effect.
func (s *TransactionService) DeleteTransaction(userID, transactionID string) error {
	txn, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(txn).Error; err != nil {
			return err
		}
		return s.accounts.ApplyBalanceDelta(tx, txn.AccountID, txn.SignedAmount().Neg())
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// BulkDeleteTransactions removes a set of transactions in one atomic unit.
// IDs that do not exist or belong to another user are silently skipped.
// Balance reversals are netted per account before being applied.
func (s *TransactionService) BulkDeleteTransactions(userID string, transactionIDs []string) error {
	if len(transactionIDs) == 0 {
		return nil
	}

	var txns []models.Transaction
	err := s.db.Where("id IN ? AND user_id = ?", transactionIDs, userID).Find(&txns).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(txns) == 0 {
		return nil
	}

	deltas := make(map[string]decimal.Decimal)
	ids := make([]string, 0, len(txns))
	for i := range txns {
		t := &txns[i]
		ids = append(ids, t.ID)
		deltas[t.AccountID] = deltas[t.AccountID].Sub(t.SignedAmount())
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id IN ?", ids).Delete(&models.Transaction{}).Error; err != nil {
			return err
		}
		for accountID, delta := range deltas {
			if err := s.accounts.ApplyBalanceDelta(tx, accountID, delta); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ImportTransactions inserts a batch of decoded drafts into one target
// account. Invalid drafts are skipped and reported; valid ones are inserted
// together with a single netted balance update. When targetAccountID is
// blank or not owned by the user, the default account is used.
func (s *TransactionService) ImportTransactions(userID string, drafts []models.TransactionDraft, targetAccountID string) (*ImportResult, error) {
	if len(drafts) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "No transactions to import")
	}

	var account *models.Account
	var err error
	if targetAccountID != "" {
		account, err = s.accounts.GetAccountByID(userID, targetAccountID)
		if err != nil && !errors.Is(err, apperrors.ErrAccountNotFound) {
			return nil, err
		}
	}
	if account == nil {
		account, err = s.accounts.GetDefaultAccount(userID)
		if err != nil {
			if errors.Is(err, apperrors.ErrAccountNotFound) {
				return nil, apperrors.WithMessage(apperrors.ErrAccountNotFound, "No accounts found. Create an account before importing transactions.")
			}
			return nil, err
		}
	}

	result := &ImportResult{}
	rows := make([]models.Transaction, 0, len(drafts))
	net := decimal.Zero

	for i := range drafts {
		draft := drafts[i]
		if err := validateDraft(&draft); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", i+1, err.Error()))
			continue
		}
		if draft.Date.IsZero() {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", i+1, apperrors.ErrInvalidDate.Message))
			continue
		}
		if draft.Status == "" {
			draft.Status = models.TransactionStatusCompleted
		}

		txn := models.Transaction{
			UserID:            userID,
			AccountID:         account.ID,
			Type:              draft.Type,
			Amount:            draft.Amount,
			Category:          draft.Category,
			Description:       draft.Description,
			Date:              draft.Date,
			Status:            draft.Status,
			IsRecurring:       draft.IsRecurring,
			RecurringInterval: draft.RecurringInterval,
		}
		if txn.IsRecurring {
			next := txn.RecurringInterval.NextDate(txn.Date)
			txn.NextRecurringDate = &next
		}
		rows = append(rows, txn)
		net = net.Add(txn.SignedAmount())
	}

	if len(rows) > 0 {
		err = s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
			return s.accounts.ApplyBalanceDelta(tx, account.ID, net)
		})
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	result.Imported = len(rows)
	return result, nil
}

// ExportTransactions renders the user's transactions as CSV text, newest
// first. An empty accountID exports across all accounts.
func (s *TransactionService) ExportTransactions(userID, accountID string) (string, error) {
	query := s.db.Where("user_id = ?", userID).
		Preload("Account").
		Order("date DESC, created_at DESC")
	if accountID != "" {
		if _, err := s.accounts.GetAccountByID(userID, accountID); err != nil {
			return "", err
		}
		query = query.Where("account_id = ?", accountID)
	}

	var txns []models.Transaction
	if err := query.Find(&txns).Error; err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(txns) == 0 {
		return "", apperrors.ErrEmptyExport
	}
	return csvcodec.Encode(txns), nil
}

// ProcessDueRecurring materializes recurring transactions whose next
// occurrence is due. Each source produces one new non-recurring instance
// and has its schedule advanced; failures on one source do not stop the
// rest. Returns the number of instances created.
func (s *TransactionService) ProcessDueRecurring(now time.Time, limit int) (int, error) {
	query := s.db.Where("is_recurring = ? AND next_recurring_date IS NOT NULL AND next_recurring_date <= ?", true, now).
		Order("next_recurring_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var due []models.Transaction
	if err := query.Find(&due).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	processed := 0
	for i := range due {
		src := &due[i]
		if src.RecurringInterval == nil {
			continue
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			instance := &models.Transaction{
				UserID:      src.UserID,
				AccountID:   src.AccountID,
				Type:        src.Type,
				Amount:      src.Amount,
				Category:    src.Category,
				Description: src.Description + " (recurring)",
				Date:        now,
				Status:      models.TransactionStatusCompleted,
			}
			if err := tx.Create(instance).Error; err != nil {
				return err
			}
			if err := s.accounts.ApplyBalanceDelta(tx, src.AccountID, instance.SignedAmount()); err != nil {
				return err
			}

			next := src.RecurringInterval.NextDate(*src.NextRecurringDate)
			return tx.Model(src).Updates(map[string]interface{}{
				"last_processed":      now,
				"next_recurring_date": next,
			}).Error
		})
		if err != nil {
			logger.Get().Errorw("recurring transaction processing failed",
				"transaction_id", src.ID,
				"error", err.Error(),
			)
			continue
		}
		processed++
	}
	return processed, nil
}
