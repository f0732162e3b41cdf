package services

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "balanceboard/internal/errors"
	"balanceboard/internal/models"
	"balanceboard/internal/pagination"
)

// AccountService handles account-related business logic
type AccountService struct {
	db *gorm.DB
}

// NewAccountService creates a new account service
func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

// CreateAccount creates a new account for a user. The user's first account
// is always made default regardless of the flag; making a later account
// default clears the flag on all others in the same database transaction.
// A positive initial balance is recorded as an income transaction so the
// balance stays equal to the sum of the ledger.
func (s *AccountService) CreateAccount(userID, name string, accountType models.AccountType, initialBalance decimal.Decimal, isDefault bool) (*models.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Account name is required")
	}
	if initialBalance.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "Initial balance cannot be negative")
	}

	var count int64
	if err := s.db.Model(&models.Account{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	shouldBeDefault := isDefault || count == 0

	account := &models.Account{
		UserID:    userID,
		Name:      name,
		Type:      accountType,
		IsDefault: shouldBeDefault,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if shouldBeDefault {
			if err := tx.Model(&models.Account{}).
				Where("user_id = ? AND is_default = ?", userID, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}

		if err := tx.Create(account).Error; err != nil {
			return err
		}

		if initialBalance.IsPositive() {
			opening := &models.Transaction{
				UserID:      userID,
				AccountID:   account.ID,
				Type:        models.TransactionTypeIncome,
				Amount:      initialBalance,
				Category:    "other-income",
				Description: "Initial balance",
				Date:        time.Now(),
				Status:      models.TransactionStatusCompleted,
			}
			if err := tx.Create(opening).Error; err != nil {
				return err
			}
			if err := s.ApplyBalanceDelta(tx, account.ID, initialBalance); err != nil {
				return err
			}
			account.Balance = initialBalance
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// GetUserAccounts retrieves a page of accounts for a user, default first.
func (s *AccountService) GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	var total int64
	if err := s.db.Model(&models.Account{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var accounts []models.Account
	err := s.db.Where("user_id = ?", userID).
		Order("is_default DESC, created_at ASC").
		Scopes(pagination.Paginate(page)).
		Find(&accounts).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(accounts, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetAccountByID retrieves one account, scoped to its owner.
func (s *AccountService) GetAccountByID(userID, accountID string) (*models.Account, error) {
	var account models.Account
	err := s.db.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// GetDefaultAccount returns the user's default account, falling back to the
// oldest account when no default flag is set.
func (s *AccountService) GetDefaultAccount(userID string) (*models.Account, error) {
	var account models.Account
	err := s.db.Where("user_id = ? AND is_default = ?", userID, true).First(&account).Error
	if err == nil {
		return &account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	err = s.db.Where("user_id = ?", userID).Order("created_at ASC").First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// UpdateDefaultAccount makes the given account the user's default. Clearing
// the old flag and setting the new one happen atomically so there is never
// more than one default.
func (s *AccountService) UpdateDefaultAccount(userID, accountID string) (*models.Account, error) {
	var account models.Account
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Account{}).
			Where("user_id = ? AND is_default = ?", userID, true).
			Update("is_default", false).Error; err != nil {
			return err
		}

		account.IsDefault = true
		return tx.Model(&account).Update("is_default", true).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// DeleteAccount removes an account and all of its transactions. The user's
// only account cannot be deleted, nor can the default account while other
// accounts exist.
func (s *AccountService) DeleteAccount(userID, accountID string) error {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.Account{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count <= 1 {
		return apperrors.ErrOnlyAccount
	}
	if account.IsDefault {
		return apperrors.ErrDefaultAccount
	}

	// Soft deletes do not trigger the FK cascade, so the account's
	// transactions are removed in the same database transaction.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", accountID).Delete(&models.Transaction{}).Error; err != nil {
			return err
		}
		return tx.Delete(account).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ApplyBalanceDelta adds delta to an account's cached balance as a single
// SQL expression. Callers pass the surrounding database transaction so the
// balance moves together with the ledger rows it reflects.
func (s *AccountService) ApplyBalanceDelta(tx *gorm.DB, accountID string, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	return tx.Model(&models.Account{}).
		Where("id = ?", accountID).
		UpdateColumn("balance", gorm.Expr("balance + ?", delta)).Error
}
