package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"facelyze-api/internal/model"
)

// Balance is the account state right after a ledger write.
type Balance struct {
	Tokens        int `json:"tokens"`
	AnalysisCount int `json:"analysis_count"`
}

// ChargeInput describes a debit. CountAnalysis also bumps the user's
// analysis counter in the same transaction.
type ChargeInput struct {
	UserID        uint
	Cost          int
	Reason        string
	Reference     string
	CountAnalysis bool
}

type CreditInput struct {
	UserID    uint
	Amount    int
	Reason    string
	Reference string
}

// TokenLedgerRepository owns every write to users.tokens. Each write is a
// conditional update plus a ledger row inside one transaction.
type TokenLedgerRepository struct {
	db *gorm.DB
}

func NewTokenLedgerRepository(db *gorm.DB) *TokenLedgerRepository {
	return &TokenLedgerRepository{db: db}
}

// OpenAccount creates the user holding the signup grant and records the grant.
func (r *TokenLedgerRepository) OpenAccount(user *model.User, grant int) error {
	if grant < 0 {
		grant = 0
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		user.Tokens = grant
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("create user failed: %w", err)
		}
		entry := model.TokenTransaction{
			UserID:       user.ID,
			Delta:        grant,
			Reason:       model.ReasonSignupGrant,
			Reference:    fmt.Sprintf("signup:%d", user.ID),
			BalanceAfter: grant,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("record signup grant failed: %w", err)
		}
		return nil
	})
}

func (r *TokenLedgerRepository) Charge(input ChargeInput) (Balance, error) {
	if input.Cost <= 0 || input.Reference == "" {
		return Balance{}, fmt.Errorf("invalid charge for user %d", input.UserID)
	}

	var balance Balance
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := ensureUnusedReference(tx, input.Reference); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"tokens": gorm.Expr("tokens - ?", input.Cost),
		}
		if input.CountAnalysis {
			updates["analysis_count"] = gorm.Expr("analysis_count + 1")
		}
		result := tx.Model(&model.User{}).
			Where("id = ? AND tokens >= ?", input.UserID, input.Cost).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("charge tokens failed: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			exists, err := userExists(tx, input.UserID)
			if err != nil {
				return err
			}
			if !exists {
				return ErrNotFound
			}
			return ErrInsufficientBalance
		}

		var err error
		balance, err = readBalance(tx, input.UserID)
		if err != nil {
			return err
		}
		return appendEntry(tx, model.TokenTransaction{
			UserID:       input.UserID,
			Delta:        -input.Cost,
			Reason:       input.Reason,
			Reference:    input.Reference,
			BalanceAfter: balance.Tokens,
		})
	})
	if err != nil {
		return Balance{}, err
	}
	return balance, nil
}

// Credit adds tokens. A reference that was already recorded returns
// ErrDuplicateReference and leaves the balance untouched.
func (r *TokenLedgerRepository) Credit(input CreditInput) (Balance, error) {
	if input.Amount <= 0 || input.Reference == "" {
		return Balance{}, fmt.Errorf("invalid credit for user %d", input.UserID)
	}

	var balance Balance
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := ensureUnusedReference(tx, input.Reference); err != nil {
			return err
		}

		result := tx.Model(&model.User{}).
			Where("id = ?", input.UserID).
			Update("tokens", gorm.Expr("tokens + ?", input.Amount))
		if result.Error != nil {
			return fmt.Errorf("credit tokens failed: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		var err error
		balance, err = readBalance(tx, input.UserID)
		if err != nil {
			return err
		}
		return appendEntry(tx, model.TokenTransaction{
			UserID:       input.UserID,
			Delta:        input.Amount,
			Reason:       input.Reason,
			Reference:    input.Reference,
			BalanceAfter: balance.Tokens,
		})
	})
	if err != nil {
		return Balance{}, err
	}
	return balance, nil
}

func (r *TokenLedgerRepository) ListByUserID(userID uint, limit int) ([]model.TokenTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var entries []model.TokenTransaction
	if err := r.db.Where("user_id = ?", userID).Order("id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list ledger failed: %w", err)
	}
	return entries, nil
}

func ensureUnusedReference(tx *gorm.DB, reference string) error {
	var count int64
	if err := tx.Model(&model.TokenTransaction{}).Where("reference = ?", reference).Count(&count).Error; err != nil {
		return fmt.Errorf("check ledger reference failed: %w", err)
	}
	if count > 0 {
		return ErrDuplicateReference
	}
	return nil
}

func appendEntry(tx *gorm.DB, entry model.TokenTransaction) error {
	if err := tx.Create(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateReference
		}
		return fmt.Errorf("append ledger entry failed: %w", err)
	}
	return nil
}

func readBalance(tx *gorm.DB, userID uint) (Balance, error) {
	var user model.User
	if err := tx.Select("id", "tokens", "analysis_count").First(&user, userID).Error; err != nil {
		return Balance{}, fmt.Errorf("read balance failed: %w", err)
	}
	return Balance{Tokens: user.Tokens, AnalysisCount: user.AnalysisCount}, nil
}

func userExists(tx *gorm.DB, userID uint) (bool, error) {
	var count int64
	if err := tx.Model(&model.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check user failed: %w", err)
	}
	return count > 0, nil
}
