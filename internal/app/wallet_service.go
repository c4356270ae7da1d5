package app

import (
	"errors"
	"strings"

	"facelyze-api/internal/model"
	"facelyze-api/internal/repository"
)

type WalletService struct {
	userRepo *repository.UserRepository
	ledger   *repository.TokenLedgerRepository
	metrics  Metrics
}

type GrantInput struct {
	Username  string
	Amount    int
	Reference string
}

func NewWalletService(userRepo *repository.UserRepository, ledger *repository.TokenLedgerRepository, metrics Metrics) *WalletService {
	return &WalletService{userRepo: userRepo, ledger: ledger, metrics: orNoop(metrics)}
}

func (s *WalletService) Balance(userID uint) (repository.Balance, error) {
	if userID == 0 {
		return repository.Balance{}, ErrInvalidInput
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return repository.Balance{}, err
	}
	if user == nil {
		return repository.Balance{}, ErrUserNotFound
	}
	return repository.Balance{Tokens: user.Tokens, AnalysisCount: user.AnalysisCount}, nil
}

func (s *WalletService) Ledger(userID uint, limit int) ([]model.TokenTransaction, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.ledger.ListByUserID(userID, limit)
}

// AdminGrant credits a user by username. The reference makes the grant safe
// to repeat.
func (s *WalletService) AdminGrant(input GrantInput) (repository.Balance, error) {
	username := strings.TrimSpace(input.Username)
	reference := strings.TrimSpace(input.Reference)
	if username == "" || reference == "" || input.Amount <= 0 {
		return repository.Balance{}, ErrInvalidInput
	}

	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return repository.Balance{}, err
	}
	if user == nil {
		return repository.Balance{}, ErrUserNotFound
	}

	balance, err := s.ledger.Credit(repository.CreditInput{
		UserID:    user.ID,
		Amount:    input.Amount,
		Reason:    model.ReasonAdminGrant,
		Reference: "admin:" + reference,
	})
	switch {
	case errors.Is(err, repository.ErrDuplicateReference):
		return repository.Balance{}, ErrReferenceUsed
	case errors.Is(err, repository.ErrNotFound):
		return repository.Balance{}, ErrUserNotFound
	case err != nil:
		return repository.Balance{}, err
	}
	s.metrics.Credited(model.ReasonAdminGrant, input.Amount)
	return balance, nil
}

func (s *WalletService) ListUsers(offset, limit int) ([]model.User, error) {
	return s.userRepo.List(offset, limit)
}
