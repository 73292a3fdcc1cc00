package service

import (
	"context"
	"fmt"
	"time"

	"bank-service/internal/core/domain"
	"bank-service/internal/core/ports"
	"bank-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const accountNumberLength = 12

// AccountServiceImpl implements ports.AccountRegistry.
type AccountServiceImpl struct {
	accountRepo ports.AccountRepository
	holderRepo  ports.HolderRepository
	log         zerolog.Logger
}

// NewAccountService creates a new AccountServiceImpl.
func NewAccountService(accountRepo ports.AccountRepository, holderRepo ports.HolderRepository, log zerolog.Logger) *AccountServiceImpl {
	return &AccountServiceImpl{
		accountRepo: accountRepo,
		holderRepo:  holderRepo,
		log:         log,
	}
}

// Create validates and registers a new account. The generated number and id
// never change afterwards.
func (s *AccountServiceImpl) Create(ctx context.Context, req ports.CreateAccountRequest) (*domain.Account, error) {
	accountType, ok := domain.ParseAccountType(req.Type)
	if !ok {
		return nil, apperror.Validation(fmt.Sprintf("unknown account type %q", req.Type))
	}
	if req.InitialBalance.IsNegative() {
		return nil, apperror.Validation("initial balance must not be negative")
	}

	holder, err := s.holderRepo.GetByID(ctx, req.HolderID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find holder: %w", err))
	}
	if holder == nil {
		return nil, apperror.Validation(fmt.Sprintf("holder %s does not exist", req.HolderID))
	}

	number, err := generateAccountNumber()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate account number: %w", err))
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:        uuid.New(),
		Number:    number,
		HolderID:  req.HolderID,
		Type:      accountType,
		Balance:   req.InitialBalance,
		Primary:   req.Primary,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("create account: %w", err))
	}

	s.log.Info().
		Str("account_id", account.ID.String()).
		Str("number", account.Number).
		Str("type", string(account.Type)).
		Str("holder_id", account.HolderID.String()).
		Msg("account created")

	return account, nil
}

// Get fetches an account by id.
func (s *AccountServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound(id.String())
	}
	return account, nil
}

// List returns the holder's accounts in insertion order. A holder without
// accounts gets an empty list, not an error.
func (s *AccountServiceImpl) List(ctx context.Context, holderID uuid.UUID) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListByHolder(ctx, holderID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list accounts: %w", err))
	}
	return accounts, nil
}

// Close marks an account closed. Its transaction history remains readable and
// the row is never deleted.
func (s *AccountServiceImpl) Close(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound(id.String())
	}
	if account.IsClosed() {
		return nil, apperror.ErrAccountClosed(id.String())
	}

	closedAt := time.Now().UTC()
	if err := s.accountRepo.Close(ctx, id, closedAt); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("close account: %w", err))
	}
	account.ClosedAt = &closedAt

	s.log.Info().Str("account_id", id.String()).Msg("account closed")
	return account, nil
}

// generateAccountNumber produces a random numeric external identifier.
// Uniqueness is enforced by the accounts.number constraint.
func generateAccountNumber() (string, error) {
	number, err := randomDigits(accountNumberLength)
	if err != nil {
		return "", err
	}
	// No leading zero, so numbers keep a fixed visible width.
	if number[0] == '0' {
		number = "9" + number[1:]
	}
	return number, nil
}
