package service

import (
	"context"
	"fmt"
	"time"

	"bank-service/internal/core/domain"
	"bank-service/internal/core/ports"
	"bank-service/pkg/apperror"

	"github.com/google/uuid"
)

// StatementServiceImpl implements ports.StatementGenerator. Statements read
// committed state only; both legs of a transfer commit together, so a
// statement can never show one leg of a half-applied transfer.
type StatementServiceImpl struct {
	accountRepo ports.AccountRepository
	txRepo      ports.TransactionRepository
}

// NewStatementService creates a new StatementServiceImpl.
func NewStatementService(accountRepo ports.AccountRepository, txRepo ports.TransactionRepository) *StatementServiceImpl {
	return &StatementServiceImpl{
		accountRepo: accountRepo,
		txRepo:      txRepo,
	}
}

// Statement returns the account's transactions newest first, optionally
// bounded by an inclusive date range. Re-invoking with no intervening
// transfer yields identical results.
func (s *StatementServiceImpl) Statement(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]domain.Transaction, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, apperror.Validation("statement range end precedes start")
	}

	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound(accountID.String())
	}

	transactions, err := s.txRepo.ListByAccount(ctx, accountID, from, to)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return transactions, nil
}
