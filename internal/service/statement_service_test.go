package service

import (
	"context"
	"testing"
	"time"

	"bank-service/internal/core/domain"
	"bank-service/internal/core/ports/mocks"
	"bank-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type statementTestDeps struct {
	svc         *StatementServiceImpl
	accountRepo *mocks.MockAccountRepository
	txRepo      *mocks.MockTransactionRepository
	ctrl        *gomock.Controller
}

func setupStatementService(t *testing.T) *statementTestDeps {
	ctrl := gomock.NewController(t)
	d := &statementTestDeps{
		accountRepo: mocks.NewMockAccountRepository(ctrl),
		txRepo:      mocks.NewMockTransactionRepository(ctrl),
		ctrl:        ctrl,
	}
	d.svc = NewStatementService(d.accountRepo, d.txRepo)
	return d
}

func TestStatementService_Statement_Success(t *testing.T) {
	d := setupStatementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()

	newer := domain.Transaction{
		ID:        uuid.New(),
		AccountID: accountID,
		Amount:    decimal.RequireFromString("100.00"),
		Direction: domain.DirectionIn,
		CreatedAt: time.Now().UTC(),
	}
	older := domain.Transaction{
		ID:        uuid.New(),
		AccountID: accountID,
		Amount:    decimal.RequireFromString("25.00"),
		Direction: domain.DirectionOut,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}

	d.accountRepo.EXPECT().GetByID(ctx, accountID).Return(&domain.Account{ID: accountID}, nil)
	d.txRepo.EXPECT().ListByAccount(ctx, accountID, nil, nil).
		Return([]domain.Transaction{newer, older}, nil)

	result, err := d.svc.Statement(ctx, accountID, nil, nil)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, newer.ID, result[0].ID)
	assert.Equal(t, older.ID, result[1].ID)
}

func TestStatementService_Statement_RangePassedThrough(t *testing.T) {
	d := setupStatementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)

	d.accountRepo.EXPECT().GetByID(ctx, accountID).Return(&domain.Account{ID: accountID}, nil)
	d.txRepo.EXPECT().ListByAccount(ctx, accountID, &from, &to).Return([]domain.Transaction{}, nil)

	result, err := d.svc.Statement(ctx, accountID, &from, &to)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestStatementService_Statement_InvertedRange(t *testing.T) {
	d := setupStatementService(t)
	defer d.ctrl.Finish()

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	result, err := d.svc.Statement(context.Background(), uuid.New(), &from, &to)
	assert.Nil(t, result)
	assertAppError(t, err, apperror.CodeValidation)
}

func TestStatementService_Statement_AccountNotFound(t *testing.T) {
	d := setupStatementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()

	d.accountRepo.EXPECT().GetByID(ctx, accountID).Return(nil, nil)

	result, err := d.svc.Statement(ctx, accountID, nil, nil)
	assert.Nil(t, result)
	assertAppError(t, err, apperror.CodeAccountNotFound)
}

func TestStatementService_Statement_ClosedAccountStillReadable(t *testing.T) {
	d := setupStatementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()
	closedAt := time.Now().UTC()

	d.accountRepo.EXPECT().GetByID(ctx, accountID).
		Return(&domain.Account{ID: accountID, ClosedAt: &closedAt}, nil)
	d.txRepo.EXPECT().ListByAccount(ctx, accountID, nil, nil).
		Return([]domain.Transaction{{ID: uuid.New(), AccountID: accountID}}, nil)

	result, err := d.svc.Statement(ctx, accountID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, result, 1)
}
