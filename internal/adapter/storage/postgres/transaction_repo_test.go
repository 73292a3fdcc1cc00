package postgres

import (
	"context"
	"testing"
	"time"

	"bank-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransaction(accountID uuid.UUID, direction domain.Direction) *domain.Transaction {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Transaction{
		ID:          uuid.New(),
		AccountID:   accountID,
		TransferRef: uuid.New(),
		Amount:      decimal.RequireFromString("100.00"),
		Direction:   direction,
		Description: "rent",
		CreatedAt:   now,
	}
}

func txCols() []string {
	return []string{"id", "account_id", "transfer_ref", "amount", "direction", "description", "created_at"}
}

func txRow(t *domain.Transaction) *pgxmock.Rows {
	return pgxmock.NewRows(txCols()).AddRow(
		t.ID, t.AccountID, t.TransferRef, t.Amount.String(),
		t.Direction, t.Description, t.CreatedAt,
	)
}

func TestTransactionRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New(), domain.DirectionOut)

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE id").
		WithArgs(txn.ID).
		WillReturnRows(txRow(txn))

	result, err := repo.GetByID(context.Background(), txn.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, txn.ID, result.ID)
	assert.Equal(t, domain.DirectionOut, result.Direction)
	assert.True(t, result.Amount.Equal(txn.Amount))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE id").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(txCols()))

	result, err := repo.GetByID(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_ListByAccount_Unbounded(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	accountID := uuid.New()
	newer := newTestTransaction(accountID, domain.DirectionIn)
	older := newTestTransaction(accountID, domain.DirectionOut)
	older.CreatedAt = newer.CreatedAt.Add(-time.Hour)

	rows := pgxmock.NewRows(txCols()).
		AddRow(newer.ID, newer.AccountID, newer.TransferRef, newer.Amount.String(),
			newer.Direction, newer.Description, newer.CreatedAt).
		AddRow(older.ID, older.AccountID, older.TransferRef, older.Amount.String(),
			older.Direction, older.Description, older.CreatedAt)

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE account_id .+ ORDER BY created_at DESC").
		WithArgs(accountID).
		WillReturnRows(rows)

	result, err := repo.ListByAccount(context.Background(), accountID, nil, nil)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, newer.ID, result[0].ID)
	assert.Equal(t, older.ID, result[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_ListByAccount_DateRange(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	accountID := uuid.New()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE account_id .+ created_at >= .+ created_at <=").
		WithArgs(accountID, from, to).
		WillReturnRows(pgxmock.NewRows(txCols()))

	result, err := repo.ListByAccount(context.Background(), accountID, &from, &to)
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}
