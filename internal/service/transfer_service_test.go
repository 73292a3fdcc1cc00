package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"bank-service/internal/core/domain"
	"bank-service/internal/core/ports"
	"bank-service/internal/core/ports/mocks"
	"bank-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type transferTestDeps struct {
	svc    *TransferServiceImpl
	ledger *mocks.MockLedgerStore
	cache  *mocks.MockTransferCache
	ctrl   *gomock.Controller
}

func setupTransferService(t *testing.T) *transferTestDeps {
	ctrl := gomock.NewController(t)
	d := &transferTestDeps{
		ledger: mocks.NewMockLedgerStore(ctrl),
		cache:  mocks.NewMockTransferCache(ctrl),
		ctrl:   ctrl,
	}
	d.svc = NewTransferService(d.ledger, d.cache, 3*time.Second, 24*time.Hour, zerolog.Nop())
	return d
}

// mockTx implements pgx.Tx for testing
type mockTx struct{ pgx.Tx }

func (m *mockTx) Rollback(_ context.Context) error { return nil }
func (m *mockTx) Commit(_ context.Context) error   { return nil }

// runExclusive wires the mocked ledger so WithExclusive hands fn the given
// accounts, mirroring what the real store does with locked rows.
func runExclusive(d *transferTestDeps, accounts map[uuid.UUID]*domain.Account) {
	d.ledger.EXPECT().
		WithExclusive(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ []uuid.UUID, fn func(pgx.Tx, map[uuid.UUID]*domain.Account) error) error {
			return fn(&mockTx{}, accounts)
		})
}

func TestTransferService_Transfer_Success(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	fromID := uuid.New()
	toID := uuid.New()

	accounts := map[uuid.UUID]*domain.Account{
		fromID: {ID: fromID, Balance: decimal.RequireFromString("1000.00")},
		toID:   {ID: toID, Balance: decimal.RequireFromString("500.00")},
	}
	runExclusive(d, accounts)

	amount := decimal.RequireFromString("100.00")
	var debited, credited *domain.Transaction

	d.ledger.EXPECT().
		ApplyDelta(gomock.Any(), gomock.Any(), fromID, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, _ uuid.UUID, delta decimal.Decimal, txn *domain.Transaction) error {
			assert.True(t, delta.Equal(amount.Neg()))
			debited = txn
			return nil
		})
	d.ledger.EXPECT().
		ApplyDelta(gomock.Any(), gomock.Any(), toID, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, _ uuid.UUID, delta decimal.Decimal, txn *domain.Transaction) error {
			assert.True(t, delta.Equal(amount))
			credited = txn
			return nil
		})

	result, err := d.svc.Transfer(ctx, ports.TransferRequest{
		FromID:      fromID,
		ToID:        toID,
		Amount:      amount,
		Description: "rent",
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, domain.DirectionOut, result.Direction)
	assert.Equal(t, fromID, result.AccountID)
	assert.True(t, result.Amount.Equal(amount))
	assert.Equal(t, "rent", result.Description)

	// Both legs share the transfer ref and timestamp.
	require.NotNil(t, debited)
	require.NotNil(t, credited)
	assert.Equal(t, debited.TransferRef, credited.TransferRef)
	assert.Equal(t, debited.CreatedAt, credited.CreatedAt)
	assert.Equal(t, domain.DirectionIn, credited.Direction)
	assert.Equal(t, toID, credited.AccountID)
}

func TestTransferService_Transfer_SameAccount(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	id := uuid.New()
	result, err := d.svc.Transfer(context.Background(), ports.TransferRequest{
		FromID: id,
		ToID:   id,
		Amount: decimal.RequireFromString("10.00"),
	})
	assert.Nil(t, result)
	assertAppError(t, err, apperror.CodeSameAccountTransfer)
}

func TestTransferService_Transfer_InvalidAmount(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	for _, raw := range []string{"0", "-5.00"} {
		result, err := d.svc.Transfer(context.Background(), ports.TransferRequest{
			FromID: uuid.New(),
			ToID:   uuid.New(),
			Amount: decimal.RequireFromString(raw),
		})
		assert.Nil(t, result)
		assertAppError(t, err, apperror.CodeInvalidAmount)
	}
}

func TestTransferService_Transfer_SourceNotFound(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	fromID := uuid.New()
	toID := uuid.New()

	// Source id does not resolve to a row; only the destination is handed back.
	runExclusive(d, map[uuid.UUID]*domain.Account{
		toID: {ID: toID, Balance: decimal.Zero},
	})

	result, err := d.svc.Transfer(context.Background(), ports.TransferRequest{
		FromID: fromID,
		ToID:   toID,
		Amount: decimal.RequireFromString("10.00"),
	})
	assert.Nil(t, result)
	assertAppError(t, err, apperror.CodeAccountNotFound)
}

func TestTransferService_Transfer_DestinationNotFound(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	fromID := uuid.New()
	toID := uuid.New()

	runExclusive(d, map[uuid.UUID]*domain.Account{
		fromID: {ID: fromID, Balance: decimal.RequireFromString("100.00")},
	})

	result, err := d.svc.Transfer(context.Background(), ports.TransferRequest{
		FromID: fromID,
		ToID:   toID,
		Amount: decimal.RequireFromString("10.00"),
	})
	assert.Nil(t, result)
	assertAppError(t, err, apperror.CodeAccountNotFound)
}

func TestTransferService_Transfer_ClosedAccount(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	fromID := uuid.New()
	toID := uuid.New()
	closedAt := time.Now().UTC()

	runExclusive(d, map[uuid.UUID]*domain.Account{
		fromID: {ID: fromID, Balance: decimal.RequireFromString("100.00"), ClosedAt: &closedAt},
		toID:   {ID: toID, Balance: decimal.Zero},
	})

	result, err := d.svc.Transfer(context.Background(), ports.TransferRequest{
		FromID: fromID,
		ToID:   toID,
		Amount: decimal.RequireFromString("10.00"),
	})
	assert.Nil(t, result)
	assertAppError(t, err, apperror.CodeAccountClosed)
}

func TestTransferService_Transfer_InsufficientFunds(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	fromID := uuid.New()
	toID := uuid.New()

	runExclusive(d, map[uuid.UUID]*domain.Account{
		fromID: {ID: fromID, Balance: decimal.RequireFromString("1000.00")},
		toID:   {ID: toID, Balance: decimal.RequireFromString("500.00")},
	})

	// Exactly one unit more than the balance.
	result, err := d.svc.Transfer(context.Background(), ports.TransferRequest{
		FromID: fromID,
		ToID:   toID,
		Amount: decimal.RequireFromString("1000.01"),
	})
	assert.Nil(t, result)
	assertAppError(t, err, apperror.CodeInsufficientFunds)
}

func TestTransferService_Transfer_ExactBalanceAllowed(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	fromID := uuid.New()
	toID := uuid.New()
	amount := decimal.RequireFromString("1000.00")

	runExclusive(d, map[uuid.UUID]*domain.Account{
		fromID: {ID: fromID, Balance: amount},
		toID:   {ID: toID, Balance: decimal.Zero},
	})
	d.ledger.EXPECT().ApplyDelta(gomock.Any(), gomock.Any(), fromID, gomock.Any(), gomock.Any()).Return(nil)
	d.ledger.EXPECT().ApplyDelta(gomock.Any(), gomock.Any(), toID, gomock.Any(), gomock.Any()).Return(nil)

	result, err := d.svc.Transfer(context.Background(), ports.TransferRequest{
		FromID: fromID,
		ToID:   toID,
		Amount: amount,
	})
	require.NoError(t, err)
	assert.True(t, result.Amount.Equal(amount))
}

func TestTransferService_Transfer_CreditLegFailureSurfaces(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	fromID := uuid.New()
	toID := uuid.New()

	runExclusive(d, map[uuid.UUID]*domain.Account{
		fromID: {ID: fromID, Balance: decimal.RequireFromString("100.00")},
		toID:   {ID: toID, Balance: decimal.Zero},
	})
	d.ledger.EXPECT().ApplyDelta(gomock.Any(), gomock.Any(), fromID, gomock.Any(), gomock.Any()).Return(nil)
	d.ledger.EXPECT().ApplyDelta(gomock.Any(), gomock.Any(), toID, gomock.Any(), gomock.Any()).
		Return(apperror.ErrStorage(errors.New("write failed")))

	result, err := d.svc.Transfer(context.Background(), ports.TransferRequest{
		FromID: fromID,
		ToID:   toID,
		Amount: decimal.RequireFromString("10.00"),
	})
	assert.Nil(t, result)
	assertAppError(t, err, apperror.CodeStorageFailure)
}

func TestTransferService_Transfer_LockTimeout(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	d.ledger.EXPECT().
		WithExclusive(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(context.DeadlineExceeded)

	result, err := d.svc.Transfer(context.Background(), ports.TransferRequest{
		FromID: uuid.New(),
		ToID:   uuid.New(),
		Amount: decimal.RequireFromString("10.00"),
	})
	assert.Nil(t, result)
	assertAppError(t, err, apperror.CodeLockTimeout)
}

func TestTransferService_Transfer_DedupeCacheHit(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	fromID := uuid.New()
	toID := uuid.New()

	cached := &domain.Transaction{
		ID:        uuid.New(),
		AccountID: fromID,
		Amount:    decimal.RequireFromString("42.00"),
		Direction: domain.DirectionOut,
	}
	data, _ := json.Marshal(cached)

	d.cache.EXPECT().Get(ctx, buildTransferKey(fromID, "RENT-2026-01")).Return(data, nil)

	// The ledger must not be touched on a cache hit.
	result, err := d.svc.Transfer(ctx, ports.TransferRequest{
		FromID:      fromID,
		ToID:        toID,
		Amount:      decimal.RequireFromString("42.00"),
		ReferenceID: "RENT-2026-01",
	})
	require.NoError(t, err)
	assert.Equal(t, cached.ID, result.ID)
	assert.True(t, result.Amount.Equal(cached.Amount))
}

func TestTransferService_Transfer_DedupeCacheMissCachesResult(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	fromID := uuid.New()
	toID := uuid.New()
	key := buildTransferKey(fromID, "ORDER-7")

	d.cache.EXPECT().Get(ctx, key).Return(nil, nil)
	runExclusive(d, map[uuid.UUID]*domain.Account{
		fromID: {ID: fromID, Balance: decimal.RequireFromString("100.00")},
		toID:   {ID: toID, Balance: decimal.Zero},
	})
	d.ledger.EXPECT().ApplyDelta(gomock.Any(), gomock.Any(), fromID, gomock.Any(), gomock.Any()).Return(nil)
	d.ledger.EXPECT().ApplyDelta(gomock.Any(), gomock.Any(), toID, gomock.Any(), gomock.Any()).Return(nil)
	d.cache.EXPECT().Set(ctx, key, gomock.Any(), 24*time.Hour).Return(nil)

	result, err := d.svc.Transfer(ctx, ports.TransferRequest{
		FromID:      fromID,
		ToID:        toID,
		Amount:      decimal.RequireFromString("10.00"),
		ReferenceID: "ORDER-7",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
}

func TestTransferService_Transfer_CacheErrorDoesNotBlock(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	fromID := uuid.New()
	toID := uuid.New()
	key := buildTransferKey(fromID, "ORDER-8")

	d.cache.EXPECT().Get(ctx, key).Return(nil, errors.New("redis down"))
	runExclusive(d, map[uuid.UUID]*domain.Account{
		fromID: {ID: fromID, Balance: decimal.RequireFromString("100.00")},
		toID:   {ID: toID, Balance: decimal.Zero},
	})
	d.ledger.EXPECT().ApplyDelta(gomock.Any(), gomock.Any(), fromID, gomock.Any(), gomock.Any()).Return(nil)
	d.ledger.EXPECT().ApplyDelta(gomock.Any(), gomock.Any(), toID, gomock.Any(), gomock.Any()).Return(nil)
	d.cache.EXPECT().Set(ctx, key, gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	result, err := d.svc.Transfer(ctx, ports.TransferRequest{
		FromID:      fromID,
		ToID:        toID,
		Amount:      decimal.RequireFromString("10.00"),
		ReferenceID: "ORDER-8",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
}
