package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"bank-service/internal/core/domain"
	"bank-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// pgLockNotAvailable is the SQLSTATE raised when lock_timeout expires.
const pgLockNotAvailable = "55P03"

// LedgerStore implements ports.LedgerStore on PostgreSQL row locks.
// Exclusivity comes from SELECT ... FOR UPDATE inside one transaction; both
// legs of a transfer commit together or not at all.
type LedgerStore struct {
	pool        Pool
	lockTimeout time.Duration
}

// NewLedgerStore creates a LedgerStore. lockTimeout bounds how long a lock
// acquisition may block; zero disables the bound.
func NewLedgerStore(pool Pool, lockTimeout time.Duration) *LedgerStore {
	return &LedgerStore{pool: pool, lockTimeout: lockTimeout}
}

// ReadBalance returns the current balance without taking an exclusive lock.
func (s *LedgerStore) ReadBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	var balance string
	err := s.pool.QueryRow(ctx, `SELECT balance::text FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("read balance: %w", err)
	}

	parsed, err := decimal.NewFromString(balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse balance %q: %w", balance, err)
	}
	return parsed, nil
}

// WithExclusive locks the given accounts in ascending id order, runs fn with
// the locked rows, and commits iff fn returns nil. Missing accounts are
// absent from the map rather than an error; fn decides how to report them.
// The deferred rollback releases all locks on every exit path.
func (s *LedgerStore) WithExclusive(ctx context.Context, ids []uuid.UUID, fn func(tx pgx.Tx, accounts map[uuid.UUID]*domain.Account) error) error {
	ordered := orderAccountIDs(ids)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperror.ErrStorage(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if s.lockTimeout > 0 {
		// SET LOCAL does not accept bind parameters.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return apperror.ErrStorage(fmt.Errorf("set lock timeout: %w", err))
		}
	}

	accounts := make(map[uuid.UUID]*domain.Account, len(ordered))
	for _, id := range ordered {
		a, err := s.lockAccount(ctx, tx, id)
		if err != nil {
			return err
		}
		if a != nil {
			accounts[a.ID] = a
		}
	}

	if err := fn(tx, accounts); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return apperror.ErrStorage(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// ApplyDelta adjusts one account's balance and appends its transaction record
// within the caller's exclusive scope.
func (s *LedgerStore) ApplyDelta(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, delta decimal.Decimal, txn *domain.Transaction) error {
	tag, err := tx.Exec(ctx,
		`UPDATE accounts SET balance = balance + $1, updated_at = NOW() WHERE id = $2`,
		delta.String(), accountID,
	)
	if err != nil {
		return apperror.ErrStorage(fmt.Errorf("apply balance delta: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return apperror.ErrStorage(fmt.Errorf("account not found: %s", accountID))
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO transactions (id, account_id, transfer_ref, amount, direction, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		txn.ID, txn.AccountID, txn.TransferRef, txn.Amount.String(),
		txn.Direction, txn.Description, txn.CreatedAt,
	)
	if err != nil {
		return apperror.ErrStorage(fmt.Errorf("append transaction: %w", err))
	}
	return nil
}

// lockAccount takes the row lock for one account. Returns nil, nil when the
// account does not exist.
func (s *LedgerStore) lockAccount(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error) {
	row := tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)

	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
			return nil, apperror.ErrLockTimeout(err)
		}
		return nil, apperror.ErrStorage(fmt.Errorf("lock account %s: %w", id, err))
	}
	return a, nil
}

// orderAccountIDs returns a copy of ids sorted ascending by byte value. Every
// multi-account acquisition uses this order, so two transfers over the same
// pair serialize instead of deadlocking.
func orderAccountIDs(ids []uuid.UUID) []uuid.UUID {
	ordered := make([]uuid.UUID, len(ids))
	copy(ordered, ids)
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i][:], ordered[j][:]) < 0
	})
	return ordered
}
