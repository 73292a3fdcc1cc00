package ports

import (
	"context"
	"time"

	"bank-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// HolderRepository defines persistence operations for account holders.
type HolderRepository interface {
	Create(ctx context.Context, holder *domain.AccountHolder) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AccountHolder, error)
	GetByUsername(ctx context.Context, username string) (*domain.AccountHolder, error)
}

// AccountRepository defines persistence operations for accounts.
// Balance mutations do not go through here; they go through LedgerStore.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	// ListByHolder returns the holder's accounts in insertion order.
	ListByHolder(ctx context.Context, holderID uuid.UUID) ([]domain.Account, error)
	// Close marks the account closed. The row is never deleted.
	Close(ctx context.Context, id uuid.UUID, closedAt time.Time) error
}

// TransactionRepository defines read access to the append-only transaction log.
type TransactionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	// ListByAccount returns transactions newest first. Nil bounds mean
	// unbounded; non-nil bounds are inclusive.
	ListByAccount(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]domain.Transaction, error)
}

// LedgerStore is the durable balance-plus-log store. It is the only writer of
// balances and transaction records.
type LedgerStore interface {
	// ReadBalance returns the current balance without taking an exclusive lock.
	ReadBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)

	// WithExclusive acquires exclusive mutation rights over the given accounts,
	// always in ascending account-id order regardless of the order of ids, then
	// runs fn with the locked rows. Accounts that do not exist are simply
	// absent from the map. All mutations made through fn commit together iff
	// fn returns nil; on any error every applied delta is undone. Locks are
	// released on every exit path.
	WithExclusive(ctx context.Context, ids []uuid.UUID, fn func(tx pgx.Tx, accounts map[uuid.UUID]*domain.Account) error) error

	// ApplyDelta adjusts one account's balance by the signed delta and appends
	// its transaction record as a single atomic step. Must be called inside a
	// WithExclusive scope holding that account.
	ApplyDelta(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, delta decimal.Decimal, txn *domain.Transaction) error
}

// CardRepository defines persistence operations for cards.
type CardRepository interface {
	Create(ctx context.Context, card *domain.Card) error
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Card, error)
}

// TransferCache is a best-effort dedupe cache for client transfer retries.
type TransferCache interface {
	// Get returns the cached response for a key, or nil, nil on a miss.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
