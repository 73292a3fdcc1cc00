package integration

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bank-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// memState is the shared in-memory backing store. The repo and ledger types
// below are views over it, so accounts created through the repo are visible
// to the ledger the same way they share a database in production.
type memState struct {
	mu       sync.RWMutex
	holders  map[uuid.UUID]*domain.AccountHolder
	accounts map[uuid.UUID]*domain.Account
	order    []uuid.UUID // account insertion order
	locks    map[uuid.UUID]chan struct{}
	log      []domain.Transaction
	cards    map[uuid.UUID][]domain.Card
}

func newMemState() *memState {
	return &memState{
		holders:  make(map[uuid.UUID]*domain.AccountHolder),
		accounts: make(map[uuid.UUID]*domain.Account),
		locks:    make(map[uuid.UUID]chan struct{}),
		cards:    make(map[uuid.UUID][]domain.Card),
	}
}

// --- Holder repo ---

type inMemoryHolderRepo struct{ s *memState }

func (r *inMemoryHolderRepo) Create(ctx context.Context, holder *domain.AccountHolder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, h := range r.s.holders {
		if h.Username == holder.Username {
			return fmt.Errorf("username already exists")
		}
	}
	r.s.holders[holder.ID] = holder
	return nil
}

func (r *inMemoryHolderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.AccountHolder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	h, ok := r.s.holders[id]
	if !ok {
		return nil, nil
	}
	return h, nil
}

func (r *inMemoryHolderRepo) GetByUsername(ctx context.Context, username string) (*domain.AccountHolder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, h := range r.s.holders {
		if h.Username == username {
			return h, nil
		}
	}
	return nil, nil
}

// --- Account repo ---

type inMemoryAccountRepo struct{ s *memState }

func (r *inMemoryAccountRepo) Create(ctx context.Context, account *domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.accounts[account.ID] = account
	r.s.order = append(r.s.order, account.ID)
	r.s.locks[account.ID] = make(chan struct{}, 1)
	return nil
}

func (r *inMemoryAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (r *inMemoryAccountRepo) ListByHolder(ctx context.Context, holderID uuid.UUID) ([]domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Account
	for _, id := range r.s.order {
		a := r.s.accounts[id]
		if a.HolderID == holderID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (r *inMemoryAccountRepo) Close(ctx context.Context, id uuid.UUID, closedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return fmt.Errorf("account not found")
	}
	a.ClosedAt = &closedAt
	a.UpdatedAt = closedAt
	return nil
}

// --- Transaction repo ---

type inMemoryTransactionRepo struct{ s *memState }

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for i := range r.s.log {
		if r.s.log[i].ID == id {
			copied := r.s.log[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *inMemoryTransactionRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]domain.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Transaction
	// Newest first: walk the append-only log backwards.
	for i := len(r.s.log) - 1; i >= 0; i-- {
		t := r.s.log[i]
		if t.AccountID != accountID {
			continue
		}
		if from != nil && t.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && t.CreatedAt.After(*to) {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

// --- Card repo ---

type inMemoryCardRepo struct{ s *memState }

func (r *inMemoryCardRepo) Create(ctx context.Context, card *domain.Card) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.cards[card.AccountID] = append(r.s.cards[card.AccountID], *card)
	return nil
}

func (r *inMemoryCardRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Card, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]domain.Card(nil), r.s.cards[accountID]...), nil
}

// --- Ledger store ---

// inMemoryLedger mirrors the row-lock semantics of the real store: exclusive
// scopes take per-account locks in ascending id order, honor the context
// deadline while waiting, and undo applied deltas when the scope fails.
type inMemoryLedger struct{ s *memState }

func (l *inMemoryLedger) ReadBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	a, ok := l.s.accounts[accountID]
	if !ok {
		return decimal.Zero, fmt.Errorf("account not found")
	}
	return a.Balance, nil
}

func (l *inMemoryLedger) WithExclusive(ctx context.Context, ids []uuid.UUID, fn func(tx pgx.Tx, accounts map[uuid.UUID]*domain.Account) error) error {
	// Lock in ascending id order so concurrent scopes over the same pair
	// cannot deadlock, matching the SELECT ... FOR UPDATE ordering.
	ordered := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			ordered = append(ordered, id)
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i][:], ordered[j][:]) < 0
	})

	var held []chan struct{}
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}

	accounts := make(map[uuid.UUID]*domain.Account, len(ordered))
	for _, id := range ordered {
		l.s.mu.RLock()
		lock, ok := l.s.locks[id]
		l.s.mu.RUnlock()
		if !ok {
			continue // unknown account, absent from the map
		}
		select {
		case lock <- struct{}{}:
			held = append(held, lock)
		case <-ctx.Done():
			release()
			return ctx.Err()
		}
		l.s.mu.RLock()
		accounts[id] = l.s.accounts[id]
		l.s.mu.RUnlock()
	}
	defer release()

	tx := &memTx{ledger: l}
	if err := fn(tx, accounts); err != nil {
		tx.undo()
		return err
	}
	tx.commit()
	return nil
}

func (l *inMemoryLedger) ApplyDelta(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, delta decimal.Decimal, txn *domain.Transaction) error {
	mt, ok := tx.(*memTx)
	if !ok {
		return fmt.Errorf("ApplyDelta called outside an exclusive scope")
	}
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	a, ok := l.s.accounts[accountID]
	if !ok {
		return fmt.Errorf("account not found")
	}
	a.Balance = a.Balance.Add(delta)
	mt.journal = append(mt.journal, journalEntry{accountID: accountID, delta: delta})
	mt.pending = append(mt.pending, *txn)
	return nil
}

type journalEntry struct {
	accountID uuid.UUID
	delta     decimal.Decimal
}

// memTx is a pgx.Tx stand-in that carries the undo journal for one exclusive
// scope. Only Commit and Rollback are meaningful.
type memTx struct {
	ledger  *inMemoryLedger
	journal []journalEntry
	pending []domain.Transaction
}

func (t *memTx) undo() {
	t.ledger.s.mu.Lock()
	defer t.ledger.s.mu.Unlock()
	for i := len(t.journal) - 1; i >= 0; i-- {
		e := t.journal[i]
		if a, ok := t.ledger.s.accounts[e.accountID]; ok {
			a.Balance = a.Balance.Sub(e.delta)
		}
	}
	t.journal = nil
	t.pending = nil
}

func (t *memTx) commit() {
	t.ledger.s.mu.Lock()
	defer t.ledger.s.mu.Unlock()
	t.ledger.s.log = append(t.ledger.s.log, t.pending...)
	t.journal = nil
	t.pending = nil
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *memTx) Commit(ctx context.Context) error          { return nil }
func (t *memTx) Rollback(ctx context.Context) error        { return nil }
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *memTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *memTx) Conn() *pgx.Conn { return nil }
