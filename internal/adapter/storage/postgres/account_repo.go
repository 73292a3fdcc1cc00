package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bank-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// accountColumns is the canonical select list for accounts. Balance is
// selected as text and parsed into a decimal, never through a float.
const accountColumns = `id, number, holder_id, type, balance::text, is_primary, closed_at, created_at, updated_at`

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Create inserts a new account.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	query := `INSERT INTO accounts (id, number, holder_id, type, balance, is_primary, closed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.Number, a.HolderID, a.Type, a.Balance.String(),
		a.Primary, a.ClosedAt, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID fetches an account by its UUID (without locking).
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	a, err := scanAccount(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account by id: %w", err)
	}
	return a, nil
}

// ListByHolder fetches a holder's accounts in insertion order.
func (r *AccountRepo) ListByHolder(ctx context.Context, holderID uuid.UUID) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE holder_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, holderID)
	if err != nil {
		return nil, fmt.Errorf("list accounts by holder: %w", err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account rows: %w", err)
	}
	return accounts, nil
}

// Close marks an account closed. The row and its transaction history remain.
func (r *AccountRepo) Close(ctx context.Context, id uuid.UUID, closedAt time.Time) error {
	query := `UPDATE accounts SET closed_at = $1, updated_at = NOW() WHERE id = $2 AND closed_at IS NULL`

	tag, err := r.pool.Exec(ctx, query, closedAt, id)
	if err != nil {
		return fmt.Errorf("close account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found or already closed: %s", id)
	}
	return nil
}

// scanAccount reads one account row from the canonical select list.
func scanAccount(row pgx.Row) (*domain.Account, error) {
	a := &domain.Account{}
	var balance string
	if err := row.Scan(
		&a.ID, &a.Number, &a.HolderID, &a.Type, &balance,
		&a.Primary, &a.ClosedAt, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}

	parsed, err := decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("parse balance %q: %w", balance, err)
	}
	a.Balance = parsed
	return a, nil
}
