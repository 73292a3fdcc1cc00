package postgres

import (
	"context"
	"fmt"

	"bank-service/internal/core/domain"

	"github.com/google/uuid"
)

// CardRepo implements ports.CardRepository.
type CardRepo struct {
	pool Pool
}

// NewCardRepo creates a new CardRepo.
func NewCardRepo(pool Pool) *CardRepo {
	return &CardRepo{pool: pool}
}

// Create inserts a new card.
func (r *CardRepo) Create(ctx context.Context, c *domain.Card) error {
	query := `INSERT INTO cards (id, account_id, number, type, pin_hash, active, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.AccountID, c.Number, c.Type, c.PINHash, c.Active, c.ExpiresAt, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

// ListByAccount fetches an account's cards in insertion order.
func (r *CardRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Card, error) {
	query := `SELECT id, account_id, number, type, pin_hash, active, expires_at, created_at
		FROM cards WHERE account_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list cards by account: %w", err)
	}
	defer rows.Close()

	cards := []domain.Card{}
	for rows.Next() {
		c := domain.Card{}
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Number, &c.Type, &c.PINHash, &c.Active, &c.ExpiresAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan card row: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate card rows: %w", err)
	}
	return cards, nil
}
