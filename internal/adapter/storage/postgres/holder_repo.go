package postgres

import (
	"context"
	"errors"
	"fmt"

	"bank-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// HolderRepo implements ports.HolderRepository.
type HolderRepo struct {
	pool Pool
}

// NewHolderRepo creates a new HolderRepo.
func NewHolderRepo(pool Pool) *HolderRepo {
	return &HolderRepo{pool: pool}
}

// Create inserts a new account holder.
func (r *HolderRepo) Create(ctx context.Context, h *domain.AccountHolder) error {
	query := `INSERT INTO account_holders (id, name, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query, h.ID, h.Name, h.Username, h.PasswordHash, h.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert holder: %w", err)
	}
	return nil
}

// GetByID fetches a holder by UUID.
func (r *HolderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.AccountHolder, error) {
	query := `SELECT id, name, username, password_hash, created_at FROM account_holders WHERE id = $1`

	h := &domain.AccountHolder{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&h.ID, &h.Name, &h.Username, &h.PasswordHash, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get holder by id: %w", err)
	}
	return h, nil
}

// GetByUsername fetches a holder by username.
func (r *HolderRepo) GetByUsername(ctx context.Context, username string) (*domain.AccountHolder, error) {
	query := `SELECT id, name, username, password_hash, created_at FROM account_holders WHERE username = $1`

	h := &domain.AccountHolder{}
	err := r.pool.QueryRow(ctx, query, username).Scan(&h.ID, &h.Name, &h.Username, &h.PasswordHash, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get holder by username: %w", err)
	}
	return h, nil
}
