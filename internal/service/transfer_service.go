package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bank-service/internal/core/domain"
	"bank-service/internal/core/ports"
	"bank-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// TransferServiceImpl implements ports.TransferEngine. All balance mutations
// in the system flow through here; nothing else writes to the ledger.
type TransferServiceImpl struct {
	ledger        ports.LedgerStore
	transferCache ports.TransferCache
	lockTimeout   time.Duration
	cacheTTL      time.Duration
	log           zerolog.Logger
}

// NewTransferService creates a new TransferServiceImpl. transferCache may be
// nil, which disables reference-id deduplication.
func NewTransferService(
	ledger ports.LedgerStore,
	transferCache ports.TransferCache,
	lockTimeout time.Duration,
	cacheTTL time.Duration,
	log zerolog.Logger,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		ledger:        ledger,
		transferCache: transferCache,
		lockTimeout:   lockTimeout,
		cacheTTL:      cacheTTL,
		log:           log,
	}
}

// Transfer moves req.Amount from one account to another as a single atomic
// operation and returns the OUT leg. Validation failures happen before any
// lock is taken; the funds check happens under the same exclusive scope as
// the mutation, so the checked balance cannot change before the debit lands.
func (s *TransferServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*domain.Transaction, error) {
	if req.FromID == req.ToID {
		return nil, apperror.ErrSameAccountTransfer()
	}
	if req.Amount.Sign() <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	cacheKey := buildTransferKey(req.FromID, req.ReferenceID)

	// Dedupe client retries (best-effort).
	if s.transferCache != nil && req.ReferenceID != "" {
		cached, err := s.transferCache.Get(ctx, cacheKey)
		if err != nil {
			s.log.Warn().Err(err).Str("key", cacheKey).Msg("transfer dedupe check failed, continuing")
		}
		if cached != nil {
			return unmarshalCachedTransaction(cached)
		}
	}

	lockCtx := ctx
	if s.lockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, s.lockTimeout)
		defer cancel()
	}

	var outLeg *domain.Transaction
	err := s.ledger.WithExclusive(lockCtx, []uuid.UUID{req.FromID, req.ToID}, func(tx pgx.Tx, accounts map[uuid.UUID]*domain.Account) error {
		from, ok := accounts[req.FromID]
		if !ok {
			return apperror.ErrAccountNotFound(req.FromID.String())
		}
		to, ok := accounts[req.ToID]
		if !ok {
			return apperror.ErrAccountNotFound(req.ToID.String())
		}
		if from.IsClosed() {
			return apperror.ErrAccountClosed(from.ID.String())
		}
		if to.IsClosed() {
			return apperror.ErrAccountClosed(to.ID.String())
		}
		if from.Balance.LessThan(req.Amount) {
			return apperror.ErrInsufficientFunds()
		}

		now := time.Now().UTC()
		ref := uuid.New()
		out := &domain.Transaction{
			ID:          uuid.New(),
			AccountID:   from.ID,
			TransferRef: ref,
			Amount:      req.Amount,
			Direction:   domain.DirectionOut,
			Description: req.Description,
			CreatedAt:   now,
		}
		in := &domain.Transaction{
			ID:          uuid.New(),
			AccountID:   to.ID,
			TransferRef: ref,
			Amount:      req.Amount,
			Direction:   domain.DirectionIn,
			Description: req.Description,
			CreatedAt:   now,
		}

		if err := s.ledger.ApplyDelta(ctx, tx, from.ID, req.Amount.Neg(), out); err != nil {
			return err
		}
		if err := s.ledger.ApplyDelta(ctx, tx, to.ID, req.Amount, in); err != nil {
			// The debit leg is undone with the rest of the exclusive scope
			// before this error reaches the caller.
			s.log.Error().Err(err).
				Str("transfer_ref", ref.String()).
				Str("from", from.ID.String()).
				Str("to", to.ID.String()).
				Msg("credit leg failed after debit, reversing")
			return err
		}

		outLeg = out
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperror.ErrLockTimeout(err)
		}
		return nil, err
	}

	// Post-process: cache for retry dedupe (best-effort).
	if s.transferCache != nil && req.ReferenceID != "" {
		if data, err := json.Marshal(outLeg); err == nil {
			if err := s.transferCache.Set(ctx, cacheKey, data, s.cacheTTL); err != nil {
				s.log.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache transfer response")
			}
		}
	}

	s.log.Info().
		Str("transfer_ref", outLeg.TransferRef.String()).
		Str("from", req.FromID.String()).
		Str("to", req.ToID.String()).
		Str("amount", req.Amount.String()).
		Msg("transfer completed")

	return outLeg, nil
}

// buildTransferKey scopes a client reference id to the source account.
func buildTransferKey(fromID uuid.UUID, referenceID string) string {
	return fmt.Sprintf("%s:%s", fromID, referenceID)
}

// unmarshalCachedTransaction deserializes a cached OUT leg.
func unmarshalCachedTransaction(data []byte) (*domain.Transaction, error) {
	txn := &domain.Transaction{}
	if err := json.Unmarshal(data, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached transfer: %w", err))
	}
	return txn, nil
}
