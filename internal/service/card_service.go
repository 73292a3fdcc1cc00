package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"bank-service/internal/core/domain"
	"bank-service/internal/core/ports"
	"bank-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	cardNumberLength = 16
	cardPINLength    = 4
	cardCVVLength    = 3
	cardValidity     = 4 * 365 * 24 * time.Hour
)

// CardServiceImpl implements ports.CardIssuer.
type CardServiceImpl struct {
	cardRepo    ports.CardRepository
	accountRepo ports.AccountRepository
	hashSvc     ports.HashService
	log         zerolog.Logger
}

// NewCardService creates a new CardServiceImpl.
func NewCardService(cardRepo ports.CardRepository, accountRepo ports.AccountRepository, hashSvc ports.HashService, log zerolog.Logger) *CardServiceImpl {
	return &CardServiceImpl{
		cardRepo:    cardRepo,
		accountRepo: accountRepo,
		hashSvc:     hashSvc,
		log:         log,
	}
}

// Issue creates a card against an open account. The CVV and PIN are returned
// exactly once; only the PIN's hash is persisted and the CVV is never stored.
func (s *CardServiceImpl) Issue(ctx context.Context, accountID uuid.UUID, req ports.IssueCardRequest) (*ports.IssueCardResponse, error) {
	cardType, ok := domain.ParseCardType(req.Type)
	if !ok {
		return nil, apperror.Validation(fmt.Sprintf("unknown card type %q", req.Type))
	}

	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound(accountID.String())
	}
	if account.IsClosed() {
		return nil, apperror.ErrAccountClosed(accountID.String())
	}

	pin := req.PIN
	if pin == "" {
		pin, err = randomDigits(cardPINLength)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("generate pin: %w", err))
		}
	} else if len(pin) != cardPINLength {
		return nil, apperror.Validation(fmt.Sprintf("pin must be %d digits", cardPINLength))
	}

	pinHash, err := s.hashSvc.Hash(pin)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash pin: %w", err))
	}

	number, err := randomDigits(cardNumberLength)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate card number: %w", err))
	}
	cvv, err := randomDigits(cardCVVLength)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate cvv: %w", err))
	}

	now := time.Now().UTC()
	card := &domain.Card{
		ID:        uuid.New(),
		AccountID: accountID,
		Number:    number,
		Type:      cardType,
		PINHash:   pinHash,
		Active:    true,
		ExpiresAt: now.Add(cardValidity),
		CreatedAt: now,
	}

	if err := s.cardRepo.Create(ctx, card); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("create card: %w", err))
	}

	s.log.Info().
		Str("card_id", card.ID.String()).
		Str("account_id", accountID.String()).
		Str("type", string(card.Type)).
		Msg("card issued")

	return &ports.IssueCardResponse{Card: card, CVV: cvv, PIN: pin}, nil
}

// List returns all cards issued against the account, active or not.
func (s *CardServiceImpl) List(ctx context.Context, accountID uuid.UUID) ([]domain.Card, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound(accountID.String())
	}

	cards, err := s.cardRepo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list cards: %w", err))
	}
	return cards, nil
}

// randomDigits produces an n digit numeric string.
func randomDigits(n int) (string, error) {
	digits := make([]byte, n)
	for i := range digits {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + v.Int64())
	}
	return string(digits), nil
}
