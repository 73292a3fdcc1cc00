package domain

import (
	"time"

	"github.com/google/uuid"
)

// CardType is the closed set of issuable card types.
type CardType string

const (
	CardTypeDebit  CardType = "DEBIT"
	CardTypeCredit CardType = "CREDIT"
)

// ParseCardType validates a raw card type string.
func ParseCardType(raw string) (CardType, bool) {
	switch CardType(raw) {
	case CardTypeDebit, CardTypeCredit:
		return CardType(raw), true
	}
	return "", false
}

// Card is issued against an account. The CVV is shown once at issuance and
// never persisted; the PIN is stored only as an Argon2id hash.
type Card struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	Number    string    `json:"number"`
	Type      CardType  `json:"type"`
	PINHash   string    `json:"-"`
	Active    bool      `json:"active"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
