package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction marks which side of a transfer a transaction records.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Transaction is an immutable, append-only ledger entry. Amount is always
// positive; Direction says whether funds entered or left the account. The two
// legs of one transfer share a TransferRef.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	AccountID   uuid.UUID       `json:"account_id"`
	TransferRef uuid.UUID       `json:"transfer_ref"`
	Amount      decimal.Decimal `json:"amount"`
	Direction   Direction       `json:"direction"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SignedAmount returns the balance delta this entry represents.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Direction == DirectionOut {
		return t.Amount.Neg()
	}
	return t.Amount
}
