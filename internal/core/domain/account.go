package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType is the closed set of recognized account types.
type AccountType string

const (
	AccountTypeChecking AccountType = "CHECKING"
	AccountTypeSavings  AccountType = "SAVINGS"
	AccountTypeDebit    AccountType = "DEBIT"
	AccountTypeCredit   AccountType = "CREDIT"
)

// ParseAccountType validates a raw type string against the closed set.
func ParseAccountType(raw string) (AccountType, bool) {
	switch AccountType(raw) {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeDebit, AccountTypeCredit:
		return AccountType(raw), true
	}
	return "", false
}

// Account is a monetary account owned by a holder. ID and Number are assigned
// at creation and never change. Balance is mutated only through the ledger.
type Account struct {
	ID        uuid.UUID       `json:"id"`
	Number    string          `json:"number"`
	HolderID  uuid.UUID       `json:"holder_id"`
	Type      AccountType     `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	Primary   bool            `json:"primary"`
	ClosedAt  *time.Time      `json:"closed_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// IsClosed reports whether the account has been marked closed. Closed
// accounts are never deleted; their transaction history stays intact.
func (a *Account) IsClosed() bool {
	return a.ClosedAt != nil
}
