package ports

import (
	"context"
	"time"

	"bank-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountRegistry owns account records: creation, lookup, listing, closure.
type AccountRegistry interface {
	Create(ctx context.Context, req CreateAccountRequest) (*domain.Account, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	List(ctx context.Context, holderID uuid.UUID) ([]domain.Account, error)
	Close(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

// CreateAccountRequest holds validated-at-the-boundary account creation input.
type CreateAccountRequest struct {
	HolderID       uuid.UUID
	Type           string
	InitialBalance decimal.Decimal
	Primary        bool
}

// TransferEngine moves funds between two accounts as one atomic operation.
type TransferEngine interface {
	// Transfer returns the OUT leg; the IN leg is retrievable via the
	// destination account's statement.
	Transfer(ctx context.Context, req TransferRequest) (*domain.Transaction, error)
}

// TransferRequest holds transfer input. ReferenceID is optional; when set,
// retries with the same reference return the original OUT leg.
type TransferRequest struct {
	FromID      uuid.UUID
	ToID        uuid.UUID
	Amount      decimal.Decimal
	Description string
	ReferenceID string
}

// StatementGenerator produces read-only, time-ordered transaction views.
type StatementGenerator interface {
	// Statement returns the account's transactions newest first, optionally
	// bounded by an inclusive date range. Side-effect free and restartable.
	Statement(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]domain.Transaction, error)
}

// AuthService handles holder signup and login.
type AuthService interface {
	Signup(ctx context.Context, req SignupRequest) (*SignupResponse, error)
	Login(ctx context.Context, username, password string) (string, time.Time, error)
}

// SignupRequest registers a holder together with an initial set of accounts.
type SignupRequest struct {
	Name     string
	Username string
	Password string
	Accounts []CreateAccountSpec
}

// CreateAccountSpec describes one initial account in a signup request.
type CreateAccountSpec struct {
	Type           string
	InitialBalance decimal.Decimal
	Primary        bool
}

// SignupResponse is returned on successful registration.
type SignupResponse struct {
	Holder   *domain.AccountHolder
	Accounts []domain.Account
}

// CardIssuer issues and lists cards against accounts.
type CardIssuer interface {
	Issue(ctx context.Context, accountID uuid.UUID, req IssueCardRequest) (*IssueCardResponse, error)
	List(ctx context.Context, accountID uuid.UUID) ([]domain.Card, error)
}

// IssueCardRequest holds card issuance input. PIN is optional; one is
// generated when absent.
type IssueCardRequest struct {
	Type string
	PIN  string
}

// IssueCardResponse carries the card plus its one-time-visible secrets.
type IssueCardResponse struct {
	Card *domain.Card
	CVV  string
	PIN  string
}

// HashService handles password and PIN hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(holderID uuid.UUID, username string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	HolderID uuid.UUID
	Username string
}
