package dto

// CreateAccountRequest describes one account to open, either standalone or
// as part of signup. Amounts travel as decimal strings to keep cent precision.
type CreateAccountRequest struct {
	Type           string `json:"type" binding:"required,oneof=CHECKING SAVINGS DEBIT CREDIT"`
	InitialBalance string `json:"initial_balance,omitempty"`
	Primary        bool   `json:"primary"`
}

// SignupRequest is the request body for holder registration.
type SignupRequest struct {
	Name     string                 `json:"name" binding:"required,min=1,max=100"`
	Username string                 `json:"username" binding:"required,min=3,max=50,safe_id"`
	Password string                 `json:"password" binding:"required,min=8,max=128"`
	Accounts []CreateAccountRequest `json:"accounts" binding:"dive"`
}

// LoginRequest is the request body for holder login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignupResponse is the response body for successful registration.
type SignupResponse struct {
	HolderID string            `json:"holder_id"`
	Name     string            `json:"name"`
	Username string            `json:"username"`
	Accounts []AccountResponse `json:"accounts"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// AccountResponse is the response body for account state.
type AccountResponse struct {
	ID        string  `json:"id"`
	Number    string  `json:"number"`
	Type      string  `json:"type"`
	Balance   string  `json:"balance"`
	Primary   bool    `json:"primary"`
	ClosedAt  *string `json:"closed_at,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// TransferRequest is the request body for fund transfers.
type TransferRequest struct {
	FromAccountID string `json:"from_account_id" binding:"required,uuid"`
	ToAccountID   string `json:"to_account_id" binding:"required,uuid"`
	Amount        string `json:"amount" binding:"required"`
	Description   string `json:"description" binding:"max=255"`
	ReferenceID   string `json:"reference_id" binding:"omitempty,max=100,safe_id"`
}

// TransactionResponse is the response body for one statement line or
// transfer result.
type TransactionResponse struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"`
	TransferRef string `json:"transfer_ref"`
	Amount      string `json:"amount"`
	Direction   string `json:"direction"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// StatementResponse wraps an account statement.
type StatementResponse struct {
	AccountID    string                `json:"account_id"`
	Transactions []TransactionResponse `json:"transactions"`
}

// IssueCardRequest is the request body for card issuance.
type IssueCardRequest struct {
	Type string `json:"type" binding:"required,oneof=DEBIT CREDIT"`
	PIN  string `json:"pin" binding:"omitempty,len=4,numeric"`
}

// CardResponse is the response body for card state.
type CardResponse struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Number    string `json:"number"`
	Type      string `json:"type"`
	Active    bool   `json:"active"`
	ExpiresAt string `json:"expires_at"`
	CreatedAt string `json:"created_at"`
}

// IssueCardResponse carries the card plus the secrets shown exactly once.
type IssueCardResponse struct {
	Card CardResponse `json:"card"`
	CVV  string       `json:"cvv"`
	PIN  string       `json:"pin"`
}
