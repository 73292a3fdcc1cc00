package handler

import (
	"time"

	"bank-service/internal/adapter/http/dto"
	"bank-service/internal/core/domain"
	"bank-service/internal/core/ports"
	"bank-service/pkg/apperror"
	"bank-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountHandler handles account, statement, and card endpoints.
type AccountHandler struct {
	registry     ports.AccountRegistry
	statementSvc ports.StatementGenerator
	cardSvc      ports.CardIssuer
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(registry ports.AccountRegistry, statementSvc ports.StatementGenerator, cardSvc ports.CardIssuer) *AccountHandler {
	return &AccountHandler{
		registry:     registry,
		statementSvc: statementSvc,
		cardSvc:      cardSvc,
	}
}

// Create handles POST /api/v1/accounts.
func (h *AccountHandler) Create(c *gin.Context) {
	holderID, ok := holderFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	balance := decimal.Zero
	if req.InitialBalance != "" {
		var err error
		balance, err = decimal.NewFromString(req.InitialBalance)
		if err != nil {
			response.Error(c, apperror.Validation("initial_balance is not a valid decimal"))
			return
		}
	}

	account, err := h.registry.Create(c.Request.Context(), ports.CreateAccountRequest{
		HolderID:       holderID,
		Type:           req.Type,
		InitialBalance: balance,
		Primary:        req.Primary,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toAccountResponse(account))
}

// List handles GET /api/v1/accounts.
func (h *AccountHandler) List(c *gin.Context) {
	holderID, ok := holderFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	accounts, err := h.registry.List(c.Request.Context(), holderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := make([]dto.AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		resp = append(resp, toAccountResponse(&account))
	}
	response.OK(c, resp)
}

// Get handles GET /api/v1/accounts/:id.
func (h *AccountHandler) Get(c *gin.Context) {
	account, ok := h.ownedAccount(c)
	if !ok {
		return
	}
	response.OK(c, toAccountResponse(account))
}

// Close handles DELETE /api/v1/accounts/:id. The account is marked closed;
// its history stays readable.
func (h *AccountHandler) Close(c *gin.Context) {
	account, ok := h.ownedAccount(c)
	if !ok {
		return
	}

	closed, err := h.registry.Close(c.Request.Context(), account.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toAccountResponse(closed))
}

// Statement handles GET /api/v1/accounts/:id/statement with optional
// from/to query bounds (RFC 3339 or plain dates, inclusive).
func (h *AccountHandler) Statement(c *gin.Context) {
	account, ok := h.ownedAccount(c)
	if !ok {
		return
	}

	from, err := parseTimeParam(c.Query("from"), false)
	if err != nil {
		response.Error(c, apperror.Validation("from is not a valid timestamp"))
		return
	}
	to, err := parseTimeParam(c.Query("to"), true)
	if err != nil {
		response.Error(c, apperror.Validation("to is not a valid timestamp"))
		return
	}

	transactions, err := h.statementSvc.Statement(c.Request.Context(), account.ID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.StatementResponse{
		AccountID:    account.ID.String(),
		Transactions: make([]dto.TransactionResponse, 0, len(transactions)),
	}
	for _, txn := range transactions {
		resp.Transactions = append(resp.Transactions, toTransactionResponse(&txn))
	}
	response.OK(c, resp)
}

// IssueCard handles POST /api/v1/accounts/:id/cards.
func (h *AccountHandler) IssueCard(c *gin.Context) {
	account, ok := h.ownedAccount(c)
	if !ok {
		return
	}

	var req dto.IssueCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.cardSvc.Issue(c.Request.Context(), account.ID, ports.IssueCardRequest{
		Type: req.Type,
		PIN:  req.PIN,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.IssueCardResponse{
		Card: toCardResponse(result.Card),
		CVV:  result.CVV,
		PIN:  result.PIN,
	})
}

// ListCards handles GET /api/v1/accounts/:id/cards.
func (h *AccountHandler) ListCards(c *gin.Context) {
	account, ok := h.ownedAccount(c)
	if !ok {
		return
	}

	cards, err := h.cardSvc.List(c.Request.Context(), account.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := make([]dto.CardResponse, 0, len(cards))
	for _, card := range cards {
		resp = append(resp, toCardResponse(&card))
	}
	response.OK(c, resp)
}

// ownedAccount resolves the :id path param and enforces that the account
// belongs to the authenticated holder. On failure it writes the error
// response and returns false.
func (h *AccountHandler) ownedAccount(c *gin.Context) (*domain.Account, bool) {
	holderID, ok := holderFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return nil, false
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("id is not a valid uuid"))
		return nil, false
	}

	account, err := h.registry.Get(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if account.HolderID != holderID {
		response.Error(c, apperror.ErrForbidden())
		return nil, false
	}
	return account, true
}

// parseTimeParam parses an optional query bound. Plain dates expand to the
// start of the day, or the end of it for the upper bound.
func parseTimeParam(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// toAccountResponse converts domain.Account to DTO.
func toAccountResponse(account *domain.Account) dto.AccountResponse {
	resp := dto.AccountResponse{
		ID:        account.ID.String(),
		Number:    account.Number,
		Type:      string(account.Type),
		Balance:   account.Balance.StringFixed(2),
		Primary:   account.Primary,
		CreatedAt: account.CreatedAt.UTC().Format(time.RFC3339),
	}
	if account.ClosedAt != nil {
		closedAt := account.ClosedAt.UTC().Format(time.RFC3339)
		resp.ClosedAt = &closedAt
	}
	return resp
}

// toTransactionResponse converts domain.Transaction to DTO.
func toTransactionResponse(txn *domain.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:          txn.ID.String(),
		AccountID:   txn.AccountID.String(),
		TransferRef: txn.TransferRef.String(),
		Amount:      txn.Amount.StringFixed(2),
		Direction:   string(txn.Direction),
		Description: txn.Description,
		CreatedAt:   txn.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// toCardResponse converts domain.Card to DTO.
func toCardResponse(card *domain.Card) dto.CardResponse {
	return dto.CardResponse{
		ID:        card.ID.String(),
		AccountID: card.AccountID.String(),
		Number:    card.Number,
		Type:      string(card.Type),
		Active:    card.Active,
		ExpiresAt: card.ExpiresAt.UTC().Format(time.RFC3339),
		CreatedAt: card.CreatedAt.UTC().Format(time.RFC3339),
	}
}
