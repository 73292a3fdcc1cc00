package handler

import (
	"bank-service/internal/adapter/http/dto"
	"bank-service/internal/core/ports"
	"bank-service/pkg/apperror"
	"bank-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferHandler handles fund transfer endpoints.
type TransferHandler struct {
	engine   ports.TransferEngine
	registry ports.AccountRegistry
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(engine ports.TransferEngine, registry ports.AccountRegistry) *TransferHandler {
	return &TransferHandler{engine: engine, registry: registry}
}

// Transfer handles POST /api/v1/transfers. The source account must belong
// to the authenticated holder; the destination may belong to anyone.
func (h *TransferHandler) Transfer(c *gin.Context) {
	holderID, ok := holderFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	fromID, err := uuid.Parse(req.FromAccountID)
	if err != nil {
		response.Error(c, apperror.Validation("from_account_id is not a valid uuid"))
		return
	}
	toID, err := uuid.Parse(req.ToAccountID)
	if err != nil {
		response.Error(c, apperror.Validation("to_account_id is not a valid uuid"))
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.Error(c, apperror.Validation("amount is not a valid decimal"))
		return
	}

	from, err := h.registry.Get(c.Request.Context(), fromID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if from.HolderID != holderID {
		response.Error(c, apperror.ErrForbidden())
		return
	}

	result, err := h.engine.Transfer(c.Request.Context(), ports.TransferRequest{
		FromID:      fromID,
		ToID:        toID,
		Amount:      amount,
		Description: req.Description,
		ReferenceID: req.ReferenceID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(result))
}
