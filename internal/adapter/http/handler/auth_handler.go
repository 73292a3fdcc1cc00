package handler

import (
	"net/http"

	"bank-service/internal/adapter/http/dto"
	"bank-service/internal/adapter/http/middleware"
	"bank-service/internal/core/ports"
	"bank-service/pkg/apperror"
	"bank-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authSvc ports.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authSvc ports.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Signup handles POST /api/v1/auth/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	accounts := make([]ports.CreateAccountSpec, 0, len(req.Accounts))
	for _, spec := range req.Accounts {
		balance := decimal.Zero
		if spec.InitialBalance != "" {
			var err error
			balance, err = decimal.NewFromString(spec.InitialBalance)
			if err != nil {
				response.Error(c, apperror.Validation("initial_balance is not a valid decimal"))
				return
			}
		}
		accounts = append(accounts, ports.CreateAccountSpec{
			Type:           spec.Type,
			InitialBalance: balance,
			Primary:        spec.Primary,
		})
	}

	result, err := h.authSvc.Signup(c.Request.Context(), ports.SignupRequest{
		Name:     req.Name,
		Username: req.Username,
		Password: req.Password,
		Accounts: accounts,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.SignupResponse{
		HolderID: result.Holder.ID.String(),
		Name:     result.Holder.Name,
		Username: result.Holder.Username,
		Accounts: make([]dto.AccountResponse, 0, len(result.Accounts)),
	}
	for _, account := range result.Accounts {
		resp.Accounts = append(resp.Accounts, toAccountResponse(&account))
	}

	response.Created(c, resp)
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	token, expiry, err := h.authSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.LoginResponse{
		Token:  token,
		Expiry: expiry.Unix(),
	})
}

// holderFromContext returns the authenticated holder id set by JWTAuth.
func holderFromContext(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.CtxHolderID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// HealthCheck handles GET /health, a deep health check verifying all dependencies.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
