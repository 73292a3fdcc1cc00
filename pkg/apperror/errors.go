package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// Stable error codes. Callers branch on these, never on message text.
const (
	CodeValidation          = "ACC_001"
	CodeAccountNotFound     = "ACC_002"
	CodeAccountClosed       = "ACC_003"
	CodeSameAccountTransfer = "TRF_001"
	CodeInvalidAmount       = "TRF_002"
	CodeInsufficientFunds   = "TRF_003"
	CodeInvalidCredentials  = "AUTH_001"
	CodeUsernameExists      = "AUTH_002"
	CodeInvalidToken        = "AUTH_003"
	CodeForbidden           = "AUTH_004"
	CodeRateLimitExceeded   = "RATE_001"
	CodeStorageFailure      = "SYS_001"
	CodeLockTimeout         = "SYS_002"
)

// ---- Account Management (ACC) ----

// Validation returns a malformed-input error. It never reflects a state change.
func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

func ErrAccountNotFound(accountID string) *AppError {
	return New(CodeAccountNotFound, fmt.Sprintf("Account %s not found", accountID), http.StatusNotFound)
}

func ErrAccountClosed(accountID string) *AppError {
	return New(CodeAccountClosed, fmt.Sprintf("Account %s is closed", accountID), http.StatusConflict)
}

// ---- Transfer Business Logic (TRF) ----

func ErrSameAccountTransfer() *AppError {
	return New(CodeSameAccountTransfer, "Cannot transfer to the same account", http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New(CodeInvalidAmount, "Transfer amount must be positive", http.StatusBadRequest)
}

func ErrInsufficientFunds() *AppError {
	return New(CodeInsufficientFunds, "Insufficient balance in source account", http.StatusPaymentRequired)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New(CodeInvalidCredentials, "Invalid credentials", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New(CodeUsernameExists, "Username already exists", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New(CodeInvalidToken, "Invalid or expired token", http.StatusUnauthorized)
}

func ErrForbidden() *AppError {
	return New(CodeForbidden, "Account does not belong to the authenticated holder", http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New(CodeRateLimitExceeded, "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// ErrStorage wraps a durable-write failure. The ledger rolls back any
// already-applied leg before surfacing it.
func ErrStorage(err error) *AppError {
	return Wrap(CodeStorageFailure, "Internal storage error", http.StatusInternalServerError, err)
}

func ErrLockTimeout(err error) *AppError {
	return Wrap(CodeLockTimeout, "Lock acquisition timeout", http.StatusServiceUnavailable, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(CodeStorageFailure, "Internal server error", http.StatusInternalServerError, err)
}
