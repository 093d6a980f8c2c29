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

// ---- Deliveries (DLV) ----

func ErrDeliveryNotFound() *AppError {
	return New("DLV_001", "Delivery not found", http.StatusNotFound)
}

func ErrDeliveryNotReplayable(status string) *AppError {
	return New("DLV_002", fmt.Sprintf("Delivery in status %s cannot be replayed", status), http.StatusConflict)
}

func ErrEndpointNotFound() *AppError {
	return New("DLV_003", "Endpoint not found", http.StatusNotFound)
}

func ErrDeliveryExists() *AppError {
	return New("DLV_004", "Endpoint already has a delivery for this event", http.StatusConflict)
}

// ---- Dead Letter Queue (DLQ) ----

func ErrDeadLetterNotFound() *AppError {
	return New("DLQ_001", "Dead letter entry not found", http.StatusNotFound)
}

func ErrRecoveryLimitReached() *AppError {
	return New("DLQ_002", "Dead letter recovery limit reached", http.StatusConflict)
}

// ---- Circuit Breakers (CB) ----

func ErrCircuitNotFound() *AppError {
	return New("CB_001", "No circuit breaker tracked for endpoint", http.StatusNotFound)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_002", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrForbidden() *AppError {
	return New("AUTH_003", "Operator role required", http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrCacheUnavailable(err error) *AppError {
	return Wrap("SYS_002", "Cache unavailable", http.StatusServiceUnavailable, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// ---- Validation (VAL) ----

// Validation returns a VAL_001 request validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
