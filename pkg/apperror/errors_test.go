package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("DLV_001", "Delivery not found", http.StatusNotFound),
			expected: "[DLV_001] Delivery not found",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("DLV_001", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestDeliveryErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"DeliveryNotFound", ErrDeliveryNotFound(), "DLV_001", 404},
		{"DeliveryNotReplayable", ErrDeliveryNotReplayable("SUCCESS"), "DLV_002", 409},
		{"EndpointNotFound", ErrEndpointNotFound(), "DLV_003", 404},
		{"DeliveryExists", ErrDeliveryExists(), "DLV_004", 409},
		{"DeadLetterNotFound", ErrDeadLetterNotFound(), "DLQ_001", 404},
		{"RecoveryLimitReached", ErrRecoveryLimitReached(), "DLQ_002", 409},
		{"CircuitNotFound", ErrCircuitNotFound(), "CB_001", 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestAuthErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InvalidToken", ErrInvalidToken(), "AUTH_002", 401},
		{"Forbidden", ErrForbidden(), "AUTH_003", 403},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestSystemErrors(t *testing.T) {
	inner := fmt.Errorf("pg: connection closed")
	dbErr := ErrDatabaseError(inner)
	assert.Equal(t, "SYS_001", dbErr.Code)
	assert.Equal(t, 500, dbErr.HTTPStatus)
	assert.True(t, errors.Is(dbErr, inner))

	cacheErr := ErrCacheUnavailable(inner)
	assert.Equal(t, "SYS_002", cacheErr.Code)
	assert.Equal(t, 503, cacheErr.HTTPStatus)
}

func TestRateLimitError(t *testing.T) {
	err := ErrRateLimitExceeded()
	assert.Equal(t, "RATE_001", err.Code)
	assert.Equal(t, 429, err.HTTPStatus)
}

func TestValidation(t *testing.T) {
	err := Validation("limit must be positive")
	assert.Equal(t, "VAL_001", err.Code)
	assert.Equal(t, "limit must be positive", err.Message)
	assert.Equal(t, 400, err.HTTPStatus)
}
