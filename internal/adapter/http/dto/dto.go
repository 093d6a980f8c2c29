package dto

import (
	"webhook-dispatcher/internal/core/domain"
)

// Dispatch modes accepted by the trigger endpoint.
const (
	ModeBatch          = "batch"
	ModeStream         = "stream"
	ModeHighThroughput = "high_throughput"
)

// DispatchRequest is the request body for a manual dispatch pass. Zero values
// fall back to the configured defaults.
type DispatchRequest struct {
	Mode                 string `json:"mode" binding:"omitempty,oneof=batch stream high_throughput"`
	Limit                int    `json:"limit" binding:"omitempty,min=1,max=10000"`
	BatchSize            int    `json:"batch_size" binding:"omitempty,min=1,max=1000"`
	MaxConcurrentBatches int    `json:"max_concurrent_batches" binding:"omitempty,min=1,max=64"`
}

// DispatchResponse reports one manual dispatch pass.
type DispatchResponse struct {
	Mode       string `json:"mode"`
	Processed  int    `json:"processed"`
	DurationMs int64  `json:"duration_ms"`
}

// CancelDeliveryRequest is the request body for cancelling a delivery.
type CancelDeliveryRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// RetryScanRequest bounds a manual retry scan.
type RetryScanRequest struct {
	Limit int `json:"limit" binding:"omitempty,min=1,max=1000"`
}

// ProcessDeadLettersRequest bounds a manual reaper pass.
type ProcessDeadLettersRequest struct {
	BatchSize int `json:"batch_size" binding:"omitempty,min=1,max=1000"`
}

// RetryDeadLetterRequest replays a dead-lettered delivery, optionally against
// another endpoint.
type RetryDeadLetterRequest struct {
	NewEndpointID *string `json:"new_endpoint_id,omitempty" binding:"omitempty,uuid"`
}

// DeadLetterListQuery is the query string of the dead letter listing.
type DeadLetterListQuery struct {
	Reason           string `form:"reason" binding:"omitempty,dead_letter_reason"`
	EndpointID       string `form:"endpoint_id" binding:"omitempty,uuid"`
	IncludeProcessed bool   `form:"include_processed"`
	Page             int    `form:"page" binding:"omitempty,min=1"`
	PageSize         int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// CircuitResponse is one endpoint's breaker snapshot.
type CircuitResponse struct {
	domain.CircuitBreakerStats
	FailureRate float64 `json:"failure_rate"`
}

// NewCircuitResponse wraps stats with the derived failure rate.
func NewCircuitResponse(s domain.CircuitBreakerStats) CircuitResponse {
	return CircuitResponse{CircuitBreakerStats: s, FailureRate: s.FailureRate()}
}

// CircuitResetResponse reports whether a breaker existed to reset.
type CircuitResetResponse struct {
	EndpointID string `json:"endpoint_id"`
	Reset      bool   `json:"reset"`
}

// CircuitStateResponse is returned after forcing a breaker state.
type CircuitStateResponse struct {
	EndpointID string              `json:"endpoint_id"`
	State      domain.CircuitState `json:"state"`
}

// CountResponse reports how many rows or keys an operation removed.
type CountResponse struct {
	Removed int64 `json:"removed"`
}
