package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeadLetterReason is why a delivery was dead-lettered.
type DeadLetterReason string

const (
	ReasonMaxRetriesExceeded      DeadLetterReason = "MAX_RETRIES_EXCEEDED"
	ReasonCircuitBreakerPermanent DeadLetterReason = "CIRCUIT_BREAKER_PERMANENT"
	ReasonEndpointDisabled        DeadLetterReason = "ENDPOINT_DISABLED"
	ReasonEndpointDeleted         DeadLetterReason = "ENDPOINT_DELETED"
	ReasonPermanent4xx            DeadLetterReason = "PERMANENT_4XX"
	ReasonSecurityViolation       DeadLetterReason = "SECURITY_VIOLATION"
	ReasonConfigurationError      DeadLetterReason = "CONFIGURATION_ERROR"
	ReasonManual                  DeadLetterReason = "MANUAL"
)

// DeadLetterAction is what the reaper does with an unprocessed entry.
type DeadLetterAction string

const (
	ActionArchive      DeadLetterAction = "ARCHIVE"
	ActionDelete       DeadLetterAction = "DELETE"
	ActionManualReview DeadLetterAction = "MANUAL_REVIEW"
)

// MaxRecoveryAttempts caps manual replays of one entry.
const MaxRecoveryAttempts = 3

// DefaultActionFor is the deterministic reason → action table.
func DefaultActionFor(reason DeadLetterReason) DeadLetterAction {
	switch reason {
	case ReasonEndpointDeleted:
		return ActionDelete
	case ReasonEndpointDisabled, ReasonPermanent4xx, ReasonManual:
		return ActionArchive
	default:
		// max retries, circuit permanent, security and configuration
		// failures all need a human.
		return ActionManualReview
	}
}

// AttemptSummary is the history snapshot kept with a dead letter entry.
type AttemptSummary struct {
	AttemptNumber int        `json:"attempt_number"`
	StatusCode    *int       `json:"status_code,omitempty"`
	ErrorKind     ErrorKind  `json:"error_kind,omitempty"`
	ErrorMessage  *string    `json:"error_message,omitempty"`
	LatencyMs     int64      `json:"latency_ms"`
	AttemptedAt   time.Time  `json:"attempted_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// DeadLetterEntry holds a delivery that cannot succeed automatically.
type DeadLetterEntry struct {
	ID                   uuid.UUID         `json:"id"`
	DeliveryID           uuid.UUID         `json:"delivery_id"`
	EventID              uuid.UUID         `json:"event_id"`
	EndpointID           uuid.UUID         `json:"endpoint_id"`
	EventType            string            `json:"event_type"`
	Reason               DeadLetterReason  `json:"reason"`
	FailureSummary       string            `json:"failure_summary"`
	ErrorDetails         map[string]any    `json:"error_details,omitempty"`
	LastHTTPStatus       *int              `json:"last_http_status,omitempty"`
	AttemptCount         int               `json:"attempt_count"`
	RetryHistory         []AttemptSummary  `json:"retry_history"`
	EventSnapshot        map[string]any    `json:"event_snapshot,omitempty"`
	ExpiresAt            time.Time         `json:"expires_at"`
	IsProcessed          bool              `json:"is_processed"`
	ProcessedAt          *time.Time        `json:"processed_at,omitempty"`
	Action               *DeadLetterAction `json:"action,omitempty"`
	RequiresManualReview bool              `json:"requires_manual_review"`
	ArchivedAt           *time.Time        `json:"archived_at,omitempty"`
	RecoveryAttempts     int               `json:"recovery_attempts"`
	LastRecoveryAt       *time.Time        `json:"last_recovery_at,omitempty"`
	RedirectedEndpointID *uuid.UUID        `json:"redirected_endpoint_id,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// NewDeadLetterEntry snapshots a failed delivery.
func NewDeadLetterEntry(d *WebhookDelivery, reason DeadLetterReason, summary string, retention time.Duration, now time.Time) *DeadLetterEntry {
	history := make([]AttemptSummary, 0, len(d.Attempts))
	var lastStatus *int
	for _, a := range d.Attempts {
		s := AttemptSummary{
			AttemptNumber: a.AttemptNumber,
			ErrorKind:     a.ErrorKind,
			ErrorMessage:  a.ErrorMessage,
			AttemptedAt:   a.AttemptedAt,
			CompletedAt:   a.CompletedAt,
		}
		if a.Response != nil {
			code := a.Response.StatusCode
			s.StatusCode = &code
			s.LatencyMs = a.Response.LatencyMs
			lastStatus = &code
		}
		history = append(history, s)
	}
	return &DeadLetterEntry{
		ID:             uuid.New(),
		DeliveryID:     d.ID,
		EventID:        d.EventID,
		EndpointID:     d.EndpointID,
		EventType:      d.EventType,
		Reason:         reason,
		FailureSummary: summary,
		LastHTTPStatus: lastStatus,
		AttemptCount:   len(d.Attempts),
		RetryHistory:   history,
		ExpiresAt:      now.Add(retention),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsExpired returns true once ExpiresAt has passed.
func (e *DeadLetterEntry) IsExpired(now time.Time) bool {
	return e.ExpiresAt.Before(now)
}

// CanRecover returns true while replays remain.
func (e *DeadLetterEntry) CanRecover() bool {
	return e.RecoveryAttempts < MaxRecoveryAttempts
}

// MarkProcessed records the reaper decision.
func (e *DeadLetterEntry) MarkProcessed(action DeadLetterAction, now time.Time) {
	a := action
	processed := now
	e.IsProcessed = true
	e.ProcessedAt = &processed
	e.Action = &a
	switch action {
	case ActionManualReview:
		e.RequiresManualReview = true
	case ActionArchive:
		e.ArchivedAt = &processed
	}
	e.UpdatedAt = now
}

// RecordRecovery counts a manual replay.
func (e *DeadLetterEntry) RecordRecovery(endpointID *uuid.UUID, now time.Time) error {
	if !e.CanRecover() {
		return ErrRecoveryLimitReached
	}
	at := now
	e.RecoveryAttempts++
	e.LastRecoveryAt = &at
	e.RedirectedEndpointID = endpointID
	e.UpdatedAt = now
	return nil
}
