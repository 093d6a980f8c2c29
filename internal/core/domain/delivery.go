package domain

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus is the overall state of a webhook delivery.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "PENDING"
	DeliveryStatusRetrying  DeliveryStatus = "RETRYING"
	DeliveryStatusSuccess   DeliveryStatus = "SUCCESS"
	DeliveryStatusFailed    DeliveryStatus = "FAILED"
	DeliveryStatusCancelled DeliveryStatus = "CANCELLED"
)

// DefaultMaxBackoffSeconds caps the retry delay.
const DefaultMaxBackoffSeconds = 3600

// ErrorKind classifies why an attempt did not succeed.
type ErrorKind string

const (
	ErrorKindNone             ErrorKind = ""
	ErrorKindTimeout          ErrorKind = "TIMEOUT"
	ErrorKindNetwork          ErrorKind = "NETWORK"
	ErrorKindServerError      ErrorKind = "HTTP_5XX"
	ErrorKindClientError      ErrorKind = "HTTP_4XX"
	ErrorKindRateLimited      ErrorKind = "HTTP_429"
	ErrorKindUnexpectedStatus ErrorKind = "UNEXPECTED_STATUS"
)

// AttemptOutcome is the retry classification of a finished attempt.
type AttemptOutcome int

const (
	OutcomeSuccess AttemptOutcome = iota
	OutcomeRetryable
	OutcomePermanent
)

// ClassifyStatus maps an HTTP status code to an outcome.
func ClassifyStatus(statusCode int) (AttemptOutcome, ErrorKind) {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return OutcomeSuccess, ErrorKindNone
	case statusCode == http.StatusRequestTimeout:
		return OutcomeRetryable, ErrorKindTimeout
	case statusCode == http.StatusTooManyRequests:
		return OutcomeRetryable, ErrorKindRateLimited
	case statusCode >= 500:
		return OutcomeRetryable, ErrorKindServerError
	case statusCode >= 400:
		return OutcomePermanent, ErrorKindClientError
	default:
		return OutcomeRetryable, ErrorKindUnexpectedStatus
	}
}

// RequestSnapshot is what was sent for one attempt.
type RequestSnapshot struct {
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	Body      string            `json:"body"`
	Signature string            `json:"signature"`
}

// ResponseSnapshot is what came back for one attempt. Body is truncated to the
// configured cap.
type ResponseSnapshot struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body,omitempty"`
	Truncated  bool              `json:"truncated,omitempty"`
	LatencyMs  int64             `json:"latency_ms"`
}

// WebhookDeliveryAttempt is one HTTP round trip. It is immutable once
// CompletedAt is set.
type WebhookDeliveryAttempt struct {
	ID            uuid.UUID         `json:"id"`
	DeliveryID    uuid.UUID         `json:"delivery_id"`
	AttemptNumber int               `json:"attempt_number"`
	Request       RequestSnapshot   `json:"request"`
	Response      *ResponseSnapshot `json:"response,omitempty"`
	ErrorKind     ErrorKind         `json:"error_kind,omitempty"`
	ErrorMessage  *string           `json:"error_message,omitempty"`
	AttemptedAt   time.Time         `json:"attempted_at"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
}

// IsComplete returns true once the attempt has a result.
func (a *WebhookDeliveryAttempt) IsComplete() bool {
	return a.CompletedAt != nil
}

// Succeeded returns true for a completed 2xx attempt.
func (a *WebhookDeliveryAttempt) Succeeded() bool {
	return a.IsComplete() && a.Response != nil && a.ErrorKind == ErrorKindNone &&
		a.Response.StatusCode >= 200 && a.Response.StatusCode < 300
}

var (
	errAttemptInFlight   = errors.New("previous attempt not completed")
	errDeliveryTerminal  = errors.New("delivery is terminal")
	errNoAttemptInFlight = errors.New("no attempt in flight")
)

// WebhookDelivery is one logical notification for an (event, endpoint) pair.
// Invariant: Attempts[i].AttemptNumber == i+1.
type WebhookDelivery struct {
	ID                 uuid.UUID                `json:"id"`
	EndpointID         uuid.UUID                `json:"endpoint_id"`
	EventID            uuid.UUID                `json:"event_id"`
	EventType          string                   `json:"event_type"`
	CurrentAttempt     int                      `json:"current_attempt"`
	Status             DeliveryStatus           `json:"overall_status"`
	MaxAttempts        int                      `json:"max_attempts"`
	BaseBackoffSeconds int                      `json:"base_backoff_seconds"`
	BackoffMultiplier  float64                  `json:"backoff_multiplier"`
	NextRetryAt        *time.Time               `json:"next_retry_at,omitempty"`
	MaxAttemptsReached bool                     `json:"max_attempts_reached"`
	CircuitDeferrals   int                      `json:"circuit_deferrals"`
	FailureReason      *DeadLetterReason        `json:"failure_reason,omitempty"`
	LastError          *string                  `json:"last_error,omitempty"`
	CancelReason       *string                  `json:"cancel_reason,omitempty"`
	Attempts           []WebhookDeliveryAttempt `json:"attempts"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
	CompletedAt        *time.Time               `json:"completed_at,omitempty"`
}

// NewWebhookDelivery creates a pending delivery due at now.
func NewWebhookDelivery(event *DomainEvent, endpointID uuid.UUID, policy RetryPolicy, now time.Time) *WebhookDelivery {
	policy = policy.Normalize()
	due := now
	return &WebhookDelivery{
		ID:                 uuid.New(),
		EndpointID:         endpointID,
		EventID:            event.ID,
		EventType:          event.EventType,
		CurrentAttempt:     1,
		Status:             DeliveryStatusPending,
		MaxAttempts:        policy.MaxAttempts,
		BaseBackoffSeconds: policy.BaseBackoffSeconds,
		BackoffMultiplier:  policy.BackoffMultiplier,
		NextRetryAt:        &due,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// HoldUntil moves the next retry of a non-terminal delivery to t.
func (d *WebhookDelivery) HoldUntil(t time.Time) {
	if d.IsTerminal() {
		return
	}
	at := t
	d.NextRetryAt = &at
}

// AttemptCount returns the number of attempts made.
func (d *WebhookDelivery) AttemptCount() int {
	return len(d.Attempts)
}

// IsTerminal returns true for SUCCESS, CANCELLED and FAILED.
func (d *WebhookDelivery) IsTerminal() bool {
	switch d.Status {
	case DeliveryStatusSuccess, DeliveryStatusCancelled, DeliveryStatusFailed:
		return true
	}
	return false
}

// CanRetry returns true if another attempt is allowed.
func (d *WebhookDelivery) CanRetry() bool {
	return !d.IsTerminal() && d.AttemptCount() < d.MaxAttempts
}

// LatestAttempt returns the most recent attempt or nil.
func (d *WebhookDelivery) LatestAttempt() *WebhookDeliveryAttempt {
	if len(d.Attempts) == 0 {
		return nil
	}
	return &d.Attempts[len(d.Attempts)-1]
}

// StartAttempt appends a new in-flight attempt numbered after the previous one.
func (d *WebhookDelivery) StartAttempt(req RequestSnapshot, now time.Time) (*WebhookDeliveryAttempt, error) {
	if d.IsTerminal() {
		return nil, errDeliveryTerminal
	}
	if last := d.LatestAttempt(); last != nil && !last.IsComplete() {
		return nil, errAttemptInFlight
	}
	number := len(d.Attempts) + 1
	d.Attempts = append(d.Attempts, WebhookDeliveryAttempt{
		ID:            uuid.New(),
		DeliveryID:    d.ID,
		AttemptNumber: number,
		Request:       req,
		AttemptedAt:   now,
	})
	d.CurrentAttempt = number
	d.UpdatedAt = now
	return &d.Attempts[len(d.Attempts)-1], nil
}

// CompleteAttempt records the result of the in-flight attempt.
func (d *WebhookDelivery) CompleteAttempt(resp *ResponseSnapshot, kind ErrorKind, errMsg string, now time.Time) (*WebhookDeliveryAttempt, error) {
	last := d.LatestAttempt()
	if last == nil || last.IsComplete() {
		return nil, errNoAttemptInFlight
	}
	completed := now
	last.Response = resp
	last.ErrorKind = kind
	if errMsg != "" {
		msg := errMsg
		last.ErrorMessage = &msg
		d.LastError = &msg
	}
	last.CompletedAt = &completed
	d.UpdatedAt = now
	return last, nil
}

// ApplyOutcome moves the delivery to the state implied by the latest attempt.
// It returns the dead letter reason when the delivery became FAILED.
func (d *WebhookDelivery) ApplyOutcome(outcome AttemptOutcome, permanentReason DeadLetterReason, now time.Time, maxBackoffSeconds int) (DeadLetterReason, bool) {
	switch outcome {
	case OutcomeSuccess:
		completed := now
		d.Status = DeliveryStatusSuccess
		d.NextRetryAt = nil
		d.LastError = nil
		d.CompletedAt = &completed
		d.UpdatedAt = now
		return "", false
	case OutcomePermanent:
		d.Fail(permanentReason, now)
		return permanentReason, true
	}
	if !d.CanRetry() {
		d.Fail(ReasonMaxRetriesExceeded, now)
		return ReasonMaxRetriesExceeded, true
	}
	n := d.AttemptCount()
	next := now.Add(BackoffDelay(n, d.BaseBackoffSeconds, d.BackoffMultiplier, maxBackoffSeconds))
	d.Status = DeliveryStatusRetrying
	d.NextRetryAt = &next
	d.CurrentAttempt = n + 1
	d.UpdatedAt = now
	return "", false
}

// Fail marks the delivery terminally failed. Ownership passes to the dead
// letter queue.
func (d *WebhookDelivery) Fail(reason DeadLetterReason, now time.Time) {
	completed := now
	r := reason
	d.Status = DeliveryStatusFailed
	d.MaxAttemptsReached = true
	d.NextRetryAt = nil
	d.FailureReason = &r
	d.CompletedAt = &completed
	d.UpdatedAt = now
}

// Defer postpones the delivery after a circuit breaker rejection without
// consuming an attempt.
func (d *WebhookDelivery) Defer(retryAfter time.Duration, now time.Time) {
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	next := now.Add(retryAfter)
	d.CircuitDeferrals++
	d.Status = DeliveryStatusRetrying
	d.NextRetryAt = &next
	d.UpdatedAt = now
}

// Cancel halts retries. It returns false when the delivery already succeeded
// or was already cancelled.
func (d *WebhookDelivery) Cancel(reason string, now time.Time) bool {
	if d.Status == DeliveryStatusSuccess || d.Status == DeliveryStatusCancelled {
		return false
	}
	r := reason
	completed := now
	d.Status = DeliveryStatusCancelled
	d.NextRetryAt = nil
	d.CancelReason = &r
	d.CompletedAt = &completed
	d.UpdatedAt = now
	return true
}

// ResetForReplay puts a failed delivery back to a fresh pending state,
// optionally pointing it at another endpoint. Attempt history is dropped; the
// dead letter entry keeps the snapshot.
func (d *WebhookDelivery) ResetForReplay(endpointID *uuid.UUID, now time.Time) {
	if endpointID != nil {
		d.EndpointID = *endpointID
	}
	due := now
	d.Attempts = nil
	d.CurrentAttempt = 1
	d.Status = DeliveryStatusPending
	d.MaxAttemptsReached = false
	d.NextRetryAt = &due
	d.CircuitDeferrals = 0
	d.FailureReason = nil
	d.LastError = nil
	d.CancelReason = nil
	d.CompletedAt = nil
	d.UpdatedAt = now
}

// BackoffDelay returns min(base * multiplier^(attempt-1), cap) seconds,
// truncated to whole seconds.
func BackoffDelay(attempt, baseSeconds int, multiplier float64, capSeconds int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if capSeconds <= 0 {
		capSeconds = DefaultMaxBackoffSeconds
	}
	raw := float64(baseSeconds) * math.Pow(multiplier, float64(attempt-1))
	if math.IsNaN(raw) || math.IsInf(raw, 0) || raw >= float64(capSeconds) {
		return time.Duration(capSeconds) * time.Second
	}
	if raw < 0 {
		return 0
	}
	return time.Duration(int64(raw)) * time.Second
}
