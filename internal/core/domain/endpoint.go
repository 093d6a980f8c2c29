package domain

import (
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Retry policy bounds.
const (
	MinMaxAttempts       = 1
	MaxMaxAttempts       = 10
	MinBackoffMultiplier = 1.0
	MaxBackoffMultiplier = 5.0

	DefaultSignatureHeader = "X-Webhook-Signature"
)

// WebhookEndpoint is an externally registered delivery target. Endpoint
// management owns it; the delivery path only updates LastUsedAt.
type WebhookEndpoint struct {
	ID                 uuid.UUID         `json:"id"`
	ContextID          *uuid.UUID        `json:"context_id,omitempty"`
	URL                string            `json:"url"`
	Method             string            `json:"method"`
	SecretEnc          string            `json:"-"` // AES-GCM, never expose
	SignatureHeader    string            `json:"signature_header"`
	Headers            map[string]string `json:"headers,omitempty"`
	TimeoutSeconds     int               `json:"timeout_seconds"`
	IsActive           bool              `json:"is_active"`
	IsVerified         bool              `json:"is_verified"`
	MaxAttempts        *int              `json:"max_attempts,omitempty"`
	BaseBackoffSeconds *int              `json:"base_backoff_seconds,omitempty"`
	BackoffMultiplier  *float64          `json:"backoff_multiplier,omitempty"`
	RateLimitPerSecond float64           `json:"rate_limit_per_second"`
	LastUsedAt         *time.Time        `json:"last_used_at,omitempty"`
	DeletedAt          *time.Time        `json:"deleted_at,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// RetryPolicy is the resolved retry configuration for one delivery.
type RetryPolicy struct {
	MaxAttempts        int
	BaseBackoffSeconds int
	BackoffMultiplier  float64
}

// Normalize clamps the policy to the legal ranges.
func (p RetryPolicy) Normalize() RetryPolicy {
	if p.MaxAttempts < MinMaxAttempts {
		p.MaxAttempts = MinMaxAttempts
	}
	if p.MaxAttempts > MaxMaxAttempts {
		p.MaxAttempts = MaxMaxAttempts
	}
	if p.BaseBackoffSeconds < 0 {
		p.BaseBackoffSeconds = 0
	}
	if math.IsNaN(p.BackoffMultiplier) || p.BackoffMultiplier < MinBackoffMultiplier {
		p.BackoffMultiplier = MinBackoffMultiplier
	}
	if p.BackoffMultiplier > MaxBackoffMultiplier {
		p.BackoffMultiplier = MaxBackoffMultiplier
	}
	return p
}

// RetryPolicy resolves the endpoint overrides on top of defaults.
func (e *WebhookEndpoint) RetryPolicy(defaults RetryPolicy) RetryPolicy {
	p := defaults
	if e.MaxAttempts != nil {
		p.MaxAttempts = *e.MaxAttempts
	}
	if e.BaseBackoffSeconds != nil {
		p.BaseBackoffSeconds = *e.BaseBackoffSeconds
	}
	if e.BackoffMultiplier != nil {
		p.BackoffMultiplier = *e.BackoffMultiplier
	}
	return p.Normalize()
}

// IsDeleted returns true if endpoint management soft-deleted the endpoint.
func (e *WebhookEndpoint) IsDeleted() bool {
	return e.DeletedAt != nil
}

// CanReceive returns true if deliveries may be sent to the endpoint.
func (e *WebhookEndpoint) CanReceive() bool {
	return e.IsActive && !e.IsDeleted()
}

// HTTPMethod returns the configured method, POST when unset.
func (e *WebhookEndpoint) HTTPMethod() string {
	if e.Method == "" {
		return http.MethodPost
	}
	return e.Method
}

// SignatureHeaderName returns the configured signature header.
func (e *WebhookEndpoint) SignatureHeaderName() string {
	if e.SignatureHeader == "" {
		return DefaultSignatureHeader
	}
	return e.SignatureHeader
}

// Timeout returns min(endpoint timeout, global) with the global value used
// when the endpoint has none.
func (e *WebhookEndpoint) Timeout(global time.Duration) time.Duration {
	if e.TimeoutSeconds <= 0 {
		return global
	}
	own := time.Duration(e.TimeoutSeconds) * time.Second
	if global > 0 && global < own {
		return global
	}
	return own
}
