package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"webhook-dispatcher/internal/core/domain"

	json "github.com/goccy/go-json"
)

// Headers set on every webhook request.
const (
	HeaderWebhookID        = "X-Webhook-Id"
	HeaderWebhookTimestamp = "X-Webhook-Timestamp"
	HeaderWebhookEvent     = "X-Webhook-Event"
	HeaderWebhookAttempt   = "X-Webhook-Attempt"
	HeaderTenantID         = "X-Tenant-ID"

	DefaultUserAgent = "webhook-dispatcher/1.0"
)

// WebhookPayload is the JSON body sent to endpoints.
type WebhookPayload struct {
	DeliveryID    string         `json:"delivery_id"`
	EventID       string         `json:"event_id"`
	EventType     string         `json:"event_type"`
	AggregateType string         `json:"aggregate_type,omitempty"`
	AggregateID   string         `json:"aggregate_id,omitempty"`
	ContextID     string         `json:"context_id,omitempty"`
	CorrelationID *string        `json:"correlation_id,omitempty"`
	CausationID   *string        `json:"causation_id,omitempty"`
	OccurredAt    time.Time      `json:"occurred_at"`
	Data          map[string]any `json:"data"`
}

// SignedRequest is a ready-to-send webhook request.
type SignedRequest struct {
	Method    string
	URL       string
	Headers   map[string]string
	Body      []byte
	Signature string
}

// Snapshot converts the request into the form stored with an attempt.
func (r *SignedRequest) Snapshot() domain.RequestSnapshot {
	headers := make(map[string]string, len(r.Headers))
	for k, v := range r.Headers {
		headers[k] = v
	}
	return domain.RequestSnapshot{
		URL:       r.URL,
		Method:    r.Method,
		Headers:   headers,
		Body:      string(r.Body),
		Signature: r.Signature,
	}
}

// HMACSignatureService builds HMAC-SHA256 signed webhook requests.
type HMACSignatureService struct {
	userAgent    string
	requireHTTPS bool
	now          func() time.Time
}

// NewHMACSignatureService creates a new request signer.
func NewHMACSignatureService(userAgent string, requireHTTPS bool) *HMACSignatureService {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HMACSignatureService{
		userAgent:    userAgent,
		requireHTTPS: requireHTTPS,
		now:          time.Now,
	}
}

// Sign computes HMAC-SHA256 of payload using secretKey.
// Returns lowercase hex-encoded signature.
func (s *HMACSignatureService) Sign(secretKey string, payload string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks if signature matches HMAC-SHA256(secretKey, payload).
// Uses constant-time comparison to prevent timing attacks.
func (s *HMACSignatureService) Verify(secretKey string, payload string, signature string) bool {
	expected := s.Sign(secretKey, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// BuildCanonicalString constructs the signed payload.
// Format: TIMESTAMP.BODY
func (s *HMACSignatureService) BuildCanonicalString(timestamp int64, body []byte) string {
	return strconv.FormatInt(timestamp, 10) + "." + string(body)
}

// FormatSignatureHeader renders the signature header value.
func FormatSignatureHeader(timestamp int64, signature string) string {
	return fmt.Sprintf("t=%d,v1=%s", timestamp, signature)
}

// ParseSignatureHeader splits a signature header value into its parts.
func ParseSignatureHeader(value string) (int64, string, error) {
	var ts int64
	var sig string
	for _, part := range strings.Split(value, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, "", fmt.Errorf("parse signature timestamp: %w", err)
			}
			ts = n
		case "v1":
			sig = v
		}
	}
	if ts == 0 || sig == "" {
		return 0, "", fmt.Errorf("malformed signature header")
	}
	return ts, sig, nil
}

// ValidateURL rejects targets that must never be called.
func (s *HMACSignatureService) ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: parse url: %v", domain.ErrSecurityViolation, err)
	}
	switch u.Scheme {
	case "https":
	case "http":
		if s.requireHTTPS {
			return fmt.Errorf("%w: plain http not allowed", domain.ErrSecurityViolation)
		}
	default:
		return fmt.Errorf("%w: unsupported scheme %q", domain.ErrSecurityViolation, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", domain.ErrSecurityViolation)
	}
	if u.User != nil {
		return fmt.Errorf("%w: credentials in url", domain.ErrSecurityViolation)
	}
	return nil
}

// BuildRequest builds the signed request for the next attempt of d.
func (s *HMACSignatureService) BuildRequest(d *domain.WebhookDelivery, event *domain.DomainEvent, endpoint *domain.WebhookEndpoint, secret string) (*SignedRequest, error) {
	if err := s.ValidateURL(endpoint.URL); err != nil {
		return nil, err
	}

	body, err := json.Marshal(WebhookPayload{
		DeliveryID:    d.ID.String(),
		EventID:       event.ID.String(),
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		ContextID:     event.ContextKey(),
		CorrelationID: event.CorrelationID,
		CausationID:   event.CausationID,
		OccurredAt:    event.OccurredAt,
		Data:          event.Payload,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal webhook payload: %w", err)
	}

	ts := s.now().Unix()
	signature := s.Sign(secret, s.BuildCanonicalString(ts, body))

	headers := make(map[string]string, len(endpoint.Headers)+8)
	for k, v := range endpoint.Headers {
		headers[http.CanonicalHeaderKey(k)] = v
	}
	headers["Content-Type"] = "application/json"
	headers["User-Agent"] = s.userAgent
	headers[HeaderWebhookID] = d.ID.String()
	headers[HeaderWebhookTimestamp] = strconv.FormatInt(ts, 10)
	headers[HeaderWebhookEvent] = event.EventType
	headers[HeaderWebhookAttempt] = strconv.Itoa(d.AttemptCount() + 1)
	if event.ContextID != nil {
		headers[HeaderTenantID] = event.ContextID.String()
	}
	headers[http.CanonicalHeaderKey(endpoint.SignatureHeaderName())] = FormatSignatureHeader(ts, signature)

	return &SignedRequest{
		Method:    endpoint.HTTPMethod(),
		URL:       endpoint.URL,
		Headers:   headers,
		Body:      body,
		Signature: signature,
	}, nil
}
