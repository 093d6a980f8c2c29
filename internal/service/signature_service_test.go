package service

import (
	"errors"
	"testing"
	"time"

	"webhook-dispatcher/internal/core/domain"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSigner(requireHTTPS bool) *HMACSignatureService {
	svc := NewHMACSignatureService("test-agent/1.0", requireHTTPS)
	svc.now = func() time.Time { return time.Unix(1708092000, 0) }
	return svc
}

func TestHMACSignatureService_SignAndVerify(t *testing.T) {
	svc := newTestSigner(false)
	secretKey := "my-secret-key"
	payload := svc.BuildCanonicalString(1708092000, []byte(`{"amount":50000}`))

	signature := svc.Sign(secretKey, payload)

	assert.Regexp(t, `^[0-9a-f]{64}$`, signature, "signature should be 64-char lowercase hex (SHA-256)")
	assert.True(t, svc.Verify(secretKey, payload, signature))
	assert.False(t, svc.Verify("wrong-key", payload, signature))
	assert.False(t, svc.Verify(secretKey, "tampered", signature))
}

func TestHMACSignatureService_BuildCanonicalString(t *testing.T) {
	svc := newTestSigner(false)
	assert.Equal(t, `1708092000.{"a":1}`, svc.BuildCanonicalString(1708092000, []byte(`{"a":1}`)))
}

func TestSignatureHeader_RoundTrip(t *testing.T) {
	value := FormatSignatureHeader(1708092000, "abc123")
	assert.Equal(t, "t=1708092000,v1=abc123", value)

	ts, sig, err := ParseSignatureHeader(value)
	require.NoError(t, err)
	assert.Equal(t, int64(1708092000), ts)
	assert.Equal(t, "abc123", sig)

	_, _, err = ParseSignatureHeader("garbage")
	assert.Error(t, err)
}

func TestHMACSignatureService_ValidateURL(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		requireHTTPS bool
		wantErr      bool
	}{
		{"https ok", "https://hooks.example.com/in", true, false},
		{"http allowed", "http://hooks.example.com/in", false, false},
		{"http refused", "http://hooks.example.com/in", true, true},
		{"ftp refused", "ftp://hooks.example.com/in", false, true},
		{"no host", "https:///path", false, true},
		{"userinfo refused", "https://user:pw@hooks.example.com", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newTestSigner(tt.requireHTTPS).ValidateURL(tt.url)
			if tt.wantErr {
				assert.True(t, errors.Is(err, domain.ErrSecurityViolation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHMACSignatureService_BuildRequest(t *testing.T) {
	svc := newTestSigner(true)
	tenant := uuid.New()
	event := &domain.DomainEvent{
		ID:         uuid.New(),
		EventType:  "order.created",
		Payload:    map[string]any{"order_id": "A-1"},
		ContextID:  &tenant,
		OccurredAt: time.Unix(1708091000, 0).UTC(),
	}
	endpoint := &domain.WebhookEndpoint{
		ID:              uuid.New(),
		URL:             "https://hooks.example.com/in",
		SignatureHeader: "X-Acme-Signature",
		Headers:         map[string]string{"x-custom": "1", "Content-Type": "text/plain"},
	}
	d := domain.NewWebhookDelivery(event, endpoint.ID, domain.RetryPolicy{MaxAttempts: 3, BaseBackoffSeconds: 60, BackoffMultiplier: 2}, time.Now())

	req, err := svc.BuildRequest(d, event, endpoint, "whsec_test")
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "application/json", req.Headers["Content-Type"])
	assert.Equal(t, "test-agent/1.0", req.Headers["User-Agent"])
	assert.Equal(t, "1", req.Headers["X-Custom"])
	assert.Equal(t, d.ID.String(), req.Headers[HeaderWebhookID])
	assert.Equal(t, "1", req.Headers[HeaderWebhookAttempt])
	assert.Equal(t, tenant.String(), req.Headers[HeaderTenantID])
	assert.Equal(t, "order.created", req.Headers[HeaderWebhookEvent])

	ts, sig, err := ParseSignatureHeader(req.Headers["X-Acme-Signature"])
	require.NoError(t, err)
	assert.Equal(t, int64(1708092000), ts)
	assert.Equal(t, req.Signature, sig)
	assert.True(t, svc.Verify("whsec_test", svc.BuildCanonicalString(ts, req.Body), sig))

	var body WebhookPayload
	require.NoError(t, json.Unmarshal(req.Body, &body))
	assert.Equal(t, event.ID.String(), body.EventID)
	assert.Equal(t, "A-1", body.Data["order_id"])

	snap := req.Snapshot()
	assert.Equal(t, string(req.Body), snap.Body)
	assert.Equal(t, req.Signature, snap.Signature)
}

func TestHMACSignatureService_BuildRequest_RejectsInsecureURL(t *testing.T) {
	svc := newTestSigner(true)
	event := &domain.DomainEvent{ID: uuid.New(), EventType: "order.created"}
	endpoint := &domain.WebhookEndpoint{ID: uuid.New(), URL: "http://hooks.example.com"}
	d := domain.NewWebhookDelivery(event, endpoint.ID, domain.RetryPolicy{MaxAttempts: 1}, time.Now())

	_, err := svc.BuildRequest(d, event, endpoint, "secret")
	assert.True(t, errors.Is(err, domain.ErrSecurityViolation))
}
