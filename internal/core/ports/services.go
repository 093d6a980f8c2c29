package ports

//go:generate mockgen -source=services.go -destination=mocks/services.go -package=mocks

import (
	"context"
	"time"

	"webhook-dispatcher/internal/core/domain"

	"github.com/google/uuid"
)

// EncryptionService handles AES-256-GCM encryption/decryption of endpoint secrets.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// TokenService handles operator JWT operations.
type TokenService interface {
	Generate(subject string, roles []string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Subject string
	Roles   []string
}

// HTTPRequest is one outbound webhook call.
type HTTPRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	Timeout time.Duration
}

// HTTPResponse is what the transport observed.
type HTTPResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Truncated  bool
	Latency    time.Duration
}

// HTTPTransport sends webhook requests over a pooled connection set. A non-nil
// error means no HTTP response was received.
type HTTPTransport interface {
	Send(ctx context.Context, req HTTPRequest) (*HTTPResponse, error)
}

// SubscriptionCache caches resolved subscriptions per (event type, context).
type SubscriptionCache interface {
	// Get returns ok=false on a miss.
	Get(ctx context.Context, eventType string, contextID *uuid.UUID) ([]domain.WebhookSubscription, bool, error)
	Set(ctx context.Context, eventType string, contextID *uuid.UUID, subs []domain.WebhookSubscription) error
	Invalidate(ctx context.Context) (int64, error)
}

// RetryLease keeps two workers from retrying the same delivery at once.
type RetryLease interface {
	Acquire(ctx context.Context, deliveryID uuid.UUID, ttl time.Duration) (bool, error)
	Release(ctx context.Context, deliveryID uuid.UUID) error
}

// Notifier receives fire-and-forget notifications. Callers never block on or
// fail because of a notifier.
type Notifier interface {
	DeliveryCompleted(ctx context.Context, d *domain.WebhookDelivery) error
	CircuitStateChanged(ctx context.Context, t domain.CircuitTransition) error
	DeadLettered(ctx context.Context, e *domain.DeadLetterEntry) error
}

// --- Service Ports (Business Logic) ---

// DispatchOptions bounds one processing pass.
type DispatchOptions struct {
	Limit                int
	BatchSize            int
	MaxConcurrentBatches int
}

// StreamOptions bounds one streaming pass. MaxEvents <= 0 drains the backlog.
type StreamOptions struct {
	MaxEvents int
}

// EventDispatcher fans unprocessed events out to subscribed endpoints.
type EventDispatcher interface {
	DispatchUnprocessedEvents(ctx context.Context, opts DispatchOptions) (int, error)
	DispatchStream(ctx context.Context, opts StreamOptions) (int, error)
	DispatchHighThroughput(ctx context.Context, opts DispatchOptions) (int, error)
	Backlog(ctx context.Context, limit, offset int) ([]domain.DomainEvent, int64, error)
}

// RetryResult summarises one retry scan.
type RetryResult struct {
	Scanned     int `json:"scanned"`
	Attempted   int `json:"attempted"`
	Succeeded   int `json:"succeeded"`
	Rescheduled int `json:"rescheduled"`
	Failed      int `json:"failed"`
	SkippedOpen int `json:"skipped_open_circuit"`
	SkippedHeld int `json:"skipped_leased"`
	Errors      int `json:"errors"`
}

// DeliveryService executes deliveries and manages their retry state.
type DeliveryService interface {
	DeliverToEndpoint(ctx context.Context, event *domain.DomainEvent, endpoint *domain.WebhookEndpoint) (*domain.WebhookDelivery, error)
	RetryFailedDeliveries(ctx context.Context, limit int) (*RetryResult, error)
	CancelDelivery(ctx context.Context, id uuid.UUID, reason string) (*domain.WebhookDelivery, error)
	GetDelivery(ctx context.Context, id uuid.UUID) (*domain.WebhookDelivery, error)
}

// CircuitBreaker gates calls per endpoint.
type CircuitBreaker interface {
	// Allow returns a *domain.CircuitOpenError when the call must not be made.
	Allow(endpointID string) error
	RecordSuccess(endpointID string)
	RecordFailure(endpointID string)
	State(endpointID string) domain.CircuitState
	Stats(endpointID string) (domain.CircuitBreakerStats, bool)
	AllStats() []domain.CircuitBreakerStats
	Reset(endpointID string) bool
	ForceOpen(endpointID string)
	ForceClose(endpointID string)
	CleanupStale() int
}

// DeadLetterProcessResult summarises one reaper pass.
type DeadLetterProcessResult struct {
	Processed    int `json:"processed"`
	Archived     int `json:"archived"`
	Deleted      int `json:"deleted"`
	ManualReview int `json:"manual_review"`
	Errors       int `json:"errors"`
}

// DeadLetterQueue holds deliveries that cannot succeed automatically.
type DeadLetterQueue interface {
	AddEntry(ctx context.Context, d *domain.WebhookDelivery, reason domain.DeadLetterReason, details map[string]any) (*domain.DeadLetterEntry, error)
	ProcessQueue(ctx context.Context, batchSize int) (*DeadLetterProcessResult, error)
	RetryEntry(ctx context.Context, deliveryID uuid.UUID, newEndpointID *uuid.UUID) (*domain.WebhookDelivery, error)
	CleanupExpired(ctx context.Context) (int64, error)
	List(ctx context.Context, filter DeadLetterFilter) ([]domain.DeadLetterEntry, int64, error)
}

// SubscriptionResolver returns the subscriptions matching an event, most
// specific pattern first.
type SubscriptionResolver interface {
	Resolve(ctx context.Context, event *domain.DomainEvent) ([]domain.WebhookSubscription, error)
	// Candidates returns every subscription whose pattern and context can
	// match, before field conditions are applied.
	Candidates(ctx context.Context, eventType string, contextID *uuid.UUID) ([]domain.WebhookSubscription, error)
	Invalidate(ctx context.Context) (int64, error)
}
