package ports

//go:generate mockgen -source=repositories.go -destination=mocks/repositories.go -package=mocks

import (
	"context"
	"time"

	"webhook-dispatcher/internal/core/domain"

	"github.com/google/uuid"
)

// EventProjection selects which event columns a fetch loads.
type EventProjection int

const (
	// ProjectionFull loads every column.
	ProjectionFull EventProjection = iota
	// ProjectionDispatch loads only what routing and signing need.
	ProjectionDispatch
)

// EventRepository reads the domain event outbox. Events are claimed with a
// lock-and-skip read so concurrent dispatchers never block on each other.
type EventRepository interface {
	GetUnprocessedForUpdate(ctx context.Context, limit int, skipLocked bool, projection EventProjection) ([]domain.DomainEvent, error)
	GetUnprocessedPaginated(ctx context.Context, limit, offset int) ([]domain.DomainEvent, error)
	MarkProcessed(ctx context.Context, ids []uuid.UUID) (int64, error)
	CountUnprocessed(ctx context.Context) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.DomainEvent, error)
}

// SubscriptionRepository resolves subscriptions whose pattern can match an
// event type. Field conditions are evaluated by the caller.
type SubscriptionRepository interface {
	GetMatching(ctx context.Context, eventType string, contextID *uuid.UUID) ([]domain.WebhookSubscription, error)
}

// EndpointRepository is the read-mostly view of endpoint management.
type EndpointRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookEndpoint, error)
	UpdateLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
}

// DeliveryRepository persists deliveries and their attempts.
type DeliveryRepository interface {
	Create(ctx context.Context, d *domain.WebhookDelivery) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookDelivery, error)
	// SaveAttempt inserts the attempt and updates the delivery in one
	// transaction. If the delivery was cancelled meanwhile the attempt is still
	// stored and domain.ErrDeliveryCancelled is returned.
	SaveAttempt(ctx context.Context, d *domain.WebhookDelivery, attempt *domain.WebhookDeliveryAttempt) error
	Update(ctx context.Context, d *domain.WebhookDelivery) error
	GetDueForRetry(ctx context.Context, now time.Time, limit int) ([]domain.WebhookDelivery, error)
	// ResetForReplay drops the attempt rows and stores the reset delivery.
	ResetForReplay(ctx context.Context, d *domain.WebhookDelivery) error
}

// DeadLetterFilter holds filter + pagination for listing dead letters.
type DeadLetterFilter struct {
	Reason           *domain.DeadLetterReason
	EndpointID       *uuid.UUID
	IncludeProcessed bool
	Page             int
	PageSize         int
}

// DeadLetterRepository persists dead letter entries.
type DeadLetterRepository interface {
	Create(ctx context.Context, e *domain.DeadLetterEntry) error
	GetByDeliveryID(ctx context.Context, deliveryID uuid.UUID) (*domain.DeadLetterEntry, error)
	GetUnprocessed(ctx context.Context, limit int) ([]domain.DeadLetterEntry, error)
	Update(ctx context.Context, e *domain.DeadLetterEntry) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	List(ctx context.Context, filter DeadLetterFilter) ([]domain.DeadLetterEntry, int64, error)
}
