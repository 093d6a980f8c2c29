package redis

import (
	"context"
	"fmt"

	"webhook-dispatcher/internal/core/domain"

	json "github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"
)

// Notification kinds written to the stream.
const (
	KindDeliveryCompleted   = "delivery.completed"
	KindCircuitStateChanged = "circuit.state_changed"
	KindDeadLettered        = "dead_letter.created"
)

// DefaultStreamMaxLen caps the notification stream when no length is set.
const DefaultStreamMaxLen = 10000

// NotificationStream implements ports.Notifier by appending to a Redis stream
// that other services can consume with XREAD or a consumer group.
type NotificationStream struct {
	client goredis.UniversalClient
	stream string
	maxLen int64
}

// NewNotificationStream creates a stream notifier. The stream is trimmed
// approximately to maxLen entries.
func NewNotificationStream(client goredis.UniversalClient, stream string, maxLen int64) *NotificationStream {
	if maxLen <= 0 {
		maxLen = DefaultStreamMaxLen
	}
	return &NotificationStream{client: client, stream: stream, maxLen: maxLen}
}

type deliveryNotice struct {
	DeliveryID    string                   `json:"delivery_id"`
	EventID       string                   `json:"event_id"`
	EndpointID    string                   `json:"endpoint_id"`
	EventType     string                   `json:"event_type"`
	Status        domain.DeliveryStatus    `json:"status"`
	Attempts      int                      `json:"attempts"`
	FailureReason *domain.DeadLetterReason `json:"failure_reason,omitempty"`
}

type deadLetterNotice struct {
	EntryID              string                  `json:"entry_id"`
	DeliveryID           string                  `json:"delivery_id"`
	EndpointID           string                  `json:"endpoint_id"`
	EventType            string                  `json:"event_type"`
	Reason               domain.DeadLetterReason `json:"reason"`
	RequiresManualReview bool                    `json:"requires_manual_review"`
}

// DeliveryCompleted implements ports.Notifier.
func (n *NotificationStream) DeliveryCompleted(ctx context.Context, d *domain.WebhookDelivery) error {
	return n.publish(ctx, KindDeliveryCompleted, deliveryNotice{
		DeliveryID:    d.ID.String(),
		EventID:       d.EventID.String(),
		EndpointID:    d.EndpointID.String(),
		EventType:     d.EventType,
		Status:        d.Status,
		Attempts:      d.AttemptCount(),
		FailureReason: d.FailureReason,
	})
}

// CircuitStateChanged implements ports.Notifier.
func (n *NotificationStream) CircuitStateChanged(ctx context.Context, t domain.CircuitTransition) error {
	return n.publish(ctx, KindCircuitStateChanged, t)
}

// DeadLettered implements ports.Notifier.
func (n *NotificationStream) DeadLettered(ctx context.Context, e *domain.DeadLetterEntry) error {
	return n.publish(ctx, KindDeadLettered, deadLetterNotice{
		EntryID:              e.ID.String(),
		DeliveryID:           e.DeliveryID.String(),
		EndpointID:           e.EndpointID.String(),
		EventType:            e.EventType,
		Reason:               e.Reason,
		RequiresManualReview: e.RequiresManualReview,
	})
}

func (n *NotificationStream) publish(ctx context.Context, kind string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s notification: %w", kind, err)
	}
	err = n.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: n.stream,
		MaxLen: n.maxLen,
		Approx: true,
		Values: map[string]any{"kind": kind, "payload": raw},
	}).Err()
	if err != nil {
		return fmt.Errorf("redis xadd %s: %w", kind, err)
	}
	return nil
}
