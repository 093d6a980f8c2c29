package telemetry

import (
	"context"
	"fmt"

	"webhook-dispatcher/internal/core/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsNotifier implements ports.Notifier by counting notifications.
type MetricsNotifier struct {
	deliveries         metric.Int64Counter
	attempts           metric.Int64Histogram
	circuitTransitions metric.Int64Counter
	deadLetters        metric.Int64Counter
}

// NewMetricsNotifier registers the notifier instruments on meter.
func NewMetricsNotifier(meter metric.Meter) (*MetricsNotifier, error) {
	n := &MetricsNotifier{}
	var err error

	n.deliveries, err = meter.Int64Counter("webhook.deliveries.completed",
		metric.WithDescription("Deliveries that reached a terminal state"),
		metric.WithUnit("{deliveries}"))
	if err != nil {
		return nil, fmt.Errorf("creating deliveries counter: %w", err)
	}

	n.attempts, err = meter.Int64Histogram("webhook.delivery.attempts",
		metric.WithDescription("Attempts used by a delivery before it completed"),
		metric.WithUnit("{attempts}"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 5, 8, 10))
	if err != nil {
		return nil, fmt.Errorf("creating attempts histogram: %w", err)
	}

	n.circuitTransitions, err = meter.Int64Counter("webhook.circuit.transitions",
		metric.WithDescription("Circuit breaker state changes"),
		metric.WithUnit("{transitions}"))
	if err != nil {
		return nil, fmt.Errorf("creating circuit transitions counter: %w", err)
	}

	n.deadLetters, err = meter.Int64Counter("webhook.dead_letters.created",
		metric.WithDescription("Deliveries moved to the dead letter queue"),
		metric.WithUnit("{entries}"))
	if err != nil {
		return nil, fmt.Errorf("creating dead letter counter: %w", err)
	}
	return n, nil
}

// DeliveryCompleted implements ports.Notifier.
func (n *MetricsNotifier) DeliveryCompleted(ctx context.Context, d *domain.WebhookDelivery) error {
	attrs := metric.WithAttributes(
		attribute.String("status", string(d.Status)),
		attribute.String("event.category", category(d.EventType)),
	)
	n.deliveries.Add(ctx, 1, attrs)
	n.attempts.Record(ctx, int64(d.AttemptCount()), attrs)
	return nil
}

// CircuitStateChanged implements ports.Notifier.
func (n *MetricsNotifier) CircuitStateChanged(ctx context.Context, t domain.CircuitTransition) error {
	n.circuitTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", string(t.From)),
		attribute.String("to", string(t.To)),
	))
	return nil
}

// DeadLettered implements ports.Notifier.
func (n *MetricsNotifier) DeadLettered(ctx context.Context, e *domain.DeadLetterEntry) error {
	n.deadLetters.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", string(e.Reason)),
	))
	return nil
}

// RegisterBacklogGauge reports the unprocessed event count on every
// collection.
func RegisterBacklogGauge(meter metric.Meter, count func(ctx context.Context) (int64, error)) error {
	_, err := meter.Int64ObservableGauge("webhook.events.backlog",
		metric.WithDescription("Domain events not yet dispatched"),
		metric.WithUnit("{events}"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			n, err := count(ctx)
			if err != nil {
				return err
			}
			o.Observe(n)
			return nil
		}))
	if err != nil {
		return fmt.Errorf("creating backlog gauge: %w", err)
	}
	return nil
}

// category keeps label cardinality bounded by dropping the action segment.
func category(eventType string) string {
	e := domain.DomainEvent{EventType: eventType}
	return e.Category()
}
