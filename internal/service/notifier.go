package service

import (
	"context"
	"errors"

	"webhook-dispatcher/internal/core/domain"
	"webhook-dispatcher/internal/core/ports"
)

// FanoutNotifier forwards every notification to all sinks. One failing sink
// does not stop the others.
type FanoutNotifier struct {
	sinks []ports.Notifier
}

// NewFanoutNotifier creates a notifier over the given sinks; nil sinks are skipped.
func NewFanoutNotifier(sinks ...ports.Notifier) *FanoutNotifier {
	n := &FanoutNotifier{}
	for _, s := range sinks {
		if s != nil {
			n.sinks = append(n.sinks, s)
		}
	}
	return n
}

// DeliveryCompleted implements ports.Notifier.
func (n *FanoutNotifier) DeliveryCompleted(ctx context.Context, d *domain.WebhookDelivery) error {
	var errs []error
	for _, s := range n.sinks {
		if err := s.DeliveryCompleted(ctx, d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CircuitStateChanged implements ports.Notifier.
func (n *FanoutNotifier) CircuitStateChanged(ctx context.Context, t domain.CircuitTransition) error {
	var errs []error
	for _, s := range n.sinks {
		if err := s.CircuitStateChanged(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DeadLettered implements ports.Notifier.
func (n *FanoutNotifier) DeadLettered(ctx context.Context, e *domain.DeadLetterEntry) error {
	var errs []error
	for _, s := range n.sinks {
		if err := s.DeadLettered(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CircuitNotifyHook adapts a notifier into a circuit breaker transition hook
// that never blocks the breaker.
func CircuitNotifyHook(n ports.Notifier, runner *DetachedRunner) func(domain.CircuitTransition) {
	return func(t domain.CircuitTransition) {
		runner.Go(context.Background(), "notify.circuit_state_changed", func(ctx context.Context) error {
			return n.CircuitStateChanged(ctx, t)
		})
	}
}
