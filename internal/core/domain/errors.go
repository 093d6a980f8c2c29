package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCircuitOpen is returned when a circuit breaker rejects a call.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrDeliveryCancelled is returned by storage when an attempt is recorded
	// against a delivery that was cancelled while the attempt was in flight.
	ErrDeliveryCancelled = errors.New("delivery cancelled")

	// ErrDeliveryExists is returned by storage when the (event, endpoint) pair
	// already has a delivery.
	ErrDeliveryExists = errors.New("delivery already exists for event and endpoint")

	// ErrRecoveryLimitReached is returned when a dead letter entry has been
	// replayed too many times.
	ErrRecoveryLimitReached = errors.New("dead letter recovery limit reached")

	// ErrSecurityViolation marks a request that must never be sent.
	ErrSecurityViolation = errors.New("security violation")

	// ErrConfiguration marks an endpoint that cannot be called as configured.
	ErrConfiguration = errors.New("endpoint configuration error")
)

// CircuitOpenError carries the endpoint and how long until the breaker admits
// a trial request.
type CircuitOpenError struct {
	EndpointID string
	State      CircuitState
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker %s for endpoint %s, retry after %s", e.State, e.EndpointID, e.RetryAfter)
}

func (e *CircuitOpenError) Unwrap() error {
	return ErrCircuitOpen
}

// IsCircuitOpen reports whether err is a circuit breaker rejection.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}
