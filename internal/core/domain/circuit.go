package domain

import "time"

// CircuitState is the state of a per-endpoint circuit breaker.
type CircuitState string

const (
	CircuitClosed   CircuitState = "CLOSED"
	CircuitOpen     CircuitState = "OPEN"
	CircuitHalfOpen CircuitState = "HALF_OPEN"
)

// CircuitBreakerConfig holds the breaker thresholds.
type CircuitBreakerConfig struct {
	FailureThreshold         int           `json:"failure_threshold"`
	FailureRateThreshold     float64       `json:"failure_rate_threshold"` // percent
	MinimumRequests          int           `json:"minimum_requests"`
	Timeout                  time.Duration `json:"timeout"`
	MaxRecoveryRequests      int           `json:"max_recovery_requests"`
	RecoverySuccessThreshold int           `json:"recovery_success_threshold"`
	Window                   time.Duration `json:"window"`
	StaleAfter               time.Duration `json:"stale_after"`
}

// DefaultCircuitBreakerConfig returns the default thresholds.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold:         5,
		FailureRateThreshold:     50,
		MinimumRequests:          10,
		Timeout:                  60 * time.Second,
		MaxRecoveryRequests:      3,
		RecoverySuccessThreshold: 2,
		Window:                   60 * time.Second,
		StaleAfter:               24 * time.Hour,
	}
}

// CircuitBreakerStats is a snapshot of one endpoint's breaker.
type CircuitBreakerStats struct {
	EndpointID       string       `json:"endpoint_id"`
	State            CircuitState `json:"state"`
	FailureCount     int          `json:"failure_count"`
	SuccessCount     int          `json:"success_count"`
	TotalRequests    int          `json:"total_requests"`
	RecoveryAttempts int          `json:"recovery_attempts"`
	RecoverySuccess  int          `json:"recovery_successes"`
	StateChangedTime time.Time    `json:"state_changed_time"`
	WindowStart      time.Time    `json:"window_start"`
	LastFailureTime  *time.Time   `json:"last_failure_time,omitempty"`
	LastActivity     time.Time    `json:"last_activity"`
}

// FailureRate returns the windowed failure percentage.
func (s CircuitBreakerStats) FailureRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.FailureCount) / float64(s.TotalRequests) * 100
}

// CircuitTransition describes a state change, for notifications.
type CircuitTransition struct {
	EndpointID string       `json:"endpoint_id"`
	From       CircuitState `json:"from"`
	To         CircuitState `json:"to"`
	Reason     string       `json:"reason"`
	At         time.Time    `json:"at"`
}
