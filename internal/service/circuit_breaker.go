package service

import (
	"sort"
	"sync"
	"time"

	"webhook-dispatcher/internal/core/domain"

	"github.com/rs/zerolog"
)

// CircuitBreakerOption configures a CircuitBreakerService.
type CircuitBreakerOption func(*CircuitBreakerService)

// WithCircuitClock overrides the clock, for tests.
func WithCircuitClock(now func() time.Time) CircuitBreakerOption {
	return func(s *CircuitBreakerService) { s.now = now }
}

// WithTransitionHook registers a callback invoked after every state change,
// outside the endpoint lock.
func WithTransitionHook(fn func(domain.CircuitTransition)) CircuitBreakerOption {
	return func(s *CircuitBreakerService) { s.onTransition = fn }
}

type circuitEntry struct {
	mu    sync.Mutex
	stats domain.CircuitBreakerStats
}

// CircuitBreakerService implements ports.CircuitBreaker with one in-memory
// state machine per endpoint. Every mutation of an endpoint's counters happens
// under that endpoint's mutex.
type CircuitBreakerService struct {
	cfg          domain.CircuitBreakerConfig
	mu           sync.RWMutex
	entries      map[string]*circuitEntry
	now          func() time.Time
	onTransition func(domain.CircuitTransition)
	log          zerolog.Logger
}

// NewCircuitBreakerService creates a breaker registry. Zero config values fall
// back to the defaults.
func NewCircuitBreakerService(cfg domain.CircuitBreakerConfig, log zerolog.Logger, opts ...CircuitBreakerOption) *CircuitBreakerService {
	def := domain.DefaultCircuitBreakerConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.FailureRateThreshold <= 0 {
		cfg.FailureRateThreshold = def.FailureRateThreshold
	}
	if cfg.MinimumRequests <= 0 {
		cfg.MinimumRequests = def.MinimumRequests
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRecoveryRequests <= 0 {
		cfg.MaxRecoveryRequests = def.MaxRecoveryRequests
	}
	if cfg.RecoverySuccessThreshold <= 0 {
		cfg.RecoverySuccessThreshold = def.RecoverySuccessThreshold
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = def.StaleAfter
	}

	s := &CircuitBreakerService{
		cfg:     cfg,
		entries: make(map[string]*circuitEntry),
		now:     time.Now,
		log:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CircuitBreakerService) entry(endpointID string) *circuitEntry {
	s.mu.RLock()
	e, ok := s.entries[endpointID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[endpointID]; ok {
		return e
	}
	now := s.now()
	e = &circuitEntry{stats: domain.CircuitBreakerStats{
		EndpointID:       endpointID,
		State:            domain.CircuitClosed,
		StateChangedTime: now,
		WindowStart:      now,
		LastActivity:     now,
	}}
	s.entries[endpointID] = e
	return e
}

func (s *CircuitBreakerService) lookup(endpointID string) (*circuitEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[endpointID]
	return e, ok
}

// Allow reports whether a call to the endpoint may proceed. OPEN moves to
// HALF_OPEN lazily here once the timeout has elapsed.
func (s *CircuitBreakerService) Allow(endpointID string) error {
	e := s.entry(endpointID)
	now := s.now()

	e.mu.Lock()
	st := &e.stats
	st.LastActivity = now
	s.rollWindow(st, now)

	var transition *domain.CircuitTransition
	if st.State == domain.CircuitOpen {
		elapsed := now.Sub(st.StateChangedTime)
		if elapsed < s.cfg.Timeout {
			e.mu.Unlock()
			return &domain.CircuitOpenError{EndpointID: endpointID, State: domain.CircuitOpen, RetryAfter: s.cfg.Timeout - elapsed}
		}
		transition = s.setState(st, domain.CircuitHalfOpen, "open timeout elapsed", now)
	}

	var err error
	if st.State == domain.CircuitHalfOpen {
		if st.RecoveryAttempts >= s.cfg.MaxRecoveryRequests {
			err = &domain.CircuitOpenError{EndpointID: endpointID, State: domain.CircuitHalfOpen, RetryAfter: s.halfOpenRetryAfter()}
		} else {
			st.RecoveryAttempts++
		}
	}
	e.mu.Unlock()

	s.emit(transition)
	return err
}

// RecordSuccess counts a 2xx response.
func (s *CircuitBreakerService) RecordSuccess(endpointID string) {
	e := s.entry(endpointID)
	now := s.now()

	e.mu.Lock()
	st := &e.stats
	st.LastActivity = now
	s.rollWindow(st, now)
	st.TotalRequests++
	st.SuccessCount++

	var transition *domain.CircuitTransition
	if st.State == domain.CircuitHalfOpen {
		st.RecoverySuccess++
		if st.RecoverySuccess >= s.cfg.RecoverySuccessThreshold {
			transition = s.setState(st, domain.CircuitClosed, "recovery succeeded", now)
		}
	}
	e.mu.Unlock()

	s.emit(transition)
}

// RecordFailure counts a failed call.
func (s *CircuitBreakerService) RecordFailure(endpointID string) {
	e := s.entry(endpointID)
	now := s.now()

	e.mu.Lock()
	st := &e.stats
	st.LastActivity = now
	s.rollWindow(st, now)
	st.TotalRequests++
	st.FailureCount++
	failedAt := now
	st.LastFailureTime = &failedAt

	var transition *domain.CircuitTransition
	switch st.State {
	case domain.CircuitHalfOpen:
		transition = s.setState(st, domain.CircuitOpen, "failure during recovery", now)
	case domain.CircuitClosed:
		if st.FailureCount >= s.cfg.FailureThreshold {
			transition = s.setState(st, domain.CircuitOpen, "failure threshold reached", now)
		} else if st.TotalRequests >= s.cfg.MinimumRequests && st.FailureRate() >= s.cfg.FailureRateThreshold {
			transition = s.setState(st, domain.CircuitOpen, "failure rate threshold reached", now)
		}
	}
	e.mu.Unlock()

	s.emit(transition)
}

// State returns the effective state. An OPEN breaker whose timeout elapsed
// reports HALF_OPEN even before the next call moves it.
func (s *CircuitBreakerService) State(endpointID string) domain.CircuitState {
	stats, ok := s.Stats(endpointID)
	if !ok {
		return domain.CircuitClosed
	}
	return stats.State
}

// Stats returns a snapshot of one endpoint's breaker.
func (s *CircuitBreakerService) Stats(endpointID string) (domain.CircuitBreakerStats, bool) {
	e, ok := s.lookup(endpointID)
	if !ok {
		return domain.CircuitBreakerStats{}, false
	}
	return s.snapshot(e), true
}

// AllStats returns snapshots of every tracked endpoint, ordered by id.
func (s *CircuitBreakerService) AllStats() []domain.CircuitBreakerStats {
	s.mu.RLock()
	entries := make([]*circuitEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]domain.CircuitBreakerStats, 0, len(entries))
	for _, e := range entries {
		out = append(out, s.snapshot(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndpointID < out[j].EndpointID })
	return out
}

// Reset forgets the endpoint's breaker. Returns false if none was tracked.
func (s *CircuitBreakerService) Reset(endpointID string) bool {
	s.mu.Lock()
	_, ok := s.entries[endpointID]
	delete(s.entries, endpointID)
	s.mu.Unlock()

	if ok {
		s.log.Info().Str("endpoint_id", endpointID).Msg("circuit breaker reset")
	}
	return ok
}

// ForceOpen opens the breaker regardless of counters.
func (s *CircuitBreakerService) ForceOpen(endpointID string) {
	e := s.entry(endpointID)
	now := s.now()

	e.mu.Lock()
	e.stats.LastActivity = now
	transition := s.setState(&e.stats, domain.CircuitOpen, "forced open", now)
	e.mu.Unlock()

	s.emit(transition)
}

// ForceClose closes the breaker and clears its counters.
func (s *CircuitBreakerService) ForceClose(endpointID string) {
	e := s.entry(endpointID)
	now := s.now()

	e.mu.Lock()
	e.stats.LastActivity = now
	transition := s.setState(&e.stats, domain.CircuitClosed, "forced closed", now)
	e.mu.Unlock()

	s.emit(transition)
}

// CleanupStale drops breakers with no activity for StaleAfter.
func (s *CircuitBreakerService) CleanupStale() int {
	cutoff := s.now().Add(-s.cfg.StaleAfter)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.entries {
		e.mu.Lock()
		stale := e.stats.LastActivity.Before(cutoff)
		e.mu.Unlock()
		if stale {
			delete(s.entries, id)
			removed++
		}
	}
	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("stale circuit breakers removed")
	}
	return removed
}

func (s *CircuitBreakerService) snapshot(e *circuitEntry) domain.CircuitBreakerStats {
	e.mu.Lock()
	stats := e.stats
	e.mu.Unlock()

	if stats.LastFailureTime != nil {
		t := *stats.LastFailureTime
		stats.LastFailureTime = &t
	}
	if stats.State == domain.CircuitOpen && s.now().Sub(stats.StateChangedTime) >= s.cfg.Timeout {
		stats.State = domain.CircuitHalfOpen
	}
	return stats
}

// rollWindow starts a fresh counting window for CLOSED breakers. Caller holds
// the entry lock.
func (s *CircuitBreakerService) rollWindow(st *domain.CircuitBreakerStats, now time.Time) {
	if st.State != domain.CircuitClosed || now.Sub(st.WindowStart) < s.cfg.Window {
		return
	}
	st.FailureCount = 0
	st.SuccessCount = 0
	st.TotalRequests = 0
	st.WindowStart = now
}

// setState moves the breaker and returns the transition, or nil when the
// state did not change. Caller holds the entry lock.
func (s *CircuitBreakerService) setState(st *domain.CircuitBreakerStats, to domain.CircuitState, reason string, now time.Time) *domain.CircuitTransition {
	from := st.State
	st.State = to
	st.StateChangedTime = now
	st.RecoveryAttempts = 0
	st.RecoverySuccess = 0
	if to == domain.CircuitClosed {
		st.FailureCount = 0
		st.SuccessCount = 0
		st.TotalRequests = 0
		st.WindowStart = now
	}
	if from == to {
		return nil
	}
	return &domain.CircuitTransition{
		EndpointID: st.EndpointID,
		From:       from,
		To:         to,
		Reason:     reason,
		At:         now,
	}
}

func (s *CircuitBreakerService) emit(t *domain.CircuitTransition) {
	if t == nil {
		return
	}
	ev := s.log.Info()
	if t.To == domain.CircuitOpen {
		ev = s.log.Warn()
	}
	ev.Str("endpoint_id", t.EndpointID).
		Str("from", string(t.From)).
		Str("to", string(t.To)).
		Str("reason", t.Reason).
		Msg("circuit breaker state changed")
	if s.onTransition != nil {
		s.onTransition(*t)
	}
}

func (s *CircuitBreakerService) halfOpenRetryAfter() time.Duration {
	d := s.cfg.Timeout / 10
	if d < time.Second {
		d = time.Second
	}
	return d
}
