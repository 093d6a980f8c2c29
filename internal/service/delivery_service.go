package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"webhook-dispatcher/internal/core/domain"
	"webhook-dispatcher/internal/core/ports"
	"webhook-dispatcher/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// DeliveryConfig holds delivery tunables.
type DeliveryConfig struct {
	DefaultTimeout      time.Duration
	MaxBackoffSeconds   int
	DefaultRetryPolicy  domain.RetryPolicy
	MaxCircuitDeferrals int
	RetryConcurrency    int
	RetryLeaseTTL       time.Duration
	PersistTimeout      time.Duration
}

// DefaultDeliveryConfig returns the default delivery tunables.
func DefaultDeliveryConfig() DeliveryConfig {
	return DeliveryConfig{
		DefaultTimeout:    30 * time.Second,
		MaxBackoffSeconds: domain.DefaultMaxBackoffSeconds,
		DefaultRetryPolicy: domain.RetryPolicy{
			MaxAttempts:        5,
			BaseBackoffSeconds: 60,
			BackoffMultiplier:  2.0,
		},
		MaxCircuitDeferrals: 48,
		RetryConcurrency:    8,
		RetryLeaseTTL:       2 * time.Minute,
		PersistTimeout:      10 * time.Second,
	}
}

// DeliveryDeps holds the collaborators of a delivery service. Lease and
// Notifier are optional.
type DeliveryDeps struct {
	Deliveries ports.DeliveryRepository
	Endpoints  ports.EndpointRepository
	Events     ports.EventRepository
	Breaker    ports.CircuitBreaker
	DLQ        ports.DeadLetterQueue
	Transport  ports.HTTPTransport
	Encryption ports.EncryptionService
	Signer     *HMACSignatureService
	Limiter    *EndpointLimiter
	Lease      ports.RetryLease
	Notifier   ports.Notifier
	Detached   *DetachedRunner
	Logger     zerolog.Logger
}

// deliveryService implements ports.DeliveryService.
type deliveryService struct {
	cfg        DeliveryConfig
	deliveries ports.DeliveryRepository
	endpoints  ports.EndpointRepository
	events     ports.EventRepository
	breaker    ports.CircuitBreaker
	dlq        ports.DeadLetterQueue
	transport  ports.HTTPTransport
	encSvc     ports.EncryptionService
	signer     *HMACSignatureService
	limiter    *EndpointLimiter
	lease      ports.RetryLease
	notifier   ports.Notifier
	detached   *DetachedRunner
	log        zerolog.Logger
	now        func() time.Time
}

// NewDeliveryService creates a new delivery service.
func NewDeliveryService(cfg DeliveryConfig, deps DeliveryDeps) ports.DeliveryService {
	def := DefaultDeliveryConfig()
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = def.DefaultTimeout
	}
	if cfg.MaxBackoffSeconds <= 0 {
		cfg.MaxBackoffSeconds = def.MaxBackoffSeconds
	}
	if cfg.DefaultRetryPolicy.MaxAttempts == 0 {
		cfg.DefaultRetryPolicy = def.DefaultRetryPolicy
	}
	if cfg.RetryConcurrency <= 0 {
		cfg.RetryConcurrency = def.RetryConcurrency
	}
	if cfg.RetryLeaseTTL <= 0 {
		cfg.RetryLeaseTTL = def.RetryLeaseTTL
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = def.PersistTimeout
	}
	if deps.Signer == nil {
		deps.Signer = NewHMACSignatureService("", false)
	}
	if deps.Limiter == nil {
		deps.Limiter = NewEndpointLimiter()
	}
	if deps.Detached == nil {
		deps.Detached = NewDetachedRunner(0, deps.Logger)
	}
	return &deliveryService{
		cfg:        cfg,
		deliveries: deps.Deliveries,
		endpoints:  deps.Endpoints,
		events:     deps.Events,
		breaker:    deps.Breaker,
		dlq:        deps.DLQ,
		transport:  deps.Transport,
		encSvc:     deps.Encryption,
		signer:     deps.Signer,
		limiter:    deps.Limiter,
		lease:      deps.Lease,
		notifier:   deps.Notifier,
		detached:   deps.Detached,
		log:        deps.Logger,
		now:        time.Now,
	}
}

// DeliverToEndpoint persists a pending delivery for (event, endpoint) and makes
// the first attempt. A non-nil delivery is returned whenever it was persisted,
// even if a later step failed.
func (s *deliveryService) DeliverToEndpoint(ctx context.Context, event *domain.DomainEvent, endpoint *domain.WebhookEndpoint) (*domain.WebhookDelivery, error) {
	policy := endpoint.RetryPolicy(s.cfg.DefaultRetryPolicy)
	now := s.now()
	d := domain.NewWebhookDelivery(event, endpoint.ID, policy, now)
	// The retry scan must not pick the row up while the first attempt is in
	// flight. A crash before the attempt is recorded still leaves it due.
	d.HoldUntil(now.Add(endpoint.Timeout(s.cfg.DefaultTimeout) + s.cfg.PersistTimeout))

	if err := s.deliveries.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("create delivery: %w", err)
	}

	_, release := s.holdLease(ctx, d.ID)
	defer release()

	s.log.Debug().
		Str("delivery_id", d.ID.String()).
		Str("event_id", event.ID.String()).
		Str("endpoint_id", endpoint.ID.String()).
		Msg("delivery created")

	if err := s.execute(ctx, d, event, endpoint); err != nil {
		return d, err
	}
	return d, nil
}

// RetryFailedDeliveries re-runs every due PENDING or RETRYING delivery.
// Deliveries whose circuit is OPEN are left for a later scan.
func (s *deliveryService) RetryFailedDeliveries(ctx context.Context, limit int) (*ports.RetryResult, error) {
	due, err := s.deliveries.GetDueForRetry(ctx, s.now(), limit)
	if err != nil {
		return nil, fmt.Errorf("get due deliveries: %w", err)
	}

	result := &ports.RetryResult{Scanned: len(due)}
	if len(due) == 0 {
		return result, nil
	}

	var mu sync.Mutex
	p := pool.New().WithMaxGoroutines(s.cfg.RetryConcurrency)
	for i := range due {
		d := &due[i]
		p.Go(func() {
			outcome, err := s.retryOne(ctx, d)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors++
				s.log.Error().Err(err).Str("delivery_id", d.ID.String()).Msg("retry failed")
				return
			}
			switch outcome {
			case retrySkippedOpen:
				result.SkippedOpen++
			case retrySkippedHeld:
				result.SkippedHeld++
			case retryAttempted:
				result.Attempted++
				switch d.Status {
				case domain.DeliveryStatusSuccess:
					result.Succeeded++
				case domain.DeliveryStatusFailed:
					result.Failed++
				default:
					result.Rescheduled++
				}
			}
		})
	}
	p.Wait()

	s.log.Info().
		Int("scanned", result.Scanned).
		Int("attempted", result.Attempted).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Int("skipped_open", result.SkippedOpen).
		Msg("retry scan completed")

	return result, nil
}

// holdLease takes the retry lease for a delivery. held is false only when
// another worker owns it; lease errors fall back to running without one.
func (s *deliveryService) holdLease(ctx context.Context, id uuid.UUID) (held bool, release func()) {
	release = func() {}
	if s.lease == nil {
		return true, release
	}
	ok, err := s.lease.Acquire(ctx, id, s.cfg.RetryLeaseTTL)
	if err != nil {
		s.log.Warn().Err(err).Str("delivery_id", id.String()).Msg("retry lease unavailable, proceeding")
		return true, release
	}
	if !ok {
		return false, release
	}
	return true, func() {
		if err := s.lease.Release(context.WithoutCancel(ctx), id); err != nil {
			s.log.Warn().Err(err).Str("delivery_id", id.String()).Msg("release retry lease")
		}
	}
}

// persistContext outlives the caller's deadline so a decided outcome is
// recorded even when the dispatch budget ran out.
func (s *deliveryService) persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.cfg.PersistTimeout)
}

type retryOutcome int

const (
	retryAttempted retryOutcome = iota
	retrySkippedOpen
	retrySkippedHeld
)

func (s *deliveryService) retryOne(ctx context.Context, d *domain.WebhookDelivery) (outcome retryOutcome, err error) {
	defer recoverTo(&err, "retry "+d.ID.String())

	if s.breaker.State(d.EndpointID.String()) == domain.CircuitOpen {
		return retrySkippedOpen, nil
	}

	held, release := s.holdLease(ctx, d.ID)
	defer release()
	if !held {
		return retrySkippedHeld, nil
	}

	// The scan returns deliveries without attempt history.
	full, err := s.deliveries.GetByID(ctx, d.ID)
	if err != nil {
		return retryAttempted, fmt.Errorf("load delivery: %w", err)
	}
	if full == nil || full.IsTerminal() {
		return retrySkippedHeld, nil
	}
	*d = *full

	event, err := s.events.GetByID(ctx, d.EventID)
	if err != nil {
		return retryAttempted, fmt.Errorf("load event: %w", err)
	}
	if event == nil {
		return retryAttempted, s.failWithoutAttempt(ctx, d, domain.ReasonConfigurationError, "source event no longer exists", nil)
	}

	endpoint, err := s.endpoints.GetByID(ctx, d.EndpointID)
	if err != nil {
		return retryAttempted, fmt.Errorf("load endpoint: %w", err)
	}

	return retryAttempted, s.execute(ctx, d, event, endpoint)
}

// CancelDelivery halts retries. Cancelling a SUCCESS or already CANCELLED
// delivery is a no-op that returns the unchanged delivery.
func (s *deliveryService) CancelDelivery(ctx context.Context, id uuid.UUID, reason string) (*domain.WebhookDelivery, error) {
	d, err := s.deliveries.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if d == nil {
		return nil, apperror.ErrDeliveryNotFound()
	}

	if !d.Cancel(reason, s.now()) {
		return d, nil
	}
	if err := s.deliveries.Update(ctx, d); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	s.log.Info().Str("delivery_id", id.String()).Str("reason", reason).Msg("delivery cancelled")
	return d, nil
}

// GetDelivery returns a delivery with its attempts.
func (s *deliveryService) GetDelivery(ctx context.Context, id uuid.UUID) (*domain.WebhookDelivery, error) {
	d, err := s.deliveries.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if d == nil {
		return nil, apperror.ErrDeliveryNotFound()
	}
	return d, nil
}

// execute runs one gated attempt and persists the resulting state.
func (s *deliveryService) execute(ctx context.Context, d *domain.WebhookDelivery, event *domain.DomainEvent, endpoint *domain.WebhookEndpoint) error {
	switch {
	case endpoint == nil || endpoint.IsDeleted():
		return s.failWithoutAttempt(ctx, d, domain.ReasonEndpointDeleted, "endpoint deleted", nil)
	case !endpoint.IsActive:
		return s.failWithoutAttempt(ctx, d, domain.ReasonEndpointDisabled, "endpoint disabled", nil)
	}

	secret, err := s.encSvc.Decrypt(endpoint.SecretEnc)
	if err != nil {
		return s.failWithoutAttempt(ctx, d, domain.ReasonConfigurationError, "endpoint secret unreadable", map[string]any{"error": err.Error()})
	}

	req, err := s.signer.BuildRequest(d, event, endpoint, secret)
	if err != nil {
		if errors.Is(err, domain.ErrSecurityViolation) {
			return s.failWithoutAttempt(ctx, d, domain.ReasonSecurityViolation, err.Error(), map[string]any{"url": endpoint.URL})
		}
		return s.failWithoutAttempt(ctx, d, domain.ReasonConfigurationError, err.Error(), nil)
	}

	if err := s.limiter.Wait(ctx, endpoint); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	key := endpoint.ID.String()
	if err := s.breaker.Allow(key); err != nil {
		var coe *domain.CircuitOpenError
		if errors.As(err, &coe) {
			return s.deferForCircuit(ctx, d, coe)
		}
		return err
	}

	startedAt := s.now()
	if _, err := d.StartAttempt(req.Snapshot(), startedAt); err != nil {
		s.breaker.RecordFailure(key)
		return fmt.Errorf("start attempt: %w", err)
	}

	log := s.log.With().
		Str("delivery_id", d.ID.String()).
		Str("endpoint_id", key).
		Int("attempt", d.AttemptCount()).
		Logger()

	resp, sendErr := s.transport.Send(ctx, ports.HTTPRequest{
		Method:  req.Method,
		URL:     req.URL,
		Headers: req.Headers,
		Body:    req.Body,
		Timeout: endpoint.Timeout(s.cfg.DefaultTimeout),
	})
	completedAt := s.now()

	var (
		outcome domain.AttemptOutcome
		kind    domain.ErrorKind
		errMsg  string
		snap    *domain.ResponseSnapshot
	)
	if sendErr != nil {
		outcome = domain.OutcomeRetryable
		kind = classifyTransportError(sendErr)
		errMsg = sendErr.Error()
	} else {
		snap = &domain.ResponseSnapshot{
			StatusCode: resp.StatusCode,
			Headers:    resp.Headers,
			Body:       storableBody(resp.Body),
			Truncated:  resp.Truncated,
			LatencyMs:  resp.Latency.Milliseconds(),
		}
		outcome, kind = domain.ClassifyStatus(resp.StatusCode)
		if outcome != domain.OutcomeSuccess {
			errMsg = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
	}
	if outcome == domain.OutcomeSuccess {
		s.breaker.RecordSuccess(key)
	} else {
		s.breaker.RecordFailure(key)
	}

	if _, err := d.CompleteAttempt(snap, kind, errMsg, completedAt); err != nil {
		return fmt.Errorf("complete attempt: %w", err)
	}
	reason, failed := d.ApplyOutcome(outcome, domain.ReasonPermanent4xx, completedAt, s.cfg.MaxBackoffSeconds)

	// The attempt happened; record it even if the caller gave up meanwhile.
	persistCtx, cancel := s.persistContext(ctx)
	defer cancel()

	if err := s.deliveries.SaveAttempt(persistCtx, d, d.LatestAttempt()); err != nil {
		if errors.Is(err, domain.ErrDeliveryCancelled) {
			log.Info().Msg("delivery cancelled during attempt, result kept for audit")
			if fresh, gerr := s.deliveries.GetByID(persistCtx, d.ID); gerr == nil && fresh != nil {
				*d = *fresh
			}
			return nil
		}
		log.Error().Err(err).Msg("failed to record attempt")
		return fmt.Errorf("save attempt: %w", err)
	}

	switch {
	case d.Status == domain.DeliveryStatusSuccess:
		log.Info().Int("status", snap.StatusCode).Int64("latency_ms", snap.LatencyMs).Msg("delivery succeeded")
		s.touchEndpoint(ctx, endpoint.ID, completedAt)
		s.notifyCompleted(ctx, d)
	case failed:
		log.Warn().Str("reason", string(reason)).Str("error", errMsg).Msg("delivery failed permanently")
		s.touchEndpoint(ctx, endpoint.ID, completedAt)
		return s.deadLetter(persistCtx, d, reason, attemptDetails(kind, errMsg, snap))
	default:
		log.Warn().Str("error_kind", string(kind)).Str("error", errMsg).Time("next_retry_at", *d.NextRetryAt).Msg("delivery attempt failed, retry scheduled")
	}
	return nil
}

func (s *deliveryService) deferForCircuit(ctx context.Context, d *domain.WebhookDelivery, coe *domain.CircuitOpenError) error {
	if s.cfg.MaxCircuitDeferrals > 0 && d.CircuitDeferrals >= s.cfg.MaxCircuitDeferrals {
		return s.failWithoutAttempt(ctx, d, domain.ReasonCircuitBreakerPermanent,
			fmt.Sprintf("circuit still open after %d deferrals", d.CircuitDeferrals), nil)
	}

	d.Defer(coe.RetryAfter, s.now())
	persistCtx, cancel := s.persistContext(ctx)
	defer cancel()
	if err := s.deliveries.Update(persistCtx, d); err != nil {
		return fmt.Errorf("defer delivery: %w", err)
	}

	s.log.Debug().
		Str("delivery_id", d.ID.String()).
		Str("endpoint_id", coe.EndpointID).
		Str("circuit", string(coe.State)).
		Dur("retry_after", coe.RetryAfter).
		Msg("circuit open, delivery deferred")
	return nil
}

// failWithoutAttempt fails a delivery for a reason found before any request
// was sent.
func (s *deliveryService) failWithoutAttempt(ctx context.Context, d *domain.WebhookDelivery, reason domain.DeadLetterReason, summary string, details map[string]any) error {
	msg := summary
	d.LastError = &msg
	d.Fail(reason, s.now())

	persistCtx, cancel := s.persistContext(ctx)
	defer cancel()

	if err := s.deliveries.Update(persistCtx, d); err != nil {
		return fmt.Errorf("fail delivery: %w", err)
	}

	s.log.Warn().
		Str("delivery_id", d.ID.String()).
		Str("endpoint_id", d.EndpointID.String()).
		Str("reason", string(reason)).
		Msg(summary)

	if details == nil {
		details = map[string]any{}
	}
	details["summary"] = summary
	return s.deadLetter(persistCtx, d, reason, details)
}

func (s *deliveryService) deadLetter(ctx context.Context, d *domain.WebhookDelivery, reason domain.DeadLetterReason, details map[string]any) error {
	if _, err := s.dlq.AddEntry(ctx, d, reason, details); err != nil {
		s.log.Error().Err(err).Str("delivery_id", d.ID.String()).Msg("failed to dead-letter delivery")
		return fmt.Errorf("add dead letter entry: %w", err)
	}
	s.notifyCompleted(ctx, d)
	return nil
}

func (s *deliveryService) touchEndpoint(ctx context.Context, id uuid.UUID, at time.Time) {
	s.detached.Go(ctx, "endpoint.update_last_used", func(ctx context.Context) error {
		return s.endpoints.UpdateLastUsed(ctx, id, at)
	})
}

func (s *deliveryService) notifyCompleted(ctx context.Context, d *domain.WebhookDelivery) {
	if s.notifier == nil {
		return
	}
	snap := *d
	s.detached.Go(ctx, "notify.delivery_completed", func(ctx context.Context) error {
		return s.notifier.DeliveryCompleted(ctx, &snap)
	})
}

func attemptDetails(kind domain.ErrorKind, errMsg string, snap *domain.ResponseSnapshot) map[string]any {
	details := map[string]any{"error_kind": string(kind)}
	if errMsg != "" {
		details["error"] = errMsg
	}
	if snap != nil {
		details["status_code"] = snap.StatusCode
		details["response_body"] = snap.Body
	}
	return details
}

// storableBody turns a response body into text a JSONB column accepts:
// invalid UTF-8 becomes U+FFFD and NUL characters are dropped.
func storableBody(b []byte) string {
	body := strings.ToValidUTF8(string(b), "\uFFFD")
	return strings.ReplaceAll(body, "\x00", "")
}

func classifyTransportError(err error) domain.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrorKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.ErrorKindTimeout
	}
	return domain.ErrorKindNetwork
}
