package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"webhook-dispatcher/internal/core/domain"
	"webhook-dispatcher/internal/core/ports"
	"webhook-dispatcher/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultDeadLetterRetention is how long entries are kept.
const DefaultDeadLetterRetention = 30 * 24 * time.Hour

// deadLetterService implements ports.DeadLetterQueue.
type deadLetterService struct {
	retention  time.Duration
	entries    ports.DeadLetterRepository
	deliveries ports.DeliveryRepository
	endpoints  ports.EndpointRepository
	events     ports.EventRepository
	notifier   ports.Notifier
	detached   *DetachedRunner
	log        zerolog.Logger
	now        func() time.Time
}

// NewDeadLetterService creates a new dead letter queue. notifier may be nil.
func NewDeadLetterService(
	retention time.Duration,
	entries ports.DeadLetterRepository,
	deliveries ports.DeliveryRepository,
	endpoints ports.EndpointRepository,
	events ports.EventRepository,
	notifier ports.Notifier,
	detached *DetachedRunner,
	log zerolog.Logger,
) ports.DeadLetterQueue {
	if retention <= 0 {
		retention = DefaultDeadLetterRetention
	}
	if detached == nil {
		detached = NewDetachedRunner(0, log)
	}
	return &deadLetterService{
		retention:  retention,
		entries:    entries,
		deliveries: deliveries,
		endpoints:  endpoints,
		events:     events,
		notifier:   notifier,
		detached:   detached,
		log:        log,
		now:        time.Now,
	}
}

// AddEntry admits a failed delivery. A delivery has at most one entry; a
// replayed delivery that fails again refreshes its existing entry.
func (s *deadLetterService) AddEntry(ctx context.Context, d *domain.WebhookDelivery, reason domain.DeadLetterReason, details map[string]any) (*domain.DeadLetterEntry, error) {
	now := s.now()
	summary := string(reason)
	if d.LastError != nil && *d.LastError != "" {
		summary = *d.LastError
	}

	entry := domain.NewDeadLetterEntry(d, reason, summary, s.retention, now)
	entry.ErrorDetails = details
	entry.EventSnapshot = s.eventSnapshot(ctx, d.EventID)

	existing, err := s.entries.GetByDeliveryID(ctx, d.ID)
	if err != nil {
		return nil, fmt.Errorf("get dead letter by delivery: %w", err)
	}

	if existing != nil {
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
		entry.RecoveryAttempts = existing.RecoveryAttempts
		entry.LastRecoveryAt = existing.LastRecoveryAt
		entry.RedirectedEndpointID = existing.RedirectedEndpointID
		if err := s.entries.Update(ctx, entry); err != nil {
			return nil, fmt.Errorf("refresh dead letter: %w", err)
		}
	} else if err := s.entries.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create dead letter: %w", err)
	}

	s.log.Warn().
		Str("delivery_id", d.ID.String()).
		Str("event_id", d.EventID.String()).
		Str("endpoint_id", d.EndpointID.String()).
		Str("reason", string(reason)).
		Int("attempts", entry.AttemptCount).
		Msg("delivery dead-lettered")

	if s.notifier != nil {
		snap := *entry
		s.detached.Go(ctx, "notify.dead_lettered", func(ctx context.Context) error {
			return s.notifier.DeadLettered(ctx, &snap)
		})
	}
	return entry, nil
}

// eventSnapshot copies the source event. A missing event never blocks
// admission.
func (s *deadLetterService) eventSnapshot(ctx context.Context, eventID uuid.UUID) map[string]any {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		s.log.Warn().Err(err).Str("event_id", eventID.String()).Msg("event snapshot unavailable")
		return nil
	}
	if event == nil {
		return nil
	}
	snap := map[string]any{
		"id":             event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID,
		"payload":        event.Payload,
		"occurred_at":    event.OccurredAt,
	}
	if event.ContextID != nil {
		snap["context_id"] = event.ContextID.String()
	}
	return snap
}

// ProcessQueue applies the default action to up to batchSize unprocessed
// entries.
func (s *deadLetterService) ProcessQueue(ctx context.Context, batchSize int) (*ports.DeadLetterProcessResult, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	pending, err := s.entries.GetUnprocessed(ctx, batchSize)
	if err != nil {
		return nil, fmt.Errorf("get unprocessed dead letters: %w", err)
	}

	result := &ports.DeadLetterProcessResult{}
	now := s.now()
	for i := range pending {
		e := &pending[i]
		action := domain.DefaultActionFor(e.Reason)

		if action == domain.ActionDelete {
			if err := s.entries.Delete(ctx, e.ID); err != nil {
				result.Errors++
				s.log.Error().Err(err).Str("entry_id", e.ID.String()).Msg("delete dead letter")
				continue
			}
			result.Deleted++
			result.Processed++
			continue
		}

		e.MarkProcessed(action, now)
		if err := s.entries.Update(ctx, e); err != nil {
			result.Errors++
			s.log.Error().Err(err).Str("entry_id", e.ID.String()).Msg("update dead letter")
			continue
		}
		result.Processed++
		if action == domain.ActionArchive {
			result.Archived++
		} else {
			result.ManualReview++
		}
	}

	if result.Processed > 0 || result.Errors > 0 {
		s.log.Info().
			Int("processed", result.Processed).
			Int("archived", result.Archived).
			Int("deleted", result.Deleted).
			Int("manual_review", result.ManualReview).
			Int("errors", result.Errors).
			Msg("dead letter queue processed")
	}
	return result, nil
}

// RetryEntry resets the dead-lettered delivery to PENDING, optionally pointing
// it at another endpoint. The retry scan picks it up on its next pass.
func (s *deadLetterService) RetryEntry(ctx context.Context, deliveryID uuid.UUID, newEndpointID *uuid.UUID) (*domain.WebhookDelivery, error) {
	entry, err := s.entries.GetByDeliveryID(ctx, deliveryID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if entry == nil {
		return nil, apperror.ErrDeadLetterNotFound()
	}

	d, err := s.deliveries.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if d == nil {
		return nil, apperror.ErrDeliveryNotFound()
	}
	if d.Status != domain.DeliveryStatusFailed {
		return nil, apperror.ErrDeliveryNotReplayable(string(d.Status))
	}

	if !entry.CanRecover() {
		return nil, apperror.ErrRecoveryLimitReached()
	}
	if newEndpointID != nil {
		target, err := s.endpoints.GetByID(ctx, *newEndpointID)
		if err != nil {
			return nil, apperror.ErrDatabaseError(err)
		}
		if target == nil || target.IsDeleted() {
			return nil, apperror.ErrEndpointNotFound()
		}
	}

	// The delivery is reset before the entry counts the replay, so a failed
	// reset leaves both untouched.
	now := s.now()
	d.ResetForReplay(newEndpointID, now)
	if err := s.deliveries.ResetForReplay(ctx, d); err != nil {
		if errors.Is(err, domain.ErrDeliveryExists) {
			return nil, apperror.ErrDeliveryExists()
		}
		return nil, apperror.ErrDatabaseError(err)
	}

	if err := entry.RecordRecovery(newEndpointID, now); err != nil {
		return nil, err
	}
	if err := s.entries.Update(ctx, entry); err != nil {
		// The replay is already scheduled; only the counter is behind.
		s.log.Error().Err(err).Str("delivery_id", deliveryID.String()).Msg("failed to record dead letter replay")
	}

	s.log.Info().
		Str("delivery_id", deliveryID.String()).
		Str("endpoint_id", d.EndpointID.String()).
		Int("recovery_attempt", entry.RecoveryAttempts).
		Msg("dead letter replay scheduled")
	return d, nil
}

// CleanupExpired deletes every entry past its expiry, processed or not.
func (s *deadLetterService) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.entries.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("delete expired dead letters: %w", err)
	}
	if n > 0 {
		s.log.Info().Int64("deleted", n).Msg("expired dead letters removed")
	}
	return n, nil
}

// List returns a page of entries.
func (s *deadLetterService) List(ctx context.Context, filter ports.DeadLetterFilter) ([]domain.DeadLetterEntry, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	entries, total, err := s.entries.List(ctx, filter)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(err)
	}
	return entries, total, nil
}
