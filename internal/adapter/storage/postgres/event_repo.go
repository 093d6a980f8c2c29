package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"webhook-dispatcher/internal/core/domain"
	"webhook-dispatcher/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	eventColumnsDispatch = `id, event_type, aggregate_type, aggregate_id, payload, context_id, correlation_id, causation_id, occurred_at`
	eventColumnsFull     = eventColumnsDispatch + `, processed_at`
)

// DefaultClaimLease is how long a claimed event stays invisible to other
// dispatchers before it may be claimed again.
const DefaultClaimLease = 15 * time.Minute

// EventRepo implements ports.EventRepository over the domain_events outbox.
//
// Claiming stamps claimed_until on the selected rows inside one statement, so
// the row locks of FOR UPDATE SKIP LOCKED only need to live for that
// statement. A crashed dispatcher's claims expire after the lease.
type EventRepo struct {
	pool       Pool
	claimLease time.Duration
}

// NewEventRepo creates a new EventRepo.
func NewEventRepo(pool Pool, claimLease time.Duration) *EventRepo {
	if claimLease <= 0 {
		claimLease = DefaultClaimLease
	}
	return &EventRepo{pool: pool, claimLease: claimLease}
}

// GetUnprocessedForUpdate claims up to limit unprocessed events, oldest first.
func (r *EventRepo) GetUnprocessedForUpdate(ctx context.Context, limit int, skipLocked bool, projection ports.EventProjection) ([]domain.DomainEvent, error) {
	lock := "FOR UPDATE"
	if skipLocked {
		lock += " SKIP LOCKED"
	}
	cols := eventColumnsFull
	if projection == ports.ProjectionDispatch {
		cols = eventColumnsDispatch
	}

	query := fmt.Sprintf(`WITH claimed AS (
			SELECT id FROM domain_events
			WHERE processed_at IS NULL AND (claimed_until IS NULL OR claimed_until < now())
			ORDER BY occurred_at, id
			LIMIT $1
			%s
		)
		UPDATE domain_events SET claimed_until = now() + make_interval(secs => $2)
		FROM claimed WHERE domain_events.id = claimed.id
		RETURNING %s`, lock, qualify("domain_events", cols))

	rows, err := r.pool.Query(ctx, query, limit, r.claimLease.Seconds())
	if err != nil {
		return nil, fmt.Errorf("claim unprocessed events: %w", err)
	}
	events, err := collectEvents(rows, projection == ports.ProjectionFull)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(events, func(a, b domain.DomainEvent) int {
		return a.OccurredAt.Compare(b.OccurredAt)
	})
	return events, nil
}

// GetUnprocessedPaginated lists the backlog without claiming it.
func (r *EventRepo) GetUnprocessedPaginated(ctx context.Context, limit, offset int) ([]domain.DomainEvent, error) {
	query := `SELECT ` + eventColumnsFull + ` FROM domain_events
		WHERE processed_at IS NULL
		ORDER BY occurred_at, id
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed events: %w", err)
	}
	return collectEvents(rows, true)
}

// MarkProcessed stamps processed_at on the given events and releases their
// claim. Already processed events are left alone.
func (r *EventRepo) MarkProcessed(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE domain_events SET processed_at = now(), claimed_until = NULL
		 WHERE id = ANY($1) AND processed_at IS NULL`, ids)
	if err != nil {
		return 0, fmt.Errorf("mark events processed: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountUnprocessed returns the backlog size.
func (r *EventRepo) CountUnprocessed(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM domain_events WHERE processed_at IS NULL`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unprocessed events: %w", err)
	}
	return n, nil
}

// GetByID fetches one event.
func (r *EventRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.DomainEvent, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+eventColumnsFull+` FROM domain_events WHERE id = $1`, id)
	e, err := scanEvent(row, true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get event by id: %w", err)
	}
	return e, nil
}

func collectEvents(rows pgx.Rows, withProcessed bool) ([]domain.DomainEvent, error) {
	defer rows.Close()

	var events []domain.DomainEvent
	for rows.Next() {
		e, err := scanEvent(rows, withProcessed)
		if err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return events, nil
}

func scanEvent(row pgx.Row, withProcessed bool) (*domain.DomainEvent, error) {
	var (
		e       domain.DomainEvent
		payload []byte
	)
	dest := []any{
		&e.ID, &e.EventType, &e.AggregateType, &e.AggregateID, &payload,
		&e.ContextID, &e.CorrelationID, &e.CausationID, &e.OccurredAt,
	}
	if withProcessed {
		dest = append(dest, &e.ProcessedAt)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(payload, &e.Payload); err != nil {
		return nil, err
	}
	return &e, nil
}
