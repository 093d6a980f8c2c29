package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"webhook-dispatcher/internal/core/domain"
	"webhook-dispatcher/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const deadLetterColumns = `id, delivery_id, event_id, endpoint_id, event_type, reason, failure_summary,
	error_details, last_http_status, attempt_count, retry_history, event_snapshot, expires_at,
	is_processed, processed_at, action, requires_manual_review, archived_at, recovery_attempts,
	last_recovery_at, redirected_endpoint_id, created_at, updated_at`

// DeadLetterRepo implements ports.DeadLetterRepository.
type DeadLetterRepo struct {
	pool Pool
}

// NewDeadLetterRepo creates a new DeadLetterRepo.
func NewDeadLetterRepo(pool Pool) *DeadLetterRepo {
	return &DeadLetterRepo{pool: pool}
}

// Create inserts an entry. A delivery has at most one entry.
func (r *DeadLetterRepo) Create(ctx context.Context, e *domain.DeadLetterEntry) error {
	details, history, snapshot, err := encodeDeadLetterJSON(e)
	if err != nil {
		return err
	}

	query := `INSERT INTO dead_letter_entries (` + deadLetterColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`

	_, err = r.pool.Exec(ctx, query,
		e.ID, e.DeliveryID, e.EventID, e.EndpointID, e.EventType, string(e.Reason), e.FailureSummary,
		details, e.LastHTTPStatus, e.AttemptCount, history, snapshot, e.ExpiresAt,
		e.IsProcessed, e.ProcessedAt, actionText(e.Action), e.RequiresManualReview, e.ArchivedAt, e.RecoveryAttempts,
		e.LastRecoveryAt, e.RedirectedEndpointID, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert dead letter: %w", err)
	}
	return nil
}

// GetByDeliveryID returns the entry for a delivery, or nil.
func (r *DeadLetterRepo) GetByDeliveryID(ctx context.Context, deliveryID uuid.UUID) (*domain.DeadLetterEntry, error) {
	e, err := scanDeadLetter(r.pool.QueryRow(ctx,
		`SELECT `+deadLetterColumns+` FROM dead_letter_entries WHERE delivery_id = $1`, deliveryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get dead letter by delivery: %w", err)
	}
	return e, nil
}

// GetUnprocessed lists entries the reaper has not handled yet, oldest first.
func (r *DeadLetterRepo) GetUnprocessed(ctx context.Context, limit int) ([]domain.DeadLetterEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+deadLetterColumns+` FROM dead_letter_entries
		 WHERE NOT is_processed
		 ORDER BY created_at
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("get unprocessed dead letters: %w", err)
	}
	return collectDeadLetters(rows)
}

// Update stores the mutable fields of an entry.
func (r *DeadLetterRepo) Update(ctx context.Context, e *domain.DeadLetterEntry) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE dead_letter_entries SET
			is_processed = $1, processed_at = $2, action = $3, requires_manual_review = $4,
			archived_at = $5, recovery_attempts = $6, last_recovery_at = $7,
			redirected_endpoint_id = $8, updated_at = $9
		 WHERE id = $10`,
		e.IsProcessed, e.ProcessedAt, actionText(e.Action), e.RequiresManualReview,
		e.ArchivedAt, e.RecoveryAttempts, e.LastRecoveryAt,
		e.RedirectedEndpointID, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update dead letter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("dead letter not found: %s", e.ID)
	}
	return nil
}

// Delete removes one entry.
func (r *DeadLetterRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM dead_letter_entries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete dead letter: %w", err)
	}
	return nil
}

// DeleteExpired removes entries past their retention.
func (r *DeadLetterRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM dead_letter_entries WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired dead letters: %w", err)
	}
	return tag.RowsAffected(), nil
}

// List fetches entries with filtering and pagination, newest first.
func (r *DeadLetterRepo) List(ctx context.Context, filter ports.DeadLetterFilter) ([]domain.DeadLetterEntry, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if !filter.IncludeProcessed {
		conditions = append(conditions, "NOT is_processed")
	}
	if filter.Reason != nil {
		conditions = append(conditions, fmt.Sprintf("reason = $%d", argIdx))
		args = append(args, string(*filter.Reason))
		argIdx++
	}
	if filter.EndpointID != nil {
		conditions = append(conditions, fmt.Sprintf("endpoint_id = $%d", argIdx))
		args = append(args, *filter.EndpointID)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM dead_letter_entries "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count dead letters: %w", err)
	}

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	dataQuery := fmt.Sprintf(`SELECT %s FROM dead_letter_entries %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		deadLetterColumns, where, argIdx, argIdx+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list dead letters: %w", err)
	}
	entries, err := collectDeadLetters(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func collectDeadLetters(rows pgx.Rows) ([]domain.DeadLetterEntry, error) {
	defer rows.Close()

	var out []domain.DeadLetterEntry
	for rows.Next() {
		e, err := scanDeadLetter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dead letter row: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dead letter rows: %w", err)
	}
	return out, nil
}

func scanDeadLetter(row pgx.Row) (*domain.DeadLetterEntry, error) {
	var (
		e                          domain.DeadLetterEntry
		reason                     string
		action                     *string
		details, history, snapshot []byte
	)
	err := row.Scan(
		&e.ID, &e.DeliveryID, &e.EventID, &e.EndpointID, &e.EventType, &reason, &e.FailureSummary,
		&details, &e.LastHTTPStatus, &e.AttemptCount, &history, &snapshot, &e.ExpiresAt,
		&e.IsProcessed, &e.ProcessedAt, &action, &e.RequiresManualReview, &e.ArchivedAt, &e.RecoveryAttempts,
		&e.LastRecoveryAt, &e.RedirectedEndpointID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Reason = domain.DeadLetterReason(reason)
	if action != nil {
		a := domain.DeadLetterAction(*action)
		e.Action = &a
	}
	if err := unmarshalJSONB(details, &e.ErrorDetails); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(history, &e.RetryHistory); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(snapshot, &e.EventSnapshot); err != nil {
		return nil, err
	}
	return &e, nil
}

func encodeDeadLetterJSON(e *domain.DeadLetterEntry) (details, history, snapshot []byte, err error) {
	if details, err = marshalJSONB(e.ErrorDetails); err != nil {
		return nil, nil, nil, err
	}
	retry := e.RetryHistory
	if retry == nil {
		retry = []domain.AttemptSummary{}
	}
	if history, err = marshalJSONB(retry); err != nil {
		return nil, nil, nil, err
	}
	if snapshot, err = marshalJSONB(e.EventSnapshot); err != nil {
		return nil, nil, nil, err
	}
	return details, history, snapshot, nil
}

func actionText(a *domain.DeadLetterAction) *string {
	if a == nil {
		return nil
	}
	s := string(*a)
	return &s
}
