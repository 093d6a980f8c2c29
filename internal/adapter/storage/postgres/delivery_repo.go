package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"webhook-dispatcher/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const deliveryColumns = `id, endpoint_id, event_id, event_type, current_attempt, status, max_attempts,
	base_backoff_seconds, backoff_multiplier, next_retry_at, max_attempts_reached, circuit_deferrals,
	failure_reason, last_error, cancel_reason, created_at, updated_at, completed_at`

// DeliveryRepo implements ports.DeliveryRepository.
type DeliveryRepo struct {
	pool Pool
}

// NewDeliveryRepo creates a new DeliveryRepo.
func NewDeliveryRepo(pool Pool) *DeliveryRepo {
	return &DeliveryRepo{pool: pool}
}

// Create inserts a new delivery. It returns domain.ErrDeliveryExists when the
// (event, endpoint) pair already has one.
func (r *DeliveryRepo) Create(ctx context.Context, d *domain.WebhookDelivery) error {
	query := `INSERT INTO webhook_deliveries (` + deliveryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (event_id, endpoint_id) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query,
		d.ID, d.EndpointID, d.EventID, d.EventType, d.CurrentAttempt, string(d.Status), d.MaxAttempts,
		d.BaseBackoffSeconds, d.BackoffMultiplier, d.NextRetryAt, d.MaxAttemptsReached, d.CircuitDeferrals,
		reasonText(d.FailureReason), d.LastError, d.CancelReason, d.CreatedAt, d.UpdatedAt, d.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDeliveryExists
	}
	return nil
}

// GetByID fetches a delivery with its attempts in order.
func (r *DeliveryRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookDelivery, error) {
	d, err := scanDelivery(r.pool.QueryRow(ctx, `SELECT `+deliveryColumns+` FROM webhook_deliveries WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get delivery by id: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, delivery_id, attempt_number, request, response, error_kind, error_message, attempted_at, completed_at
		 FROM webhook_delivery_attempts WHERE delivery_id = $1 ORDER BY attempt_number`, id)
	if err != nil {
		return nil, fmt.Errorf("list delivery attempts: %w", err)
	}
	defer rows.Close()

	d.Attempts = []domain.WebhookDeliveryAttempt{}
	for rows.Next() {
		var (
			a         domain.WebhookDeliveryAttempt
			req, resp []byte
			kind      string
		)
		if err := rows.Scan(&a.ID, &a.DeliveryID, &a.AttemptNumber, &req, &resp, &kind, &a.ErrorMessage, &a.AttemptedAt, &a.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan attempt row: %w", err)
		}
		a.ErrorKind = domain.ErrorKind(kind)
		if err := unmarshalJSONB(req, &a.Request); err != nil {
			return nil, err
		}
		if len(resp) > 0 {
			a.Response = &domain.ResponseSnapshot{}
			if err := unmarshalJSONB(resp, a.Response); err != nil {
				return nil, err
			}
		}
		d.Attempts = append(d.Attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempt rows: %w", err)
	}
	return d, nil
}

// SaveAttempt stores the attempt and the delivery state in one transaction.
// The delivery row is locked first; if it was cancelled meanwhile the attempt
// is kept for the record but the cancelled state wins.
func (r *DeliveryRepo) SaveAttempt(ctx context.Context, d *domain.WebhookDelivery, attempt *domain.WebhookDeliveryAttempt) error {
	req, err := marshalJSONB(attempt.Request)
	if err != nil {
		return err
	}
	var resp []byte
	if attempt.Response != nil {
		if resp, err = marshalJSONB(attempt.Response); err != nil {
			return err
		}
	}

	var cancelled bool
	err = inTx(ctx, r.pool, "save attempt", func(tx pgx.Tx) error {
		var status string
		if err := tx.QueryRow(ctx, `SELECT status FROM webhook_deliveries WHERE id = $1 FOR UPDATE`, d.ID).Scan(&status); err != nil {
			return fmt.Errorf("lock delivery: %w", err)
		}

		_, err := tx.Exec(ctx,
			`INSERT INTO webhook_delivery_attempts
				(id, delivery_id, attempt_number, request, response, error_kind, error_message, attempted_at, completed_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (delivery_id, attempt_number) DO UPDATE
				SET response = EXCLUDED.response, error_kind = EXCLUDED.error_kind,
				    error_message = EXCLUDED.error_message, completed_at = EXCLUDED.completed_at`,
			attempt.ID, d.ID, attempt.AttemptNumber, req, resp, string(attempt.ErrorKind),
			attempt.ErrorMessage, attempt.AttemptedAt, attempt.CompletedAt,
		)
		if err != nil {
			return fmt.Errorf("insert attempt: %w", err)
		}

		// A concurrent cancel wins: the attempt is kept, the status is not
		// overwritten.
		cancelled = domain.DeliveryStatus(status) == domain.DeliveryStatusCancelled
		if cancelled {
			return nil
		}
		return updateDelivery(ctx, tx, d)
	})
	if err != nil {
		return err
	}
	if cancelled {
		return domain.ErrDeliveryCancelled
	}
	return nil
}

// Update stores the delivery state.
func (r *DeliveryRepo) Update(ctx context.Context, d *domain.WebhookDelivery) error {
	return updateDelivery(ctx, r.pool, d)
}

// GetDueForRetry lists non-terminal deliveries whose retry time has come,
// earliest first. Attempts are not loaded.
func (r *DeliveryRepo) GetDueForRetry(ctx context.Context, now time.Time, limit int) ([]domain.WebhookDelivery, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+deliveryColumns+` FROM webhook_deliveries
		 WHERE status IN ('PENDING', 'RETRYING') AND next_retry_at <= $1
		 ORDER BY next_retry_at
		 LIMIT $2`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("get due deliveries: %w", err)
	}
	defer rows.Close()

	var out []domain.WebhookDelivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan delivery row: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate delivery rows: %w", err)
	}
	return out, nil
}

// ResetForReplay drops the attempt history and stores the reset delivery.
func (r *DeliveryRepo) ResetForReplay(ctx context.Context, d *domain.WebhookDelivery) error {
	return inTx(ctx, r.pool, "replay reset", func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM webhook_delivery_attempts WHERE delivery_id = $1`, d.ID); err != nil {
			return fmt.Errorf("delete attempts: %w", err)
		}
		return updateDelivery(ctx, tx, d)
	})
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func updateDelivery(ctx context.Context, db execer, d *domain.WebhookDelivery) error {
	tag, err := db.Exec(ctx,
		`UPDATE webhook_deliveries SET
			endpoint_id = $1, current_attempt = $2, status = $3, next_retry_at = $4,
			max_attempts_reached = $5, circuit_deferrals = $6, failure_reason = $7,
			last_error = $8, cancel_reason = $9, updated_at = $10, completed_at = $11
		 WHERE id = $12`,
		d.EndpointID, d.CurrentAttempt, string(d.Status), d.NextRetryAt,
		d.MaxAttemptsReached, d.CircuitDeferrals, reasonText(d.FailureReason),
		d.LastError, d.CancelReason, d.UpdatedAt, d.CompletedAt, d.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDeliveryExists
		}
		return fmt.Errorf("update delivery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delivery not found: %s", d.ID)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scanDelivery(row pgx.Row) (*domain.WebhookDelivery, error) {
	var (
		d      domain.WebhookDelivery
		status string
		reason *string
	)
	err := row.Scan(
		&d.ID, &d.EndpointID, &d.EventID, &d.EventType, &d.CurrentAttempt, &status, &d.MaxAttempts,
		&d.BaseBackoffSeconds, &d.BackoffMultiplier, &d.NextRetryAt, &d.MaxAttemptsReached, &d.CircuitDeferrals,
		&reason, &d.LastError, &d.CancelReason, &d.CreatedAt, &d.UpdatedAt, &d.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Status = domain.DeliveryStatus(status)
	if reason != nil {
		r := domain.DeadLetterReason(*reason)
		d.FailureReason = &r
	}
	return &d, nil
}

func reasonText(r *domain.DeadLetterReason) *string {
	if r == nil {
		return nil
	}
	s := string(*r)
	return &s
}
