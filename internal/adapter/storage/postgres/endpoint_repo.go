package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"webhook-dispatcher/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EndpointRepo implements ports.EndpointRepository. Soft-deleted endpoints
// are still returned so the delivery path can tell deleted from unknown.
type EndpointRepo struct {
	pool Pool
}

// NewEndpointRepo creates a new EndpointRepo.
func NewEndpointRepo(pool Pool) *EndpointRepo {
	return &EndpointRepo{pool: pool}
}

// GetByID fetches an endpoint by its UUID.
func (r *EndpointRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookEndpoint, error) {
	query := `SELECT id, context_id, url, method, secret_enc, signature_header, headers, timeout_seconds,
		is_active, is_verified, max_attempts, base_backoff_seconds, backoff_multiplier,
		rate_limit_per_second, last_used_at, deleted_at, created_at, updated_at
		FROM webhook_endpoints WHERE id = $1`

	var (
		e       domain.WebhookEndpoint
		headers []byte
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.ContextID, &e.URL, &e.Method, &e.SecretEnc, &e.SignatureHeader, &headers, &e.TimeoutSeconds,
		&e.IsActive, &e.IsVerified, &e.MaxAttempts, &e.BaseBackoffSeconds, &e.BackoffMultiplier,
		&e.RateLimitPerSecond, &e.LastUsedAt, &e.DeletedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get endpoint by id: %w", err)
	}
	if err := unmarshalJSONB(headers, &e.Headers); err != nil {
		return nil, fmt.Errorf("endpoint %s headers: %w", e.ID, err)
	}
	return &e, nil
}

// UpdateLastUsed records the time of the latest delivery attempt. It never
// moves the timestamp backwards.
func (r *EndpointRepo) UpdateLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE webhook_endpoints SET last_used_at = $1
		 WHERE id = $2 AND (last_used_at IS NULL OR last_used_at < $1)`, at, id)
	if err != nil {
		return fmt.Errorf("update endpoint last used: %w", err)
	}
	return nil
}
