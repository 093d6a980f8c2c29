package postgres

import (
	"context"
	"fmt"

	"webhook-dispatcher/internal/core/domain"

	"github.com/google/uuid"
)

// SubscriptionRepo implements ports.SubscriptionRepository.
type SubscriptionRepo struct {
	pool Pool
}

// NewSubscriptionRepo creates a new SubscriptionRepo.
func NewSubscriptionRepo(pool Pool) *SubscriptionRepo {
	return &SubscriptionRepo{pool: pool}
}

// GetMatching returns active subscriptions whose pattern can match eventType
// and whose context filter admits contextID. Field conditions are left to the
// caller.
func (r *SubscriptionRepo) GetMatching(ctx context.Context, eventType string, contextID *uuid.UUID) ([]domain.WebhookSubscription, error) {
	query := `SELECT id, endpoint_id, event_pattern, conditions, context_filters, is_active, created_at, updated_at
		FROM webhook_subscriptions
		WHERE is_active
		  AND event_pattern = ANY($1)
		  AND (cardinality(context_filters) = 0 OR $2::uuid = ANY(context_filters))
		ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, domain.CandidatePatterns(eventType), contextID)
	if err != nil {
		return nil, fmt.Errorf("get matching subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []domain.WebhookSubscription
	for rows.Next() {
		var (
			s          domain.WebhookSubscription
			conditions []byte
		)
		if err := rows.Scan(
			&s.ID, &s.EndpointID, &s.EventPattern, &conditions, &s.ContextFilters,
			&s.IsActive, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan subscription row: %w", err)
		}
		if err := unmarshalJSONB(conditions, &s.Conditions); err != nil {
			return nil, fmt.Errorf("subscription %s conditions: %w", s.ID, err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscription rows: %w", err)
	}
	return subs, nil
}
