package service

import (
	"context"
	"fmt"
	"sort"

	"webhook-dispatcher/internal/core/domain"
	"webhook-dispatcher/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// subscriptionResolver implements ports.SubscriptionResolver with an optional
// cache in front of the subscription store. Cache failures only cost a store
// round trip.
type subscriptionResolver struct {
	repo  ports.SubscriptionRepository
	cache ports.SubscriptionCache
	log   zerolog.Logger
}

// NewSubscriptionResolver creates a resolver. cache may be nil.
func NewSubscriptionResolver(repo ports.SubscriptionRepository, cache ports.SubscriptionCache, log zerolog.Logger) ports.SubscriptionResolver {
	return &subscriptionResolver{repo: repo, cache: cache, log: log}
}

// Resolve returns the subscriptions matching the event, one per endpoint,
// most specific pattern first.
func (r *subscriptionResolver) Resolve(ctx context.Context, event *domain.DomainEvent) ([]domain.WebhookSubscription, error) {
	candidates, err := r.Candidates(ctx, event.EventType, event.ContextID)
	if err != nil {
		return nil, err
	}
	return SelectSubscriptions(candidates, event), nil
}

// Candidates reads through the cache to the subscription store.
func (r *subscriptionResolver) Candidates(ctx context.Context, eventType string, contextID *uuid.UUID) ([]domain.WebhookSubscription, error) {
	if r.cache != nil {
		subs, ok, err := r.cache.Get(ctx, eventType, contextID)
		if err != nil {
			r.log.Warn().Err(err).Str("event_type", eventType).Msg("subscription cache read failed")
		} else if ok {
			return subs, nil
		}
	}

	subs, err := r.repo.GetMatching(ctx, eventType, contextID)
	if err != nil {
		return nil, fmt.Errorf("get matching subscriptions: %w", err)
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, eventType, contextID, subs); err != nil {
			r.log.Warn().Err(err).Str("event_type", eventType).Msg("subscription cache write failed")
		}
	}
	return subs, nil
}

// Invalidate drops every cached lookup.
func (r *subscriptionResolver) Invalidate(ctx context.Context) (int64, error) {
	if r.cache == nil {
		return 0, nil
	}
	n, err := r.cache.Invalidate(ctx)
	if err != nil {
		return 0, fmt.Errorf("invalidate subscription cache: %w", err)
	}
	r.log.Info().Int64("keys", n).Msg("subscription cache invalidated")
	return n, nil
}

// SelectSubscriptions filters candidates down to the ones that match the event
// and keeps the most specific subscription per endpoint.
func SelectSubscriptions(candidates []domain.WebhookSubscription, event *domain.DomainEvent) []domain.WebhookSubscription {
	matched := make([]domain.WebhookSubscription, 0, len(candidates))
	for _, s := range candidates {
		if s.Matches(event) {
			matched = append(matched, s)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].PatternKind() > matched[j].PatternKind()
	})

	seen := make(map[uuid.UUID]struct{}, len(matched))
	out := matched[:0]
	for _, s := range matched {
		if _, dup := seen[s.EndpointID]; dup {
			continue
		}
		seen[s.EndpointID] = struct{}{}
		out = append(out, s)
	}
	return out
}
