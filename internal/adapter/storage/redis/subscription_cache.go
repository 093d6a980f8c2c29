package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"webhook-dispatcher/internal/core/domain"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultSubscriptionTTL bounds how stale a cached subscription list can be
// when an invalidation is missed.
const DefaultSubscriptionTTL = 5 * time.Minute

// SubscriptionCache implements ports.SubscriptionCache. Entries are keyed by
// event type and context id and hold the candidate subscriptions as JSON.
type SubscriptionCache struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewSubscriptionCache creates a Redis-backed subscription cache.
func NewSubscriptionCache(client goredis.UniversalClient, ttl time.Duration) *SubscriptionCache {
	if ttl <= 0 {
		ttl = DefaultSubscriptionTTL
	}
	return &SubscriptionCache{
		client: client,
		prefix: "subs:",
		ttl:    ttl,
	}
}

func (c *SubscriptionCache) key(eventType string, contextID *uuid.UUID) string {
	scope := "global"
	if contextID != nil {
		scope = contextID.String()
	}
	return c.prefix + scope + ":" + eventType
}

// Get returns the cached subscriptions. ok is false on a miss. An empty list
// is a valid hit.
func (c *SubscriptionCache) Get(ctx context.Context, eventType string, contextID *uuid.UUID) ([]domain.WebhookSubscription, bool, error) {
	raw, err := c.client.Get(ctx, c.key(eventType, contextID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis subscription get: %w", err)
	}
	var subs []domain.WebhookSubscription
	if err := json.Unmarshal(raw, &subs); err != nil {
		return nil, false, fmt.Errorf("decode cached subscriptions: %w", err)
	}
	return subs, true, nil
}

// Set stores subscriptions for the configured TTL.
func (c *SubscriptionCache) Set(ctx context.Context, eventType string, contextID *uuid.UUID, subs []domain.WebhookSubscription) error {
	if subs == nil {
		subs = []domain.WebhookSubscription{}
	}
	raw, err := json.Marshal(subs)
	if err != nil {
		return fmt.Errorf("encode subscriptions: %w", err)
	}
	if err := c.client.Set(ctx, c.key(eventType, contextID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis subscription set: %w", err)
	}
	return nil
}

// Invalidate drops every cached entry and returns how many were removed.
func (c *SubscriptionCache) Invalidate(ctx context.Context) (int64, error) {
	var removed int64
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 200).Iterator()
	batch := make([]string, 0, 200)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.client.Del(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("redis subscription invalidate: %w", err)
		}
		removed += n
		batch = batch[:0]
		return nil
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis subscription scan: %w", err)
	}
	if err := flush(); err != nil {
		return removed, err
	}
	return removed, nil
}
