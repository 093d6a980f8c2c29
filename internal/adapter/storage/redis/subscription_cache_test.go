package redis

import (
	"context"
	"testing"
	"time"

	"webhook-dispatcher/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionCache_SetAndGet(t *testing.T) {
	_, client := newTestClient(t)
	cache := NewSubscriptionCache(client, time.Minute)
	ctx := context.Background()
	ctxID := uuid.New()

	subs, ok, err := cache.Get(ctx, "order.created", &ctxID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, subs)

	want := []domain.WebhookSubscription{{
		ID:           uuid.New(),
		EndpointID:   uuid.New(),
		EventPattern: "order.*",
		Conditions:   []domain.FieldCondition{{Field: "total", Operator: domain.OpGreaterThan, Value: 100.0}},
		IsActive:     true,
	}}
	require.NoError(t, cache.Set(ctx, "order.created", &ctxID, want))

	got, ok, err := cache.Get(ctx, "order.created", &ctxID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, want[0].ID, got[0].ID)
	assert.Equal(t, "total", got[0].Conditions[0].Field)

	_, ok, err = cache.Get(ctx, "order.created", nil)
	require.NoError(t, err)
	assert.False(t, ok, "global scope is a separate entry")
}

func TestSubscriptionCache_EmptyListIsHit(t *testing.T) {
	_, client := newTestClient(t)
	cache := NewSubscriptionCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "user.deleted", nil, nil))

	got, ok, err := cache.Get(ctx, "user.deleted", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestSubscriptionCache_TTLExpiry(t *testing.T) {
	s, client := newTestClient(t)
	cache := NewSubscriptionCache(client, time.Second)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a.b", nil, []domain.WebhookSubscription{{ID: uuid.New()}}))
	s.FastForward(2 * time.Second)

	_, ok, err := cache.Get(ctx, "a.b", nil)
	require.NoError(t, err)
	assert.False(t, ok, "expired entry should miss")
}

func TestSubscriptionCache_Invalidate(t *testing.T) {
	s, client := newTestClient(t)
	cache := NewSubscriptionCache(client, time.Minute)
	ctx := context.Background()

	for i := 0; i < 250; i++ {
		ctxID := uuid.New()
		require.NoError(t, cache.Set(ctx, "order.created", &ctxID, nil))
	}
	require.NoError(t, s.Set("unrelated", "keep"))

	n, err := cache.Invalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(250), n)
	assert.True(t, s.Exists("unrelated"))

	n, err = cache.Invalidate(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSubscriptionCache_CorruptEntry(t *testing.T) {
	s, client := newTestClient(t)
	cache := NewSubscriptionCache(client, time.Minute)

	require.NoError(t, s.Set("subs:global:x.y", "{not json"))

	_, _, err := cache.Get(context.Background(), "x.y", nil)
	assert.Error(t, err)
}
