package redis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryLease_AcquireOnce(t *testing.T) {
	_, client := newTestClient(t)
	a := NewRetryLease(client, "worker-a")
	b := NewRetryLease(client, "worker-b")
	ctx := context.Background()
	id := uuid.New()

	ok, err := a.Acquire(ctx, id, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Acquire(ctx, id, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "held by another worker")

	ok, err = b.Acquire(ctx, uuid.New(), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "different delivery is independent")
}

func TestRetryLease_ReleaseOnlyByOwner(t *testing.T) {
	s, client := newTestClient(t)
	a := NewRetryLease(client, "worker-a")
	b := NewRetryLease(client, "worker-b")
	ctx := context.Background()
	id := uuid.New()

	ok, err := a.Acquire(ctx, id, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, b.Release(ctx, id))
	assert.True(t, s.Exists("retry-lease:"+id.String()), "non-owner release is a no-op")

	require.NoError(t, a.Release(ctx, id))
	assert.False(t, s.Exists("retry-lease:"+id.String()))

	ok, err = b.Acquire(ctx, id, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRetryLease_Expires(t *testing.T) {
	s, client := newTestClient(t)
	lease := NewRetryLease(client, "")
	ctx := context.Background()
	id := uuid.New()

	ok, err := lease.Acquire(ctx, id, time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	s.FastForward(2 * time.Second)

	ok, err = NewRetryLease(client, "other").Acquire(ctx, id, time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "expired lease can be taken")
}
