package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// RetryLease implements ports.RetryLease using Redis SET NX PX. A lease
// expires on its own if the holder crashes.
type RetryLease struct {
	client goredis.UniversalClient
	prefix string
	owner  string
}

// NewRetryLease creates a lease store. owner identifies this process so a
// worker only releases leases it holds.
func NewRetryLease(client goredis.UniversalClient, owner string) *RetryLease {
	if owner == "" {
		owner = uuid.NewString()
	}
	return &RetryLease{
		client: client,
		prefix: "retry-lease:",
		owner:  owner,
	}
}

// Acquire takes the lease for deliveryID. It returns false when another
// worker holds it.
func (l *RetryLease) Acquire(ctx context.Context, deliveryID uuid.UUID, ttl time.Duration) (bool, error) {
	result, err := l.client.SetArgs(ctx, l.prefix+deliveryID.String(), l.owner, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis lease acquire: %w", err)
	}
	return result == "OK", nil
}

var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Release drops the lease if this process still holds it.
func (l *RetryLease) Release(ctx context.Context, deliveryID uuid.UUID) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.prefix + deliveryID.String()}, l.owner).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("redis lease release: %w", err)
	}
	return nil
}
