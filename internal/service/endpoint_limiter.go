package service

import (
	"context"
	"sync"

	"webhook-dispatcher/internal/core/domain"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// EndpointLimiter paces outbound calls per endpoint. Endpoints with no
// configured rate are not limited.
type EndpointLimiter struct {
	mu       sync.Mutex
	limiters map[uuid.UUID]*rate.Limiter
}

// NewEndpointLimiter creates an empty limiter set.
func NewEndpointLimiter() *EndpointLimiter {
	return &EndpointLimiter{limiters: make(map[uuid.UUID]*rate.Limiter)}
}

// Wait blocks until the endpoint may be called or ctx is done.
func (l *EndpointLimiter) Wait(ctx context.Context, endpoint *domain.WebhookEndpoint) error {
	if endpoint.RateLimitPerSecond <= 0 {
		return nil
	}
	return l.limiter(endpoint).Wait(ctx)
}

func (l *EndpointLimiter) limiter(endpoint *domain.WebhookEndpoint) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limit := rate.Limit(endpoint.RateLimitPerSecond)
	burst := int(endpoint.RateLimitPerSecond)
	if burst < 1 {
		burst = 1
	}
	lim, ok := l.limiters[endpoint.ID]
	if !ok {
		lim = rate.NewLimiter(limit, burst)
		l.limiters[endpoint.ID] = lim
		return lim
	}
	if lim.Limit() != limit {
		lim.SetLimit(limit)
		lim.SetBurst(burst)
	}
	return lim
}
