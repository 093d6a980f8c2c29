package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
)

// DetachedRunner runs fire-and-forget tasks. A task gets its own deadline,
// survives cancellation of the caller's context and can never fail or panic
// into the caller.
type DetachedRunner struct {
	wg      conc.WaitGroup
	timeout time.Duration
	log     zerolog.Logger
}

// NewDetachedRunner creates a runner whose tasks time out after timeout.
func NewDetachedRunner(timeout time.Duration, log zerolog.Logger) *DetachedRunner {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DetachedRunner{timeout: timeout, log: log}
}

// Go starts fn in the background. Values from ctx stay visible to fn.
func (r *DetachedRunner) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	base := context.WithoutCancel(ctx)
	r.wg.Go(func() {
		taskCtx, cancel := context.WithTimeout(base, r.timeout)
		defer cancel()
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error().Str("task", name).Interface("panic", rec).Msg("detached task panicked")
			}
		}()
		if err := fn(taskCtx); err != nil {
			r.log.Warn().Err(err).Str("task", name).Msg("detached task failed")
		}
	})
}

// Wait blocks until every started task returned.
func (r *DetachedRunner) Wait() {
	r.wg.Wait()
}

// recoverTo converts a panic in the current goroutine into an error.
func recoverTo(errp *error, scope string) {
	if rec := recover(); rec != nil {
		*errp = fmt.Errorf("%s panic: %v", scope, rec)
	}
}
