package service

import (
	"context"
	"fmt"
	"time"

	"webhook-dispatcher/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
)

// DispatchMode selects which dispatcher entry point the scheduler drives.
type DispatchMode string

const (
	DispatchModeBatch          DispatchMode = "batch"
	DispatchModeStream         DispatchMode = "stream"
	DispatchModeHighThroughput DispatchMode = "high_throughput"
)

// SchedulerConfig holds loop intervals. A zero interval disables that loop.
type SchedulerConfig struct {
	Mode                   DispatchMode
	DispatchInterval       time.Duration
	RetryInterval          time.Duration
	RetryLimit             int
	DeadLetterInterval     time.Duration
	DeadLetterBatchSize    int
	CleanupInterval        time.Duration
	CircuitCleanupInterval time.Duration
}

// DefaultSchedulerConfig returns the default loop intervals.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Mode:                   DispatchModeBatch,
		DispatchInterval:       time.Second,
		RetryInterval:          10 * time.Second,
		RetryLimit:             100,
		DeadLetterInterval:     time.Minute,
		DeadLetterBatchSize:    100,
		CleanupInterval:        time.Hour,
		CircuitCleanupInterval: 10 * time.Minute,
	}
}

type scheduledJob struct {
	name  string
	every time.Duration
	run   func(ctx context.Context) error
}

// Scheduler runs the background loops of the dispatcher process.
type Scheduler struct {
	jobs []scheduledJob
	log  zerolog.Logger
}

// NewScheduler wires the periodic jobs.
func NewScheduler(
	cfg SchedulerConfig,
	dispatcher ports.EventDispatcher,
	deliveries ports.DeliveryService,
	dlq ports.DeadLetterQueue,
	breaker ports.CircuitBreaker,
	log zerolog.Logger,
) *Scheduler {
	s := &Scheduler{log: log}

	s.add("dispatch", cfg.DispatchInterval, func(ctx context.Context) error {
		var (
			n   int
			err error
		)
		switch cfg.Mode {
		case DispatchModeStream:
			n, err = dispatcher.DispatchStream(ctx, ports.StreamOptions{})
		case DispatchModeHighThroughput:
			n, err = dispatcher.DispatchHighThroughput(ctx, ports.DispatchOptions{})
		default:
			n, err = dispatcher.DispatchUnprocessedEvents(ctx, ports.DispatchOptions{})
		}
		if n > 0 {
			log.Debug().Int("processed", n).Str("mode", string(cfg.Mode)).Msg("dispatch tick")
		}
		return err
	})

	s.add("retry_scan", cfg.RetryInterval, func(ctx context.Context) error {
		res, err := deliveries.RetryFailedDeliveries(ctx, cfg.RetryLimit)
		if err != nil {
			return err
		}
		if res.Scanned > 0 {
			log.Info().
				Int("scanned", res.Scanned).
				Int("succeeded", res.Succeeded).
				Int("rescheduled", res.Rescheduled).
				Int("failed", res.Failed).
				Msg("retry scan completed")
		}
		return nil
	})

	s.add("dead_letter_process", cfg.DeadLetterInterval, func(ctx context.Context) error {
		_, err := dlq.ProcessQueue(ctx, cfg.DeadLetterBatchSize)
		return err
	})

	s.add("dead_letter_cleanup", cfg.CleanupInterval, func(ctx context.Context) error {
		n, err := dlq.CleanupExpired(ctx)
		if n > 0 {
			log.Info().Int64("deleted", n).Msg("expired dead letters removed")
		}
		return err
	})

	s.add("circuit_cleanup", cfg.CircuitCleanupInterval, func(context.Context) error {
		if n := breaker.CleanupStale(); n > 0 {
			log.Info().Int("removed", n).Msg("stale circuit breakers removed")
		}
		return nil
	})

	return s
}

func (s *Scheduler) add(name string, every time.Duration, run func(ctx context.Context) error) {
	if every <= 0 {
		s.log.Info().Str("job", name).Msg("scheduled job disabled")
		return
	}
	s.jobs = append(s.jobs, scheduledJob{name: name, every: every, run: run})
}

// Jobs returns the names of the enabled jobs.
func (s *Scheduler) Jobs() []string {
	names := make([]string, len(s.jobs))
	for i, j := range s.jobs {
		names[i] = j.name
	}
	return names
}

// Run starts every job and blocks until ctx is cancelled and all in-flight
// runs have returned.
func (s *Scheduler) Run(ctx context.Context) {
	var wg conc.WaitGroup
	for _, j := range s.jobs {
		wg.Go(func() { s.loop(ctx, j) })
	}
	s.log.Info().Strs("jobs", s.Jobs()).Msg("scheduler started")
	wg.Wait()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, j scheduledJob) {
	ticker := time.NewTicker(j.every)
	defer ticker.Stop()

	for {
		s.runOnce(ctx, j)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, j scheduledJob) {
	if ctx.Err() != nil {
		return
	}
	err := func() (err error) {
		defer recoverTo(&err, fmt.Sprintf("job %s", j.name))
		return j.run(ctx)
	}()
	if err != nil && ctx.Err() == nil {
		s.log.Error().Err(err).Str("job", j.name).Msg("scheduled job failed")
	}
}
