package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"webhook-dispatcher/internal/core/ports"
	"webhook-dispatcher/internal/core/ports/mocks"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestScheduler_RunsJobsUntilCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dispatcher := mocks.NewMockEventDispatcher(ctrl)
	deliveries := mocks.NewMockDeliveryService(ctrl)
	dlq := mocks.NewMockDeadLetterQueue(ctrl)
	breaker := mocks.NewMockCircuitBreaker(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ran := make(chan string, 64)
	signal := func(name string) {
		select {
		case ran <- name:
		default:
		}
	}

	dispatcher.EXPECT().DispatchHighThroughput(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, ports.DispatchOptions) (int, error) {
			signal("dispatch")
			return 3, nil
		}).MinTimes(2)
	deliveries.EXPECT().RetryFailedDeliveries(gomock.Any(), 25).DoAndReturn(
		func(context.Context, int) (*ports.RetryResult, error) {
			signal("retry_scan")
			return &ports.RetryResult{Scanned: 1, Succeeded: 1}, nil
		}).Times(1)
	dlq.EXPECT().ProcessQueue(gomock.Any(), 10).DoAndReturn(
		func(context.Context, int) (*ports.DeadLetterProcessResult, error) {
			signal("dead_letter_process")
			return nil, errors.New("deadlock detected")
		}).Times(1)
	breaker.EXPECT().CleanupStale().DoAndReturn(func() int {
		signal("circuit_cleanup")
		panic("corrupt map")
	}).Times(1)

	s := NewScheduler(SchedulerConfig{
		Mode:                   DispatchModeHighThroughput,
		DispatchInterval:       5 * time.Millisecond,
		RetryInterval:          time.Hour,
		RetryLimit:             25,
		DeadLetterInterval:     time.Hour,
		DeadLetterBatchSize:    10,
		CircuitCleanupInterval: time.Hour,
	}, dispatcher, deliveries, dlq, breaker, newTestLogger())

	assert.Equal(t, []string{"dispatch", "retry_scan", "dead_letter_process", "circuit_cleanup"}, s.Jobs())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	seen := map[string]int{}
	for seen["dispatch"] < 2 || len(seen) < 4 {
		select {
		case name := <-ran:
			seen[name]++
		case <-time.After(2 * time.Second):
			t.Fatalf("jobs did not run, saw %v", seen)
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_ModeSelectsEntryPoint(t *testing.T) {
	tests := []struct {
		mode   DispatchMode
		expect func(m *mocks.MockEventDispatcher, hit chan struct{})
	}{
		{DispatchModeBatch, func(m *mocks.MockEventDispatcher, hit chan struct{}) {
			m.EXPECT().DispatchUnprocessedEvents(gomock.Any(), gomock.Any()).DoAndReturn(
				func(context.Context, ports.DispatchOptions) (int, error) { close(hit); return 0, nil })
		}},
		{DispatchModeStream, func(m *mocks.MockEventDispatcher, hit chan struct{}) {
			m.EXPECT().DispatchStream(gomock.Any(), gomock.Any()).DoAndReturn(
				func(context.Context, ports.StreamOptions) (int, error) { close(hit); return 0, nil })
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			dispatcher := mocks.NewMockEventDispatcher(ctrl)
			hit := make(chan struct{})
			tt.expect(dispatcher, hit)

			s := NewScheduler(SchedulerConfig{Mode: tt.mode, DispatchInterval: time.Hour}, dispatcher, nil, nil, nil, newTestLogger())
			assert.Equal(t, []string{"dispatch"}, s.Jobs())

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				s.Run(ctx)
				close(done)
			}()

			select {
			case <-hit:
			case <-time.After(2 * time.Second):
				t.Fatal("dispatch entry point not called")
			}
			cancel()
			<-done
		})
	}
}
