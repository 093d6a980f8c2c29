package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"webhook-dispatcher/internal/core/domain"
	"webhook-dispatcher/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// DispatcherConfig holds the dispatch tunables.
type DispatcherConfig struct {
	Limit                   int
	BatchSize               int
	MaxConcurrentBatches    int
	MaxConcurrentEvents     int
	MaxConcurrentDeliveries int
	BatchTimeout            time.Duration
	EventTimeout            time.Duration
	MarkTimeout             time.Duration

	StreamChunkMin      int
	StreamChunkInitial  int
	StreamChunkMax      int
	MemoryHighWatermark uint64
}

// DefaultDispatcherConfig returns the default dispatch tunables.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Limit:                   500,
		BatchSize:               50,
		MaxConcurrentBatches:    4,
		MaxConcurrentEvents:     16,
		MaxConcurrentDeliveries: 8,
		BatchTimeout:            2 * time.Minute,
		EventTimeout:            30 * time.Second,
		MarkTimeout:             30 * time.Second,
		StreamChunkMin:          25,
		StreamChunkInitial:      100,
		StreamChunkMax:          1000,
		MemoryHighWatermark:     512 << 20,
	}
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	def := DefaultDispatcherConfig()
	if c.Limit <= 0 {
		c.Limit = def.Limit
	}
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.MaxConcurrentBatches <= 0 {
		c.MaxConcurrentBatches = def.MaxConcurrentBatches
	}
	if c.MaxConcurrentEvents <= 0 {
		c.MaxConcurrentEvents = def.MaxConcurrentEvents
	}
	if c.MaxConcurrentDeliveries <= 0 {
		c.MaxConcurrentDeliveries = def.MaxConcurrentDeliveries
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = def.BatchTimeout
	}
	if c.EventTimeout <= 0 {
		c.EventTimeout = def.EventTimeout
	}
	if c.MarkTimeout <= 0 {
		c.MarkTimeout = def.MarkTimeout
	}
	if c.StreamChunkMin <= 0 {
		c.StreamChunkMin = def.StreamChunkMin
	}
	if c.StreamChunkMax < c.StreamChunkMin {
		c.StreamChunkMax = max(def.StreamChunkMax, c.StreamChunkMin)
	}
	if c.StreamChunkInitial < c.StreamChunkMin || c.StreamChunkInitial > c.StreamChunkMax {
		c.StreamChunkInitial = min(max(def.StreamChunkInitial, c.StreamChunkMin), c.StreamChunkMax)
	}
	if c.MemoryHighWatermark == 0 {
		c.MemoryHighWatermark = def.MemoryHighWatermark
	}
	return c
}

var _ ports.EventDispatcher = (*Dispatcher)(nil)

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithMemoryProbe overrides how the streaming pass measures memory pressure.
func WithMemoryProbe(fn func() uint64) DispatcherOption {
	return func(d *Dispatcher) { d.memUsage = fn }
}

// Dispatcher fans unprocessed events out to subscribed endpoints and marks
// them processed. It implements ports.EventDispatcher.
//
// Concurrency is bounded at three nested levels: batches in flight, events in
// flight per batch and deliveries in flight per event.
type Dispatcher struct {
	cfg        DispatcherConfig
	events     ports.EventRepository
	resolver   ports.SubscriptionResolver
	endpoints  ports.EndpointRepository
	deliveries ports.DeliveryService
	log        zerolog.Logger
	memUsage   func() uint64
}

// NewDispatcher creates a new event dispatcher.
func NewDispatcher(
	cfg DispatcherConfig,
	events ports.EventRepository,
	resolver ports.SubscriptionResolver,
	endpoints ports.EndpointRepository,
	deliveries ports.DeliveryService,
	log zerolog.Logger,
	opts ...DispatcherOption,
) *Dispatcher {
	d := &Dispatcher{
		cfg:        cfg.withDefaults(),
		events:     events,
		resolver:   resolver,
		endpoints:  endpoints,
		deliveries: deliveries,
		log:        log,
		memUsage:   heapInUse,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) normalize(opts ports.DispatchOptions) ports.DispatchOptions {
	if opts.Limit <= 0 {
		opts.Limit = d.cfg.Limit
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = d.cfg.BatchSize
	}
	if opts.MaxConcurrentBatches <= 0 {
		opts.MaxConcurrentBatches = d.cfg.MaxConcurrentBatches
	}
	return opts
}

// DispatchUnprocessedEvents claims up to opts.Limit events, delivers them in
// batches and returns how many were marked processed. Events whose dispatch
// failed stay unprocessed for the next pass.
func (d *Dispatcher) DispatchUnprocessedEvents(ctx context.Context, opts ports.DispatchOptions) (int, error) {
	opts = d.normalize(opts)
	events, err := d.events.GetUnprocessedForUpdate(ctx, opts.Limit, true, ports.ProjectionFull)
	if err != nil {
		return 0, fmt.Errorf("claim unprocessed events: %w", err)
	}
	return d.dispatch(ctx, events, opts, d.newPass(false))
}

// DispatchHighThroughput behaves like DispatchUnprocessedEvents but loads a
// narrower projection and resolves each (event type, context) and endpoint
// once per pass.
func (d *Dispatcher) DispatchHighThroughput(ctx context.Context, opts ports.DispatchOptions) (int, error) {
	opts = d.normalize(opts)
	events, err := d.events.GetUnprocessedForUpdate(ctx, opts.Limit, true, ports.ProjectionDispatch)
	if err != nil {
		return 0, fmt.Errorf("claim unprocessed events: %w", err)
	}
	return d.dispatch(ctx, events, opts, d.newPass(true))
}

// DispatchStream drains the backlog in chunks without loading it whole. The
// chunk size halves under memory pressure and doubles when there is headroom.
func (d *Dispatcher) DispatchStream(ctx context.Context, opts ports.StreamOptions) (int, error) {
	chunk := d.cfg.StreamChunkInitial
	total := 0
	pass := d.newPass(true)

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		size := chunk
		if opts.MaxEvents > 0 {
			size = min(size, opts.MaxEvents-total)
			if size <= 0 {
				break
			}
		}

		events, err := d.events.GetUnprocessedForUpdate(ctx, size, true, ports.ProjectionFull)
		if err != nil {
			return total, fmt.Errorf("claim unprocessed events: %w", err)
		}
		if len(events) == 0 {
			break
		}

		n, err := d.dispatch(ctx, events, ports.DispatchOptions{
			Limit:                size,
			BatchSize:            min(d.cfg.BatchSize, size),
			MaxConcurrentBatches: d.cfg.MaxConcurrentBatches,
		}, pass)
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 || len(events) < size {
			break
		}

		next := d.adaptChunk(chunk)
		if next != chunk {
			d.log.Debug().Int("from", chunk).Int("to", next).Msg("stream chunk resized")
		}
		chunk = next
	}

	d.log.Info().Int("processed", total).Msg("stream dispatch completed")
	return total, nil
}

func (d *Dispatcher) adaptChunk(chunk int) int {
	used := d.memUsage()
	switch {
	case used >= d.cfg.MemoryHighWatermark:
		return max(chunk/2, d.cfg.StreamChunkMin)
	case used < d.cfg.MemoryHighWatermark/2:
		return min(chunk*2, d.cfg.StreamChunkMax)
	default:
		return chunk
	}
}

// Backlog returns a page of unprocessed events and the backlog size.
func (d *Dispatcher) Backlog(ctx context.Context, limit, offset int) ([]domain.DomainEvent, int64, error) {
	events, err := d.events.GetUnprocessedPaginated(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("get unprocessed events: %w", err)
	}
	total, err := d.events.CountUnprocessed(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count unprocessed events: %w", err)
	}
	return events, total, nil
}

// dispatch splits events into batches and runs them on a bounded pool. A
// failing batch never stops its siblings; their errors are joined.
func (d *Dispatcher) dispatch(ctx context.Context, events []domain.DomainEvent, opts ports.DispatchOptions, pass *dispatchPass) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	started := time.Now()
	var processed atomic.Int64
	p := pool.New().WithErrors().WithMaxGoroutines(opts.MaxConcurrentBatches)
	for i, batch := range chunkEvents(events, opts.BatchSize) {
		batchNo := i + 1
		p.Go(func() error {
			n, err := d.processBatch(ctx, batchNo, batch, pass)
			processed.Add(int64(n))
			return err
		})
	}
	err := p.Wait()

	total := int(processed.Load())
	ev := d.log.Info()
	if err != nil {
		ev = d.log.Error().Err(err)
	}
	ev.Int("fetched", len(events)).
		Int("processed", total).
		Dur("elapsed", time.Since(started)).
		Msg("dispatch pass completed")
	return total, err
}

func (d *Dispatcher) processBatch(ctx context.Context, batchNo int, batch []domain.DomainEvent, pass *dispatchPass) (n int, err error) {
	defer recoverTo(&err, fmt.Sprintf("batch %d", batchNo))

	bctx, cancel := context.WithTimeout(ctx, d.cfg.BatchTimeout)
	defer cancel()

	var mu sync.Mutex
	handled := make([]uuid.UUID, 0, len(batch))
	p := pool.New().WithMaxGoroutines(d.cfg.MaxConcurrentEvents)
	for i := range batch {
		event := &batch[i]
		p.Go(func() {
			if d.processEvent(bctx, event, pass) {
				mu.Lock()
				handled = append(handled, event.ID)
				mu.Unlock()
			}
		})
	}
	p.Wait()

	d.log.Debug().
		Int("batch", batchNo).
		Int("events", len(batch)).
		Int("handled", len(handled)).
		Msg("batch dispatched")

	// Deliveries for handled events already exist; mark them even if the batch
	// deadline passed.
	mctx, mcancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.MarkTimeout)
	defer mcancel()
	return d.markProcessed(mctx, batchNo, handled)
}

// processEvent fans one event out and reports whether it may be marked
// processed. An event with no matching subscription counts as handled.
func (d *Dispatcher) processEvent(ctx context.Context, event *domain.DomainEvent, pass *dispatchPass) (ok bool) {
	log := d.log.With().Str("event_id", event.ID.String()).Str("event_type", event.EventType).Logger()
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("event dispatch panicked")
			ok = false
		}
	}()

	ectx, cancel := context.WithTimeout(ctx, d.cfg.EventTimeout)
	defer cancel()

	subs, err := pass.subscriptions(ectx, event)
	if err != nil {
		log.Error().Err(err).Msg("subscription lookup failed, event left unprocessed")
		return false
	}
	if len(subs) == 0 {
		log.Debug().Msg("no matching subscriptions")
		return true
	}

	var failed atomic.Bool
	p := pool.New().WithMaxGoroutines(d.cfg.MaxConcurrentDeliveries)
	for _, s := range subs {
		p.Go(func() {
			if !d.deliver(ectx, event, s, pass, log) {
				failed.Store(true)
			}
		})
	}
	p.Wait()

	if failed.Load() {
		log.Warn().Int("subscriptions", len(subs)).Msg("event dispatch incomplete, event left unprocessed")
		return false
	}
	return true
}

// deliver hands one (event, endpoint) pair to the delivery service. It
// returns false only when no delivery could be persisted.
func (d *Dispatcher) deliver(ctx context.Context, event *domain.DomainEvent, s domain.WebhookSubscription, pass *dispatchPass, log zerolog.Logger) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("endpoint_id", s.EndpointID.String()).Msg("delivery panicked")
			ok = false
		}
	}()

	endpoint, err := pass.endpoint(ctx, s.EndpointID)
	if err != nil {
		log.Error().Err(err).Str("endpoint_id", s.EndpointID.String()).Msg("endpoint lookup failed")
		return false
	}
	if endpoint == nil || !endpoint.CanReceive() {
		log.Debug().Str("endpoint_id", s.EndpointID.String()).Msg("endpoint unavailable, subscription skipped")
		return true
	}

	delivery, err := d.deliveries.DeliverToEndpoint(ctx, event, endpoint)
	if errors.Is(err, domain.ErrDeliveryExists) {
		// An earlier pass already persisted this pair.
		log.Debug().Str("endpoint_id", endpoint.ID.String()).Msg("delivery already exists")
		return true
	}
	if delivery == nil {
		log.Error().Err(err).Str("endpoint_id", endpoint.ID.String()).Msg("delivery could not be created")
		return false
	}
	if err != nil {
		// Persisted; the retry scan owns it from here.
		log.Warn().Err(err).Str("delivery_id", delivery.ID.String()).Msg("delivery attempt errored")
	}
	return true
}

// markProcessed bulk-marks ids, falling back to one id at a time when the bulk
// statement fails.
func (d *Dispatcher) markProcessed(ctx context.Context, batchNo int, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	n, err := d.events.MarkProcessed(ctx, ids)
	if err == nil {
		return int(n), nil
	}
	d.log.Warn().Err(err).Int("batch", batchNo).Int("events", len(ids)).Msg("bulk mark processed failed, marking individually")

	var (
		marked int
		errs   []error
	)
	for _, id := range ids {
		n, err := d.events.MarkProcessed(ctx, []uuid.UUID{id})
		if err != nil {
			errs = append(errs, fmt.Errorf("mark event %s processed: %w", id, err))
			continue
		}
		marked += int(n)
	}
	return marked, errors.Join(errs...)
}

func chunkEvents(events []domain.DomainEvent, size int) [][]domain.DomainEvent {
	if size <= 0 {
		size = len(events)
	}
	batches := make([][]domain.DomainEvent, 0, (len(events)+size-1)/size)
	for start := 0; start < len(events); start += size {
		end := min(start+size, len(events))
		batches = append(batches, events[start:end])
	}
	return batches
}

func heapInUse() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapAlloc
}

// dispatchPass carries per-pass lookups. With memo set, candidate
// subscriptions and endpoints are fetched once per pass; field conditions are
// still evaluated per event.
type dispatchPass struct {
	resolver  ports.SubscriptionResolver
	endpoints ports.EndpointRepository
	memo      bool

	mu         sync.Mutex
	candidates map[string][]domain.WebhookSubscription
	endpointBy map[uuid.UUID]*domain.WebhookEndpoint
}

func (d *Dispatcher) newPass(memo bool) *dispatchPass {
	return &dispatchPass{
		resolver:   d.resolver,
		endpoints:  d.endpoints,
		memo:       memo,
		candidates: make(map[string][]domain.WebhookSubscription),
		endpointBy: make(map[uuid.UUID]*domain.WebhookEndpoint),
	}
}

func (p *dispatchPass) subscriptions(ctx context.Context, event *domain.DomainEvent) ([]domain.WebhookSubscription, error) {
	if !p.memo {
		return p.resolver.Resolve(ctx, event)
	}

	key := event.EventType + "|" + event.ContextKey()
	p.mu.Lock()
	candidates, ok := p.candidates[key]
	p.mu.Unlock()

	if !ok {
		var err error
		candidates, err = p.resolver.Candidates(ctx, event.EventType, event.ContextID)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.candidates[key] = candidates
		p.mu.Unlock()
	}
	return SelectSubscriptions(candidates, event), nil
}

func (p *dispatchPass) endpoint(ctx context.Context, id uuid.UUID) (*domain.WebhookEndpoint, error) {
	if !p.memo {
		return p.endpoints.GetByID(ctx, id)
	}

	p.mu.Lock()
	endpoint, ok := p.endpointBy[id]
	p.mu.Unlock()
	if ok {
		return endpoint, nil
	}

	endpoint, err := p.endpoints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.endpointBy[id] = endpoint
	p.mu.Unlock()
	return endpoint, nil
}
