package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"webhook-dispatcher/internal/core/domain"
	"webhook-dispatcher/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func newTestLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// --- Clock ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// --- In-Memory Event Repo ---

type inMemoryEventRepo struct {
	mu     sync.Mutex
	events map[uuid.UUID]*domain.DomainEvent
	order  []uuid.UUID
	marked [][]uuid.UUID
}

func newInMemoryEventRepo(events ...*domain.DomainEvent) *inMemoryEventRepo {
	r := &inMemoryEventRepo{events: make(map[uuid.UUID]*domain.DomainEvent)}
	for _, e := range events {
		r.add(e)
	}
	return r
}

func (r *inMemoryEventRepo) add(e *domain.DomainEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[e.ID] = e
	r.order = append(r.order, e.ID)
}

func (r *inMemoryEventRepo) unprocessed() []domain.DomainEvent {
	var out []domain.DomainEvent
	for _, id := range r.order {
		if e := r.events[id]; e.ProcessedAt == nil {
			out = append(out, *e)
		}
	}
	return out
}

func (r *inMemoryEventRepo) GetUnprocessedForUpdate(ctx context.Context, limit int, skipLocked bool, projection ports.EventProjection) ([]domain.DomainEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.unprocessed()
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *inMemoryEventRepo) GetUnprocessedPaginated(ctx context.Context, limit, offset int) ([]domain.DomainEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.unprocessed()
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *inMemoryEventRepo) MarkProcessed(ctx context.Context, ids []uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	var n int64
	for _, id := range ids {
		if e, ok := r.events[id]; ok && e.ProcessedAt == nil {
			e.ProcessedAt = &now
			n++
		}
	}
	r.marked = append(r.marked, append([]uuid.UUID(nil), ids...))
	return n, nil
}

func (r *inMemoryEventRepo) CountUnprocessed(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.unprocessed())), nil
}

func (r *inMemoryEventRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.DomainEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *inMemoryEventRepo) isProcessed(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	return ok && e.ProcessedAt != nil
}

// --- In-Memory Subscription Repo ---

type inMemorySubscriptionRepo struct {
	mu    sync.Mutex
	subs  []domain.WebhookSubscription
	calls int
}

func newInMemorySubscriptionRepo(subs ...domain.WebhookSubscription) *inMemorySubscriptionRepo {
	return &inMemorySubscriptionRepo{subs: subs}
}

func (r *inMemorySubscriptionRepo) GetMatching(ctx context.Context, eventType string, contextID *uuid.UUID) ([]domain.WebhookSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	patterns := domain.CandidatePatterns(eventType)
	var out []domain.WebhookSubscription
	for _, s := range r.subs {
		if !s.IsActive || !s.MatchesContext(contextID) {
			continue
		}
		for _, p := range patterns {
			if s.EventPattern == p {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}

// --- In-Memory Endpoint Repo ---

type inMemoryEndpointRepo struct {
	mu        sync.Mutex
	endpoints map[uuid.UUID]*domain.WebhookEndpoint
	touched   map[uuid.UUID]time.Time
}

func newInMemoryEndpointRepo(endpoints ...*domain.WebhookEndpoint) *inMemoryEndpointRepo {
	r := &inMemoryEndpointRepo{
		endpoints: make(map[uuid.UUID]*domain.WebhookEndpoint),
		touched:   make(map[uuid.UUID]time.Time),
	}
	for _, e := range endpoints {
		r.endpoints[e.ID] = e
	}
	return r
}

func (r *inMemoryEndpointRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookEndpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.endpoints[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *inMemoryEndpointRepo) add(e *domain.WebhookEndpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints[e.ID] = e
}

func (r *inMemoryEndpointRepo) UpdateLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touched[id] = at
	return nil
}

// --- In-Memory Delivery Repo ---

type inMemoryDeliveryRepo struct {
	mu         sync.Mutex
	deliveries map[uuid.UUID]*domain.WebhookDelivery
	attempts   map[uuid.UUID][]domain.WebhookDeliveryAttempt
	createErr  error
	failFor    map[uuid.UUID]error
	saveErr    error
	resetErr   error
}

func newInMemoryDeliveryRepo() *inMemoryDeliveryRepo {
	return &inMemoryDeliveryRepo{
		deliveries: make(map[uuid.UUID]*domain.WebhookDelivery),
		attempts:   make(map[uuid.UUID][]domain.WebhookDeliveryAttempt),
	}
}

func cloneDelivery(d *domain.WebhookDelivery) *domain.WebhookDelivery {
	cp := *d
	cp.Attempts = append([]domain.WebhookDeliveryAttempt(nil), d.Attempts...)
	return &cp
}

func (r *inMemoryDeliveryRepo) Create(ctx context.Context, d *domain.WebhookDelivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if err := r.failFor[d.EndpointID]; err != nil {
		return err
	}
	for _, existing := range r.deliveries {
		if existing.EventID == d.EventID && existing.EndpointID == d.EndpointID {
			return domain.ErrDeliveryExists
		}
	}
	r.deliveries[d.ID] = cloneDelivery(d)
	return nil
}

func (r *inMemoryDeliveryRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookDelivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.deliveries[id]
	if !ok {
		return nil, nil
	}
	cp := cloneDelivery(d)
	cp.Attempts = append([]domain.WebhookDeliveryAttempt(nil), r.attempts[id]...)
	return cp, nil
}

func (r *inMemoryDeliveryRepo) SaveAttempt(ctx context.Context, d *domain.WebhookDelivery, attempt *domain.WebhookDeliveryAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.attempts[d.ID] = append(r.attempts[d.ID], *attempt)
	if stored, ok := r.deliveries[d.ID]; ok && stored.Status == domain.DeliveryStatusCancelled {
		return domain.ErrDeliveryCancelled
	}
	r.deliveries[d.ID] = cloneDelivery(d)
	return nil
}

func (r *inMemoryDeliveryRepo) Update(ctx context.Context, d *domain.WebhookDelivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.deliveries[d.ID]; !ok {
		return errors.New("delivery not found")
	}
	r.deliveries[d.ID] = cloneDelivery(d)
	return nil
}

func (r *inMemoryDeliveryRepo) GetDueForRetry(ctx context.Context, now time.Time, limit int) ([]domain.WebhookDelivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.WebhookDelivery
	for _, d := range r.deliveries {
		if d.IsTerminal() || d.NextRetryAt == nil || d.NextRetryAt.After(now) {
			continue
		}
		cp := *d
		cp.Attempts = nil
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextRetryAt.Before(*out[j].NextRetryAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *inMemoryDeliveryRepo) ResetForReplay(ctx context.Context, d *domain.WebhookDelivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resetErr != nil {
		return r.resetErr
	}
	delete(r.attempts, d.ID)
	r.deliveries[d.ID] = cloneDelivery(d)
	return nil
}

func (r *inMemoryDeliveryRepo) get(id uuid.UUID) *domain.WebhookDelivery {
	d, _ := r.GetByID(context.Background(), id)
	return d
}

func (r *inMemoryDeliveryRepo) all() []*domain.WebhookDelivery {
	r.mu.Lock()
	ids := make([]uuid.UUID, 0, len(r.deliveries))
	for id := range r.deliveries {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	out := make([]*domain.WebhookDelivery, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.get(id))
	}
	return out
}

// --- In-Memory Dead Letter Repo ---

type inMemoryDeadLetterRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*domain.DeadLetterEntry
}

func newInMemoryDeadLetterRepo() *inMemoryDeadLetterRepo {
	return &inMemoryDeadLetterRepo{entries: make(map[uuid.UUID]*domain.DeadLetterEntry)}
}

func (r *inMemoryDeadLetterRepo) Create(ctx context.Context, e *domain.DeadLetterEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.entries {
		if existing.DeliveryID == e.DeliveryID {
			return errors.New("duplicate delivery_id")
		}
	}
	cp := *e
	r.entries[e.ID] = &cp
	return nil
}

func (r *inMemoryDeadLetterRepo) GetByDeliveryID(ctx context.Context, deliveryID uuid.UUID) (*domain.DeadLetterEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.DeliveryID == deliveryID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryDeadLetterRepo) GetUnprocessed(ctx context.Context, limit int) ([]domain.DeadLetterEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.DeadLetterEntry
	for _, e := range r.entries {
		if !e.IsProcessed {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *inMemoryDeadLetterRepo) Update(ctx context.Context, e *domain.DeadLetterEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[e.ID]; !ok {
		return errors.New("dead letter not found")
	}
	cp := *e
	r.entries[e.ID] = &cp
	return nil
}

func (r *inMemoryDeadLetterRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
	return nil
}

func (r *inMemoryDeadLetterRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, e := range r.entries {
		if e.IsExpired(now) {
			delete(r.entries, id)
			n++
		}
	}
	return n, nil
}

func (r *inMemoryDeadLetterRepo) List(ctx context.Context, filter ports.DeadLetterFilter) ([]domain.DeadLetterEntry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []domain.DeadLetterEntry
	for _, e := range r.entries {
		if !filter.IncludeProcessed && e.IsProcessed {
			continue
		}
		if filter.Reason != nil && e.Reason != *filter.Reason {
			continue
		}
		if filter.EndpointID != nil && e.EndpointID != *filter.EndpointID {
			continue
		}
		all = append(all, *e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	start := (filter.Page - 1) * filter.PageSize
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + filter.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *inMemoryDeadLetterRepo) byDelivery(id uuid.UUID) *domain.DeadLetterEntry {
	e, _ := r.GetByDeliveryID(context.Background(), id)
	return e
}

func (r *inMemoryDeadLetterRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// --- Transport ---

// scriptedTransport replays canned responses in order and repeats the last
// one when the script runs out.
type scriptedTransport struct {
	mu       sync.Mutex
	script   []scriptedReply
	requests []ports.HTTPRequest
	onSend   func()
}

type scriptedReply struct {
	status int
	body   []byte
	err    error
}

func newScriptedTransport(replies ...scriptedReply) *scriptedTransport {
	return &scriptedTransport{script: replies}
}

func reply(status int) scriptedReply { return scriptedReply{status: status} }

func replyErr(err error) scriptedReply { return scriptedReply{err: err} }

func (t *scriptedTransport) Send(ctx context.Context, req ports.HTTPRequest) (*ports.HTTPResponse, error) {
	t.mu.Lock()
	idx := len(t.requests)
	t.requests = append(t.requests, req)
	var r scriptedReply
	switch {
	case len(t.script) == 0:
		r = reply(200)
	case idx < len(t.script):
		r = t.script[idx]
	default:
		r = t.script[len(t.script)-1]
	}
	hook := t.onSend
	t.mu.Unlock()

	if hook != nil {
		hook()
	}
	if r.err != nil {
		return nil, r.err
	}
	body := r.body
	if body == nil {
		body = []byte(`{"ok":` + boolText(r.status < 300) + `}`)
	}
	return &ports.HTTPResponse{
		StatusCode: r.status,
		Body:       body,
		Latency:    15 * time.Millisecond,
	}, nil
}

func (t *scriptedTransport) calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.requests)
}

func boolText(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// --- Encryption ---

// plainEncryption stores secrets with a marker prefix.
type plainEncryption struct{}

func (plainEncryption) Encrypt(plaintext string) (string, error) {
	return "enc:" + plaintext, nil
}

func (plainEncryption) Decrypt(ciphertext string) (string, error) {
	if !strings.HasPrefix(ciphertext, "enc:") {
		return "", errors.New("cipher: message authentication failed")
	}
	return strings.TrimPrefix(ciphertext, "enc:"), nil
}

// --- Notifier ---

type recordingNotifier struct {
	mu          sync.Mutex
	completed   []domain.DeliveryStatus
	transitions []domain.CircuitTransition
	deadLetters []domain.DeadLetterReason
}

func (n *recordingNotifier) DeliveryCompleted(ctx context.Context, d *domain.WebhookDelivery) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, d.Status)
	return nil
}

func (n *recordingNotifier) CircuitStateChanged(ctx context.Context, t domain.CircuitTransition) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.transitions = append(n.transitions, t)
	return nil
}

func (n *recordingNotifier) DeadLettered(ctx context.Context, e *domain.DeadLetterEntry) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deadLetters = append(n.deadLetters, e.Reason)
	return nil
}

// --- Fixtures ---

func newTestEvent(eventType string) *domain.DomainEvent {
	return &domain.DomainEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: "order",
		AggregateID:   "A-1",
		Payload:       map[string]any{"order_id": "A-1", "total": 120.5},
		OccurredAt:    time.Date(2026, 3, 1, 11, 59, 0, 0, time.UTC),
	}
}

func newTestEndpoint(maxAttempts int) *domain.WebhookEndpoint {
	base := 60
	mult := 2.0
	return &domain.WebhookEndpoint{
		ID:                 uuid.New(),
		URL:                "https://hooks.example.com/in",
		SecretEnc:          "enc:whsec_test",
		IsActive:           true,
		MaxAttempts:        &maxAttempts,
		BaseBackoffSeconds: &base,
		BackoffMultiplier:  &mult,
	}
}
