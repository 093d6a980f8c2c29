package telemetry

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"webhook-dispatcher/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestMetricsNotifier_Counts(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	p := NewWithReader(reader)
	defer p.Shutdown(context.Background())

	n, err := NewMetricsNotifier(p.Meter())
	require.NoError(t, err)
	ctx := context.Background()
	now := time.Now()

	d := domain.NewWebhookDelivery(&domain.DomainEvent{ID: uuid.New(), EventType: "order.created"}, uuid.New(), domain.RetryPolicy{MaxAttempts: 3}, now)
	d.Status = domain.DeliveryStatusSuccess
	require.NoError(t, n.DeliveryCompleted(ctx, d))
	require.NoError(t, n.DeliveryCompleted(ctx, d))
	require.NoError(t, n.CircuitStateChanged(ctx, domain.CircuitTransition{From: domain.CircuitClosed, To: domain.CircuitOpen}))
	require.NoError(t, n.DeadLettered(ctx, domain.NewDeadLetterEntry(d, domain.ReasonEndpointDeleted, "", time.Hour, now)))

	data := collect(t, reader)

	deliveries, ok := data["webhook.deliveries.completed"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, deliveries.DataPoints, 1)
	assert.Equal(t, int64(2), deliveries.DataPoints[0].Value)
	status, _ := deliveries.DataPoints[0].Attributes.Value("status")
	assert.Equal(t, "SUCCESS", status.AsString())
	cat, _ := deliveries.DataPoints[0].Attributes.Value("event.category")
	assert.Equal(t, "order", cat.AsString())

	attempts, ok := data["webhook.delivery.attempts"].(metricdata.Histogram[int64])
	require.True(t, ok)
	assert.Equal(t, uint64(2), attempts.DataPoints[0].Count)

	transitions, ok := data["webhook.circuit.transitions"].(metricdata.Sum[int64])
	require.True(t, ok)
	to, _ := transitions.DataPoints[0].Attributes.Value("to")
	assert.Equal(t, "OPEN", to.AsString())

	dead, ok := data["webhook.dead_letters.created"].(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(1), dead.DataPoints[0].Value)
}

func TestRegisterBacklogGauge(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	p := NewWithReader(reader)
	defer p.Shutdown(context.Background())

	backlog := int64(42)
	require.NoError(t, RegisterBacklogGauge(p.Meter(), func(context.Context) (int64, error) { return backlog, nil }))

	gauge, ok := collect(t, reader)["webhook.events.backlog"].(metricdata.Gauge[int64])
	require.True(t, ok)
	assert.Equal(t, int64(42), gauge.DataPoints[0].Value)
}

func TestRegisterBacklogGauge_ErrorSkipsObservation(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	p := NewWithReader(reader)
	defer p.Shutdown(context.Background())

	require.NoError(t, RegisterBacklogGauge(p.Meter(), func(context.Context) (int64, error) { return 0, errors.New("db down") }))

	var rm metricdata.ResourceMetrics
	_ = reader.Collect(context.Background(), &rm)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if g, ok := m.Data.(metricdata.Gauge[int64]); ok && m.Name == "webhook.events.backlog" {
				assert.Empty(t, g.DataPoints)
			}
		}
	}
}

func TestNewPrometheus_ServesScrape(t *testing.T) {
	p, err := NewPrometheus()
	require.NoError(t, err)
	defer p.Shutdown(context.Background())

	n, err := NewMetricsNotifier(p.Meter())
	require.NoError(t, err)
	require.NoError(t, n.CircuitStateChanged(context.Background(), domain.CircuitTransition{From: domain.CircuitOpen, To: domain.CircuitHalfOpen}))

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "webhook_circuit_transitions")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestProvider_HandlerWithoutPrometheus(t *testing.T) {
	p := NewWithReader(sdkmetric.NewManualReader())
	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
