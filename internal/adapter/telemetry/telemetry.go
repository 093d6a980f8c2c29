// Package telemetry exposes dispatcher activity as OpenTelemetry metrics and
// serves them in Prometheus format.
package telemetry

import (
	"context"
	"fmt"
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MeterName is the instrumentation scope of every dispatcher instrument.
const MeterName = "webhook-dispatcher"

// Provider owns the meter provider and, when built with NewPrometheus, the
// scrape handler.
type Provider struct {
	meterProvider *sdkmetric.MeterProvider
	handler       http.Handler
}

// NewPrometheus creates a provider backed by a dedicated Prometheus registry
// that also carries the Go runtime and process collectors.
func NewPrometheus() (*Provider, error) {
	registry := prom.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	return &Provider{
		meterProvider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)),
		handler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, nil
}

// NewWithReader creates a provider over an arbitrary reader. It has no scrape
// handler.
func NewWithReader(reader sdkmetric.Reader) *Provider {
	return &Provider{meterProvider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))}
}

// Meter returns the dispatcher meter.
func (p *Provider) Meter() metric.Meter {
	return p.meterProvider.Meter(MeterName, metric.WithInstrumentationVersion("1.0.0"))
}

// Handler serves the Prometheus exposition, or 404 when the provider was not
// built for Prometheus.
func (p *Provider) Handler() http.Handler {
	if p.handler == nil {
		return http.NotFoundHandler()
	}
	return p.handler
}

// Shutdown flushes and stops the meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.meterProvider.Shutdown(ctx)
}
