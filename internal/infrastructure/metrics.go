package infrastructure

import (
	"context"
	"fmt"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
)

const (
	ServiceName    = "doorstroom-monitor"
	ServiceVersion = "1.0.0"

	// MeterName is the instrumentation scope for all application metrics.
	MeterName = "doorstroom"
)

// Metrics bundles the OpenTelemetry meter provider, its Prometheus
// exporter registry, and the application's instruments.
type Metrics struct {
	MeterProvider *sdkmetric.MeterProvider
	Meter         metric.Meter
	registry      *promclient.Registry

	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	UploadsTotal        metric.Int64Counter
	UploadFilesFailed   metric.Int64Counter
	RowsIngested        metric.Int64Counter
	ActiveSessions      metric.Int64UpDownCounter
}

// NewMetrics initializes the OpenTelemetry meter provider with a
// Prometheus exporter backed by a private registry.
func NewMetrics() (*Metrics, error) {
	registry := promclient.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(ServiceVersion),
	)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	meter := mp.Meter(MeterName)

	m := &Metrics{
		MeterProvider: mp,
		Meter:         meter,
		registry:      registry,
	}

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total: %w", err)
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds: %w", err)
	}

	if m.UploadsTotal, err = meter.Int64Counter(
		"uploads_total",
		metric.WithDescription("Total number of upload batches ingested"),
	); err != nil {
		return nil, fmt.Errorf("failed to create uploads_total: %w", err)
	}

	if m.UploadFilesFailed, err = meter.Int64Counter(
		"upload_files_failed_total",
		metric.WithDescription("Total number of uploaded files that failed to parse"),
	); err != nil {
		return nil, fmt.Errorf("failed to create upload_files_failed_total: %w", err)
	}

	if m.RowsIngested, err = meter.Int64Counter(
		"rows_ingested_total",
		metric.WithDescription("Total number of enrollment rows ingested"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rows_ingested_total: %w", err)
	}

	if m.ActiveSessions, err = meter.Int64UpDownCounter(
		"active_sessions",
		metric.WithDescription("Number of live analyst sessions"),
	); err != nil {
		return nil, fmt.Errorf("failed to create active_sessions: %w", err)
	}

	return m, nil
}

// Handler returns the /metrics scrape handler for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.MeterProvider == nil {
		return nil
	}
	return m.MeterProvider.Shutdown(ctx)
}
