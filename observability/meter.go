package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/profilewizard/logger"
)

// InitMeter installs an OTLP/HTTP meter provider with a periodic reader as
// the global provider. The caller shuts it down on exit.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}
	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.MetricInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"endpoint", cfg.Endpoint,
		"interval", cfg.MetricInterval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics counts and times the outbound operations of a component (catalog
// mutations, store writes) and tallies their failures by error code.
type Metrics struct {
	component string
	total     metric.Int64Counter
	duration  metric.Float64Histogram
	failures  metric.Int64Counter
}

// NewMetrics creates the instruments for one component on meter.
func NewMetrics(meter metric.Meter, component string) (*Metrics, error) {
	total, err := meter.Int64Counter("profilewizard.operations",
		metric.WithDescription("Operations by component, name and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating operations counter: %w", err)
	}
	duration, err := meter.Float64Histogram("profilewizard.operation.duration",
		metric.WithDescription("Operation latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating operation duration histogram: %w", err)
	}
	failures, err := meter.Int64Counter("profilewizard.failures",
		metric.WithDescription("Failed operations by component and error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failures counter: %w", err)
	}
	return &Metrics{component: component, total: total, duration: duration, failures: failures}, nil
}

// Record tallies one finished operation. code is the error code of a failed
// operation and empty on success. A nil *Metrics records nothing.
func (m *Metrics) Record(ctx context.Context, operation, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if code != "" {
		outcome = "error"
	}
	base := []attribute.KeyValue{
		attribute.String("component", m.component),
		attribute.String("operation", operation),
	}
	m.total.Add(ctx, 1, metric.WithAttributes(append(base, attribute.String("outcome", outcome))...))
	m.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(base...))
	if code != "" {
		m.failures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("component", m.component),
			attribute.String("code", code),
		))
	}
}
