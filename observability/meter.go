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

	"github.com/kbukum/flowkit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	Insecure       bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns defaults for local development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter installs a global meter provider exporting over OTLP HTTP.
// The returned provider must be shut down on exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(config.Endpoint)}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// EngineMetrics holds the instruments recorded by the engine and the
// cache manager.
type EngineMetrics struct {
	runTotal       metric.Int64Counter
	runDuration    metric.Float64Histogram
	nodeTotal      metric.Int64Counter
	nodeDuration   metric.Float64Histogram
	nodeActive     metric.Int64UpDownCounter
	cacheLookups   metric.Int64Counter
	cacheEvictions metric.Int64Counter
	cacheBytes     metric.Int64UpDownCounter
}

// NewEngineMetrics creates the engine instruments on meter.
func NewEngineMetrics(meter metric.Meter) (*EngineMetrics, error) {
	m := &EngineMetrics{}
	var err error

	if m.runTotal, err = meter.Int64Counter("flow.run.total",
		metric.WithDescription("Flow runs by outcome")); err != nil {
		return nil, fmt.Errorf("creating flow.run.total counter: %w", err)
	}
	if m.runDuration, err = meter.Float64Histogram("flow.run.duration",
		metric.WithDescription("Duration of flow runs"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating flow.run.duration histogram: %w", err)
	}
	if m.nodeTotal, err = meter.Int64Counter("flow.node.total",
		metric.WithDescription("Node completions by type and status")); err != nil {
		return nil, fmt.Errorf("creating flow.node.total counter: %w", err)
	}
	if m.nodeDuration, err = meter.Float64Histogram("flow.node.duration",
		metric.WithDescription("Duration of executor calls"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating flow.node.duration histogram: %w", err)
	}
	if m.nodeActive, err = meter.Int64UpDownCounter("flow.node.active",
		metric.WithDescription("Executor calls in flight")); err != nil {
		return nil, fmt.Errorf("creating flow.node.active counter: %w", err)
	}
	if m.cacheLookups, err = meter.Int64Counter("flow.cache.lookups",
		metric.WithDescription("Cache lookups by result and miss reason")); err != nil {
		return nil, fmt.Errorf("creating flow.cache.lookups counter: %w", err)
	}
	if m.cacheEvictions, err = meter.Int64Counter("flow.cache.evictions",
		metric.WithDescription("Entries evicted to fit the byte budget")); err != nil {
		return nil, fmt.Errorf("creating flow.cache.evictions counter: %w", err)
	}
	if m.cacheBytes, err = meter.Int64UpDownCounter("flow.cache.bytes",
		metric.WithDescription("Estimated bytes held by the cache"), metric.WithUnit("By")); err != nil {
		return nil, fmt.Errorf("creating flow.cache.bytes counter: %w", err)
	}
	return m, nil
}

// RecordRun records a finished run.
func (m *EngineMetrics) RecordRun(ctx context.Context, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.runTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	m.runDuration.Record(ctx, duration.Seconds())
}

// NodeStarted marks an executor call as in flight.
func (m *EngineMetrics) NodeStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.nodeActive.Add(ctx, 1)
}

// RecordNode records a finished executor call.
func (m *EngineMetrics) RecordNode(ctx context.Context, nodeType, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.nodeActive.Add(ctx, -1)
	m.nodeTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", nodeType),
		attribute.String("status", status),
	))
	m.nodeDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("type", nodeType),
	))
}

// RecordCacheLookup records a hit (reason "") or a miss with its reason.
func (m *EngineMetrics) RecordCacheLookup(ctx context.Context, hit bool, reason string) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	attrs := []attribute.KeyValue{attribute.String("result", result)}
	if reason != "" {
		attrs = append(attrs, attribute.String("reason", reason))
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordEviction records entries evicted for space.
func (m *EngineMetrics) RecordEviction(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.cacheEvictions.Add(ctx, int64(n))
}

// AddCacheBytes adjusts the cache size gauge by delta.
func (m *EngineMetrics) AddCacheBytes(ctx context.Context, delta int64) {
	if m == nil || delta == 0 {
		return
	}
	m.cacheBytes.Add(ctx, delta)
}
