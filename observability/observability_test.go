package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultConfigs(t *testing.T) {
	tc := DefaultTracerConfig("flowkit")
	if tc.ServiceName != "flowkit" || tc.Endpoint != "localhost:4318" || tc.SampleRate != 1.0 {
		t.Errorf("unexpected tracer defaults %+v", tc)
	}
	mc := DefaultMeterConfig("flowkit")
	if mc.Interval != 15*time.Second {
		t.Errorf("expected 15s interval, got %v", mc.Interval)
	}
}

func TestSampler(t *testing.T) {
	if sampler(1).Description() != sdktrace.AlwaysSample().Description() {
		t.Error("rate 1 should always sample")
	}
	if sampler(0).Description() != sdktrace.NeverSample().Description() {
		t.Error("rate 0 should never sample")
	}
}

func TestStartAndEndSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	_, span := StartSpan(context.Background(), SpanNode)
	EndSpan(span, errors.New("boom"))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != SpanNode {
		t.Errorf("expected span %s, got %s", SpanNode, spans[0].Name)
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[0].Status.Code)
	}
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: expected int64 sum, got %T", m.Name, m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestEngineMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewEngineMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewEngineMetrics: %v", err)
	}

	ctx := context.Background()
	m.RecordRun(ctx, "succeeded", time.Second)
	m.NodeStarted(ctx)
	m.RecordNode(ctx, "prompt", "succeeded", 10*time.Millisecond)
	m.RecordCacheLookup(ctx, true, "")
	m.RecordCacheLookup(ctx, false, "config_changed")
	m.RecordEviction(ctx, 2)
	m.AddCacheBytes(ctx, 512)

	got := collect(t, reader)
	checks := map[string]int64{
		"flow.run.total":       1,
		"flow.node.total":      1,
		"flow.node.active":     0,
		"flow.cache.lookups":   2,
		"flow.cache.evictions": 2,
		"flow.cache.bytes":     512,
	}
	for name, want := range checks {
		metric, ok := got[name]
		if !ok {
			t.Errorf("missing metric %s", name)
			continue
		}
		if v := sumOf(t, metric); v != want {
			t.Errorf("%s: expected %d, got %d", name, want, v)
		}
	}
}

func TestNilEngineMetrics(t *testing.T) {
	var m *EngineMetrics
	ctx := context.Background()
	m.RecordRun(ctx, "failed", time.Second)
	m.NodeStarted(ctx)
	m.RecordNode(ctx, "code", "failed", time.Second)
	m.RecordCacheLookup(ctx, false, "not_found")
	m.RecordEviction(ctx, 1)
	m.AddCacheBytes(ctx, 1)
}
