// Package observability wires OpenTelemetry tracing and metrics for flow
// runs.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("flowkit"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("flowkit"))
//	defer mp.Shutdown(ctx)
//
//	m, err := observability.NewEngineMetrics(observability.Meter("flowkit"))
//	m.RecordNode(ctx, "prompt", "succeeded", time.Second)
//
// A nil *EngineMetrics is valid and records nothing.
package observability
