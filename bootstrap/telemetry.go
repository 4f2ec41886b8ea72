package bootstrap

import (
	"context"
	"fmt"

	"github.com/kbukum/flowkit/observability"
)

// InitTelemetry installs the OTLP tracer and meter providers when
// telemetry is enabled and flushes them on stop. It always returns engine
// instruments; without telemetry they record on the no-op global meter.
func (a *App) InitTelemetry(ctx context.Context) (*observability.EngineMetrics, error) {
	if a.Cfg.Telemetry.Enabled {
		tp, err := observability.InitTracer(ctx, a.Cfg.TracerConfig())
		if err != nil {
			return nil, fmt.Errorf("tracer: %w", err)
		}
		mp, err := observability.InitMeter(ctx, a.Cfg.MeterConfig())
		if err != nil {
			_ = tp.Shutdown(ctx)
			return nil, fmt.Errorf("meter: %w", err)
		}
		a.addHook(PhaseStop, "tracer-provider", tp.Shutdown)
		a.addHook(PhaseStop, "meter-provider", mp.Shutdown)
	}

	metrics, err := observability.NewEngineMetrics(observability.Meter(observability.TracerName))
	if err != nil {
		return nil, fmt.Errorf("engine metrics: %w", err)
	}
	return metrics, nil
}
