package bootstrap

import (
	"github.com/kbukum/flowkit/cache"
	"github.com/kbukum/flowkit/config"
	"github.com/kbukum/flowkit/engine"
	"github.com/kbukum/flowkit/executor"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/preview"
)

// Stack is the execution side of a process: executors, the result cache,
// the engine and the preview hub it streams to.
type Stack struct {
	Registry *executor.Registry
	Cache    *cache.Manager
	Engine   *engine.Engine
	Preview  *preview.Component
}

// NewStack wires the built-in executors and the engine from cfg. metrics
// may be nil. The preview component must be registered with the App so
// its hub loop runs.
func NewStack(cfg *config.Config, log *logger.Logger, metrics *observability.EngineMetrics) *Stack {
	reg := executor.NewDefaultRegistry()
	reg.SetDefaultTimeouts(cfg.Engine.TextTimeout, cfg.Engine.MediaTimeout)
	reg.Use(executor.WithLogging(log.WithComponent("executor")), executor.WithTracing())
	if cfg.Engine.RetryEnabled {
		reg.Use(executor.WithRetry(cfg.Engine.Retry))
	}

	cm := cache.New(cfg.Cache.MaxBytes,
		cache.WithPolicy(reg.CachePolicy),
		cache.WithMetrics(metrics),
		cache.WithLogger(log.WithComponent("cache")),
	)

	pc := preview.NewComponent()
	eng := engine.New(reg, cm,
		engine.WithMaxParallel(cfg.Engine.MaxParallel),
		engine.WithPreview(pc.Hub()),
		engine.WithLogger(log.WithComponent("engine")),
		engine.WithMetrics(metrics),
	)

	return &Stack{Registry: reg, Cache: cm, Engine: eng, Preview: pc}
}
