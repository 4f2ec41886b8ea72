package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kbukum/flowkit/logger"
)

// Hook is a lifecycle callback.
type Hook func(ctx context.Context) error

// Phase names the point in the App lifecycle at which hooks run.
type Phase string

const (
	// PhaseStart runs after components start and before the ready check.
	PhaseStart Phase = "start"
	// PhaseReady runs after the ready check, before Run blocks or RunTask
	// calls its task.
	PhaseReady Phase = "ready"
	// PhaseStop runs on shutdown before components stop. Every stop hook
	// runs even when an earlier one fails.
	PhaseStop Phase = "stop"
)

type namedHook struct {
	name string
	fn   Hook
}

// OnStart adds hooks to PhaseStart.
func (a *App) OnStart(hooks ...Hook) { a.addHooks(PhaseStart, hooks) }

// OnReady adds hooks to PhaseReady.
func (a *App) OnReady(hooks ...Hook) { a.addHooks(PhaseReady, hooks) }

// OnStop adds hooks to PhaseStop. Telemetry providers are flushed here.
func (a *App) OnStop(hooks ...Hook) { a.addHooks(PhaseStop, hooks) }

func (a *App) addHooks(p Phase, hooks []Hook) {
	for _, h := range hooks {
		a.addHook(p, string(p)+"#"+strconv.Itoa(len(a.hooks[p])), h)
	}
}

func (a *App) addHook(p Phase, name string, h Hook) {
	if a.hooks == nil {
		a.hooks = map[Phase][]namedHook{}
	}
	a.hooks[p] = append(a.hooks[p], namedHook{name: name, fn: h})
}

// runPhase runs the hooks of p in registration order. Start and ready
// hooks stop at the first failure; stop hooks all run and their errors
// are joined.
func (a *App) runPhase(ctx context.Context, p Phase) error {
	var errs []error
	for _, h := range a.hooks[p] {
		start := time.Now()
		err := h.fn(ctx)
		fields := logger.MergeWithDuration(logger.Fields("phase", string(p), "hook", h.name), time.Since(start))
		if err == nil {
			a.Logger.Debug("lifecycle hook done", fields)
			continue
		}
		err = fmt.Errorf("%s hook %s: %w", p, h.name, err)
		if p != PhaseStop {
			return err
		}
		fields[logger.FieldError] = err.Error()
		a.Logger.Error("lifecycle hook failed", fields)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
