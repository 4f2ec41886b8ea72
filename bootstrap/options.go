package bootstrap

import (
	"time"

	"github.com/kbukum/flowkit/logger"
)

// Option overrides App settings derived from the config. Options run
// before the component registry is created.
type Option func(*App)

// WithLogger replaces the logger built from the logging section. The
// global logger is left untouched.
func WithLogger(l *logger.Logger) Option {
	return func(a *App) { a.Logger = l }
}

// WithGracefulTimeout overrides server.shutdown_timeout as the budget for
// stop hooks and component shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(a *App) { a.gracefulTimeout = d }
}

// WithHook registers a named hook for a lifecycle phase at construction.
func WithHook(p Phase, name string, h Hook) Option {
	return func(a *App) { a.addHook(p, name, h) }
}
