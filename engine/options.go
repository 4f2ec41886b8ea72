package engine

import (
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/preview"
)

// Option configures an Engine.
type Option func(*Engine)

// WithMaxParallel bounds the number of executor calls in flight across a
// run. Zero or less means unbounded.
func WithMaxParallel(n int) Option {
	return func(e *Engine) { e.maxParallel = n }
}

// WithPreview mirrors streamed chunks of preview-flagged node types to p.
func WithPreview(p preview.Publisher) Option {
	return func(e *Engine) { e.preview = p }
}

// WithLogger sets the engine logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithMetrics records run and node instruments on m.
func WithMetrics(m *observability.EngineMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}
