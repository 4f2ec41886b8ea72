package executor

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/flowkit/flow"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/resilience"
)

// Middleware wraps an Executor with cross-cutting behavior.
type Middleware func(Executor) Executor

// Chain composes middlewares; the first is outermost.
//
// Chain(a, b, c)(e) is equivalent to a(b(c(e))).
func Chain(middlewares ...Middleware) Middleware {
	return func(inner Executor) Executor {
		for i := len(middlewares) - 1; i >= 0; i-- {
			inner = middlewares[i](inner)
		}
		return inner
	}
}

// WithLogging logs each Execute call with its duration and outcome.
func WithLogging(log *logger.Logger) Middleware {
	return func(inner Executor) Executor {
		return Func(func(ctx context.Context, in *Context) (flow.Result, error) {
			start := time.Now()
			res, err := inner.Execute(ctx, in)

			fields := logger.MergeWithDuration(logger.Fields(
				logger.FieldNodeID, in.NodeID(),
				logger.FieldNodeType, string(in.NodeType()),
			), time.Since(start))
			l := log.WithContext(ctx)
			if err != nil {
				fields[logger.FieldError] = err.Error()
				l.Warn("executor failed", fields)
			} else {
				l.Debug("executor ok", fields)
			}
			return res, err
		})
	}
}

// WithTracing runs each Execute call in its own span.
func WithTracing() Middleware {
	return func(inner Executor) Executor {
		return Func(func(ctx context.Context, in *Context) (flow.Result, error) {
			ctx, span := observability.StartSpan(ctx, observability.SpanExecute)
			span.SetAttributes(
				attribute.String(observability.AttrNodeID, in.NodeID()),
				attribute.String(observability.AttrNodeType, string(in.NodeType())),
			)
			res, err := inner.Execute(ctx, in)
			observability.EndSpan(span, err)
			return res, err
		})
	}
}

// WithRetry retries failed calls per cfg. Streamed chunks of failed
// attempts are not retracted.
func WithRetry(cfg resilience.RetryConfig) Middleware {
	return func(inner Executor) Executor {
		return Func(func(ctx context.Context, in *Context) (flow.Result, error) {
			return resilience.Retry(ctx, cfg, func() (flow.Result, error) {
				return inner.Execute(ctx, in)
			})
		})
	}
}
