package mutation

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/vango-dev/goalfeed/pkg/entity"
)

// Outcome is the settled result of one Execute call.
type Outcome struct {
	// Result is the server's response body on success.
	Result json.RawMessage

	// Err is non-nil on failure.
	Err error
}

// Success returns a successful outcome.
func Success(result json.RawMessage) Outcome {
	return Outcome{Result: result}
}

// Failure returns a failed outcome.
func Failure(err error) Outcome {
	return Outcome{Err: err}
}

// Succeeded reports whether the write was accepted.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Decode unmarshals the success body into v.
func (o Outcome) Decode(v any) error {
	if o.Err != nil {
		return o.Err
	}
	if len(o.Result) == 0 {
		return nil
	}
	return json.Unmarshal(o.Result, v)
}

// Executor performs one remote write per call.
type Executor interface {
	Execute(ctx context.Context, d entity.Descriptor) Outcome
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, d entity.Descriptor) Outcome

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, d entity.Descriptor) Outcome {
	return f(ctx, d)
}

// Middleware wraps an Executor with an ambient concern.
type Middleware func(Executor) Executor

// Chain applies middleware to exec. The first middleware is the outermost.
func Chain(exec Executor, mws ...Middleware) Executor {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			exec = mws[i](exec)
		}
	}
	return exec
}

// Logging logs every settlement at Info (success) or Warn (failure).
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Executor) Executor {
		return ExecutorFunc(func(ctx context.Context, d entity.Descriptor) Outcome {
			start := time.Now()
			out := next.Execute(ctx, d)
			attrs := []any{
				"kind", d.Entity.Kind.String(),
				"op", d.Operation.String(),
				"id", d.Entity.ID,
				"duration", time.Since(start),
			}
			if out.Err != nil {
				logger.Warn("mutation failed", append(attrs, "error", out.Err)...)
			} else {
				logger.Info("mutation succeeded", attrs...)
			}
			return out
		})
	}
}
