package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/observability"
)

// Logging logs every dispatch with its duration and error kind.
func Logging(logger *slog.Logger) Middleware {
	return func(command string, next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, params map[string]any) (any, error) {
			start := time.Now()
			res, err := next(ctx, params)
			if err != nil {
				logger.Warn("command failed",
					"command", command,
					"kind", domain.KindOf(err),
					"duration", time.Since(start),
					"error", err)
				return res, err
			}
			logger.Debug("command done", "command", command, "duration", time.Since(start))
			return res, nil
		}
	}
}

// Metrics records the command counter and duration histogram.
func Metrics(m *observability.Metrics) Middleware {
	return func(command string, next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, params map[string]any) (any, error) {
			start := time.Now()
			res, err := next(ctx, params)
			m.ObserveCommand(command, start, err)
			return res, err
		}
	}
}

// Recover turns a handler panic into an internal error so one bad command
// cannot take the host down.
func Recover() Middleware {
	return func(command string, next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, params map[string]any) (res any, err error) {
			defer func() {
				if p := recover(); p != nil {
					res = nil
					err = domain.Errorf(domain.KindInternal, "%s panicked: %v", command, p)
				}
			}()
			return next(ctx, params)
		}
	}
}

// Require rejects commands whose params miss any of the listed keys.
func Require(keys ...string) func(HandlerFunc) HandlerFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, params map[string]any) (any, error) {
			for _, k := range keys {
				v, ok := params[k]
				if !ok || v == nil || v == "" {
					return nil, domain.Errorf(domain.KindValidation, "missing %s parameter", k)
				}
			}
			return next(ctx, params)
		}
	}
}
