package router

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/quill/internal/logging"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch_UnknownCommand(t *testing.T) {
	r := New()
	called := false
	r.Register("known", func(ctx context.Context, params map[string]any) (any, error) {
		called = true
		return nil, nil
	})

	_, err := r.Dispatch(context.Background(), "nope", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownCommand))
	assert.False(t, called)
}

func TestDispatch_MiddlewareOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(command string, next HandlerFunc) HandlerFunc {
			return func(ctx context.Context, params map[string]any) (any, error) {
				order = append(order, name)
				return next(ctx, params)
			}
		}
	}

	r := New(tag("outer"))
	r.Use(tag("inner"))
	r.Register("cmd", func(ctx context.Context, params map[string]any) (any, error) {
		order = append(order, "handler")
		return params["x"], nil
	})

	res, err := r.Dispatch(context.Background(), "cmd", map[string]any{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, 1, res)
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRecover(t *testing.T) {
	r := New(Recover())
	r.Register("boom", func(ctx context.Context, params map[string]any) (any, error) {
		panic("kaboom")
	})

	_, err := r.Dispatch(context.Background(), "boom", nil)
	require.Error(t, err)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
}

func TestMetricsAndLogging(t *testing.T) {
	m := observability.NewMetrics()
	r := New(Logging(logging.NewNop()), Metrics(m))
	r.Register("ok", func(ctx context.Context, params map[string]any) (any, error) { return "done", nil })
	r.Register("bad", func(ctx context.Context, params map[string]any) (any, error) {
		return nil, domain.Errorf(domain.KindNotFound, "node 1:1 not found")
	})

	_, _ = r.Dispatch(context.Background(), "ok", nil)
	_, _ = r.Dispatch(context.Background(), "bad", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commands.WithLabelValues("ok", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commands.WithLabelValues("bad", "error")))
}

func TestRequire(t *testing.T) {
	h := Require("nodeId")(func(ctx context.Context, params map[string]any) (any, error) { return true, nil })

	_, err := h(context.Background(), map[string]any{})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	res, err := h(context.Background(), map[string]any{"nodeId": "1:2"})
	require.NoError(t, err)
	assert.Equal(t, true, res)
}

func TestCommands_Sorted(t *testing.T) {
	r := New()
	noop := func(ctx context.Context, params map[string]any) (any, error) { return nil, nil }
	r.Register("b", noop)
	r.Register("a", noop)
	assert.Equal(t, []string{"a", "b"}, r.Commands())
	assert.True(t, r.Has("a"))
}
