package router

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/quill/pkg/domain"
)

// HandlerFunc executes one command against the document.
// It receives a context and the decoded params, and returns a JSON-serializable result or error.
type HandlerFunc func(ctx context.Context, params map[string]any) (any, error)

// Middleware wraps a handler for a named command.
type Middleware func(command string, next HandlerFunc) HandlerFunc

// Router maps command names to handlers.
type Router struct {
	mu         sync.RWMutex
	handlers   map[string]HandlerFunc
	middleware []Middleware
}

// New creates an empty router.
func New(mw ...Middleware) *Router {
	return &Router{
		handlers:   make(map[string]HandlerFunc),
		middleware: mw,
	}
}

// Register adds a handler.
// If a handler with the same name exists, it is overwritten.
func (r *Router) Register(command string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[command] = fn
}

// Use appends middleware. Middleware registered first runs outermost.
func (r *Router) Use(mw ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, mw...)
}

// Has reports whether command is registered.
func (r *Router) Has(command string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[command]
	return ok
}

// Dispatch looks up the handler for command and runs it through the middleware chain.
// Unknown commands fail with an unknown_command error and run nothing.
func (r *Router) Dispatch(ctx context.Context, command string, params map[string]any) (any, error) {
	r.mu.RLock()
	fn, ok := r.handlers[command]
	mw := r.middleware
	r.mu.RUnlock()

	if !ok {
		return nil, domain.Errorf(domain.KindUnknownCommand, "unknown command: %s", command)
	}
	if params == nil {
		params = map[string]any{}
	}

	for i := len(mw) - 1; i >= 0; i-- {
		fn = mw[i](command, fn)
	}
	return fn(ctx, params)
}

// Commands lists the registered command names in order.
func (r *Router) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
