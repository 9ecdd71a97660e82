package toolrelay

import (
	"context"
	"log/slog"
	"time"
)

// Middleware wraps a Tool with cross-cutting behavior (logging, recovery, timeout, tracing).
type Middleware func(Tool) Tool

// WithLogging returns a middleware that logs each call: the input at debug
// level, then the elapsed time at info, or the error.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Tool) Tool {
		return &loggingTool{toolBase: toolBase{next: next}, logger: logger}
	}
}

// WithRecovery returns a middleware that recovers panics and returns an ExecutionError.
func WithRecovery() Middleware {
	return func(next Tool) Tool {
		return &recoveryTool{toolBase{next: next}}
	}
}

// WithTimeoutMiddleware returns a middleware that enforces a per-tool timeout.
// When the registry also applies a timeout, the shorter one wins (inner context cancels first).
func WithTimeoutMiddleware(d time.Duration) Middleware {
	return func(next Tool) Tool {
		return &timeoutTool{toolBase: toolBase{next: next}, timeout: d}
	}
}

// toolBase delegates Tool and ToolSettings to the wrapped Tool; used by middleware wrappers.
type toolBase struct{ next Tool }

func (b *toolBase) Name() string               { return b.next.Name() }
func (b *toolBase) Description() string        { return b.next.Description() }
func (b *toolBase) Parameters() map[string]any { return b.next.Parameters() }
func (b *toolBase) Returns() string            { return b.next.Returns() }

func (b *toolBase) Timeout() time.Duration {
	if ts, ok := b.next.(ToolSettings); ok {
		return ts.Timeout()
	}
	return 0
}

func (b *toolBase) Tags() []string {
	if ts, ok := b.next.(ToolSettings); ok {
		return ts.Tags()
	}
	return nil
}

type loggingTool struct {
	toolBase
	logger *slog.Logger
}

func (m *loggingTool) Call(ctx context.Context, input map[string]any) (any, error) {
	name := m.next.Name()
	m.logger.DebugContext(ctx, "tool call", "tool", name, "input", input)
	start := time.Now()
	res, err := m.next.Call(ctx, input)
	elapsed := time.Since(start)
	if err != nil {
		m.logger.ErrorContext(ctx, "tool call failed", "tool", name, "elapsed", elapsed, "error", err)
		return nil, err
	}
	m.logger.InfoContext(ctx, "tool call done", "tool", name, "elapsed", elapsed)
	return res, nil
}

type recoveryTool struct{ toolBase }

func (r *recoveryTool) Call(ctx context.Context, input map[string]any) (res any, err error) {
	defer func() {
		if p := recover(); p != nil {
			res = nil
			err = &ExecutionError{Tool: r.next.Name(), Err: &panicError{p: p}}
		}
	}()
	return r.next.Call(ctx, input)
}

type timeoutTool struct {
	toolBase
	timeout time.Duration
}

func (t *timeoutTool) Timeout() time.Duration {
	if t.timeout > 0 {
		return t.timeout
	}
	return t.toolBase.Timeout()
}

func (t *timeoutTool) Call(ctx context.Context, input map[string]any) (any, error) {
	if t.timeout <= 0 {
		return t.next.Call(ctx, input)
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Call(ctx, input)
}

// Use stores the given middlewares and reapplies them from scratch to all registered tools (onion order:
// first middleware is outermost). Tools registered after Use will also get these middlewares applied.
// Calling Use multiple times replaces the middleware chain and rewraps from raw tools, avoiding double-wrapping.
func (r *Registry) Use(middlewares ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = middlewares
	for name, raw := range r.rawTools {
		t := raw
		for i := len(middlewares) - 1; i >= 0; i-- {
			t = middlewares[i](t)
		}
		r.tools[name] = t
	}
}
