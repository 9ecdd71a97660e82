package toolrelay

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Registry maps tool names to tools and invokes them. It is an explicit object
// owned by whoever builds the agent; there is no process-wide registry.
type Registry struct {
	tools       map[string]Tool // wrapped with middlewares, used by Invoke
	rawTools    map[string]Tool // unwrapped, used by Use() to re-apply middlewares from scratch
	opts        registryOptions
	mu          sync.RWMutex
	middlewares []Middleware
}

// NewRegistry creates an empty Registry with the given options.
func NewRegistry(opts ...RegistryOption) *Registry {
	o := registryOptions{recoverPanics: true}
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry{
		tools:    make(map[string]Tool),
		rawTools: make(map[string]Tool),
		opts:     o,
	}
}

// Register adds a tool. Stored middlewares (see Use) are applied to the tool before registration.
// If a tool with the same name already exists, it is replaced.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.Name()
	r.rawTools[name] = t
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		t = r.middlewares[i](t)
	}
	r.tools[name] = t
}

// Lookup returns the tool with the given name (after middlewares are applied), or (nil, false).
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Tools returns all registered tools sorted by name for deterministic order.
func (r *Registry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]Tool, 0, len(names))
	for _, name := range names {
		out = append(out, r.tools[name])
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Invoke runs one invocation. It never returns an error: every failure is
// recorded in the Result (see NotFoundError, ArgumentError, ExecutionError).
// The after-invoke hook (WithOnAfterInvoke) is always called via defer.
func (r *Registry) Invoke(ctx context.Context, inv Invocation) (res Result) {
	res.ToolName = inv.Tool
	start := time.Now()
	defer func() {
		if r.opts.onAfter != nil {
			r.opts.onAfter(ctx, inv, res, time.Since(start))
		}
	}()

	tool, ok := r.Lookup(inv.Tool)
	if !ok {
		return res.fail(&NotFoundError{Tool: inv.Tool})
	}

	timeout := r.opts.timeout
	if ts, ok := tool.(ToolSettings); ok && ts.Timeout() > 0 {
		timeout = ts.Timeout()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// Registered after the onAfter defer so it runs first and the hook sees the failure.
	if r.opts.recoverPanics {
		defer func() {
			if p := recover(); p != nil {
				res = res.fail(&ExecutionError{Tool: inv.Tool, Err: &panicError{p: p}})
			}
		}()
	}

	if r.opts.onBefore != nil {
		r.opts.onBefore(ctx, inv)
	}

	out, err := tool.Call(ctx, inv.ToolInput)
	if err != nil {
		return res.fail(classifyCallError(inv.Tool, err))
	}
	res.Result = out
	return res
}

// InvokeAll runs the invocations strictly in order and returns one Result per
// invocation, aligned with the input. A failure in one entry does not stop the
// rest. Duplicate invocations run once each.
func (r *Registry) InvokeAll(ctx context.Context, invs []Invocation) []Result {
	results := make([]Result, 0, len(invs))
	for _, inv := range invs {
		results = append(results, r.Invoke(ctx, inv))
	}
	return results
}

func (res Result) fail(err error) Result {
	res.Result = nil
	res.Err = err
	res.Error = err.Error()
	return res
}
