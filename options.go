package toolrelay

import (
	"context"
	"time"
)

// toolOptions hold optional tool settings (timeout, tags, return label).
type toolOptions struct {
	timeout time.Duration
	tags    []string
	returns string
}

// ToolOption configures a tool (e.g. WithTimeout, WithReturns).
type ToolOption func(*toolOptions)

func buildToolOptions(opts []ToolOption) toolOptions {
	var o toolOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithTimeout sets a per-tool timeout, applied by Registry around each call.
func WithTimeout(d time.Duration) ToolOption {
	return func(o *toolOptions) {
		o.timeout = d
	}
}

// WithTags sets tool tags (metadata for discovery).
func WithTags(tags ...string) ToolOption {
	return func(o *toolOptions) {
		o.tags = tags
	}
}

// WithReturns overrides the return type label shown in the catalog.
// NewDynamicTool defaults to "any" without it.
func WithReturns(label string) ToolOption {
	return func(o *toolOptions) {
		o.returns = label
	}
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	timeout       time.Duration
	recoverPanics bool
	onBefore      func(context.Context, Invocation)
	onAfter       func(context.Context, Invocation, Result, time.Duration)
}

// WithDefaultTimeout bounds every call that has no per-tool timeout.
// Zero (the default) leaves calls unbounded.
func WithDefaultTimeout(d time.Duration) RegistryOption {
	return func(o *registryOptions) {
		o.timeout = d
	}
}

// WithRecoverPanics enables panic recovery in Invoke (reported as an ExecutionError).
// Enabled by default.
func WithRecoverPanics(enable bool) RegistryOption {
	return func(o *registryOptions) {
		o.recoverPanics = enable
	}
}

// WithOnBeforeInvoke sets a hook called before each tool call.
func WithOnBeforeInvoke(fn func(context.Context, Invocation)) RegistryOption {
	return func(o *registryOptions) {
		o.onBefore = fn
	}
}

// WithOnAfterInvoke sets a hook called after each invocation, including
// invocations that failed before reaching the tool (unknown name).
func WithOnAfterInvoke(fn func(context.Context, Invocation, Result, time.Duration)) RegistryOption {
	return func(o *registryOptions) {
		o.onAfter = fn
	}
}
