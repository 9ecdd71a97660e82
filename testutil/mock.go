// Package testutil provides test helpers for toolrelay (MockTool, ScriptedModel).
package testutil

import (
	"context"
	"sync/atomic"

	"github.com/skosovsky/toolrelay"
)

// MockTool is a configurable Tool implementation for tests.
type MockTool struct {
	NameVal    string
	DescVal    string
	ParamsVal  map[string]any
	ReturnsVal string
	CallFn     func(ctx context.Context, input map[string]any) (any, error)

	calls atomic.Int64
}

// Name returns the tool name.
func (m *MockTool) Name() string {
	if m.NameVal != "" {
		return m.NameVal
	}
	return "mock"
}

// Description returns the tool description.
func (m *MockTool) Description() string {
	return m.DescVal
}

// Parameters returns the parameters schema (or empty map).
func (m *MockTool) Parameters() map[string]any {
	if m.ParamsVal != nil {
		return m.ParamsVal
	}
	return map[string]any{}
}

// Returns returns the return label, "any" when unset.
func (m *MockTool) Returns() string {
	if m.ReturnsVal != "" {
		return m.ReturnsVal
	}
	return "any"
}

// Call runs CallFn if set, otherwise returns nil.
func (m *MockTool) Call(ctx context.Context, input map[string]any) (any, error) {
	m.calls.Add(1)
	if m.CallFn != nil {
		return m.CallFn(ctx, input)
	}
	return nil, nil
}

// Calls reports how many times Call ran.
func (m *MockTool) Calls() int {
	return int(m.calls.Load())
}

// Ensure MockTool implements Tool.
var _ toolrelay.Tool = (*MockTool)(nil)
