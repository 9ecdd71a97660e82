package toolrelay

import (
	"context"
	"encoding/json"
	"time"
)

// Tool is the contract for a model-callable capability.
// It is backend-agnostic (no knowledge of chat-completion or invoke-style APIs).
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON Schema of the accepted keyword arguments.
	Parameters() map[string]any
	// Returns is a human-readable label for the type of value Call produces.
	Returns() string
	// Call runs the tool with the keyword arguments decoded from the model reply.
	// The returned value becomes Result.Result unchanged.
	Call(ctx context.Context, input map[string]any) (any, error)
}

// ToolSettings is implemented by tools created with NewTool or NewDynamicTool.
// Registry uses Timeout() to bound a single call when it is set.
type ToolSettings interface {
	Timeout() time.Duration
	Tags() []string
}

// Invocation is a single tool request parsed from a model reply.
type Invocation struct {
	Tool      string         `json:"tool"`
	ToolInput map[string]any `json:"tool_input"`
}

// Result is the outcome of one Invocation. Exactly one of Result and Error is
// meaningful: Error is non-empty when the invocation failed.
type Result struct {
	ToolName string
	Result   any
	Error    string
	// Err is the typed failure behind Error (ErrToolNotFound, *ArgumentError or
	// *ExecutionError); it is not serialized.
	Err error
}

// OK reports whether the invocation succeeded.
func (r Result) OK() bool { return r.Err == nil && r.Error == "" }

// MarshalJSON renders {"tool_name", "result"} on success and
// {"tool_name", "error"} on failure.
func (r Result) MarshalJSON() ([]byte, error) {
	if !r.OK() {
		return json.Marshal(struct {
			ToolName string `json:"tool_name"`
			Error    string `json:"error"`
		}{r.ToolName, r.Error})
	}
	return json.Marshal(struct {
		ToolName string `json:"tool_name"`
		Result   any    `json:"result"`
	}{r.ToolName, r.Result})
}
