package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/skosovsky/toolrelay"
)

// ReplyKind tags the outcome of parsing a model reply.
type ReplyKind int

const (
	// NoToolRequested is a valid reply that asks for no tool (`{}`, `[]`).
	NoToolRequested ReplyKind = iota
	// ToolRequested carries one or more invocations.
	ToolRequested
	// MalformedReply means the reply could not be decoded into invocations.
	MalformedReply
)

func (k ReplyKind) String() string {
	switch k {
	case NoToolRequested:
		return "no_tool"
	case ToolRequested:
		return "tool"
	case MalformedReply:
		return "malformed"
	}
	return fmt.Sprintf("ReplyKind(%d)", int(k))
}

// ErrMalformedReply is wrapped by every Reply.Err of kind MalformedReply.
var ErrMalformedReply = errors.New("malformed tool invocation")

// Reply is the parsed form of a raw model reply.
type Reply struct {
	Kind        ReplyKind
	Invocations []toolrelay.Invocation
	Err         error
}

// ParseStrict parses raw as a tool invocation. Anything that is not an empty
// object, an invocation object or an array of invocation objects is a
// MalformedReply.
func ParseStrict(raw string) Reply {
	return parseReply(raw, true)
}

// ParseLenient is ParseStrict with every malformed outcome downgraded to
// NoToolRequested.
func ParseLenient(raw string) Reply {
	return parseReply(raw, false)
}

func parseReply(raw string, strict bool) Reply {
	invs, err := decodeInvocations(stripCodeFence(raw))
	switch {
	case err != nil && strict:
		return Reply{Kind: MalformedReply, Err: err}
	case err != nil || len(invs) == 0:
		return Reply{Kind: NoToolRequested}
	}
	return Reply{Kind: ToolRequested, Invocations: invs}
}

func decodeInvocations(text string) ([]toolrelay.Invocation, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedReply, err)
	}
	var elems []any
	switch x := v.(type) {
	case map[string]any:
		elems = []any{x}
	case []any:
		elems = x
	default:
		return nil, fmt.Errorf("%w: expected a JSON object or array, got %s", ErrMalformedReply, jsonKind(v))
	}
	invs := make([]toolrelay.Invocation, 0, len(elems))
	for i, e := range elems {
		obj, ok := e.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is %s, not an object", ErrMalformedReply, i, jsonKind(e))
		}
		if len(obj) == 0 {
			continue
		}
		inv, err := toInvocation(obj)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %w", ErrMalformedReply, i, err)
		}
		invs = append(invs, inv)
	}
	return invs, nil
}

func toInvocation(obj map[string]any) (toolrelay.Invocation, error) {
	rawTool, ok := obj["tool"]
	if !ok {
		return toolrelay.Invocation{}, errors.New(`missing "tool" key`)
	}
	name, ok := rawTool.(string)
	if !ok {
		return toolrelay.Invocation{}, fmt.Errorf(`"tool" must be a string, got %s`, jsonKind(rawTool))
	}
	rawInput, ok := obj["tool_input"]
	if !ok {
		return toolrelay.Invocation{}, errors.New(`missing "tool_input" key`)
	}
	var input map[string]any
	switch in := rawInput.(type) {
	case nil:
		input = map[string]any{}
	case map[string]any:
		input = in
	default:
		return toolrelay.Invocation{}, fmt.Errorf(`"tool_input" must be an object, got %s`, jsonKind(rawInput))
	}
	return toolrelay.Invocation{Tool: name, ToolInput: input}, nil
}

// stripCodeFence removes a surrounding markdown code fence (``` or ```json).
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
