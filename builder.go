package toolrelay

import (
	"context"
	"errors"
	"maps"
	"reflect"
	"time"
)

// Param declares one keyword argument of a dynamic tool.
type Param struct {
	Name        string
	Type        string // JSON Schema type: string, number, integer, boolean, object, array
	Description string
	Default     any // nil means no default
	Required    bool
}

// tool is the internal implementation of Tool built by NewTool or NewDynamicTool.
type tool struct {
	name        string
	description string
	schema      map[string]any
	returns     string
	call        func(context.Context, map[string]any) (any, error)
	opts        toolOptions
}

// NewTool builds a Tool from a typed function. The parameter schema is derived
// once from T (see Extractor); the return label is taken from R unless
// WithReturns overrides it. Call runs ParseAndValidate, then fn, and returns
// fn's value unchanged.
// Returns an error if schema generation fails (e.g. T is not a struct).
func NewTool[T any, R any](
	name, description string,
	fn func(ctx context.Context, args T) (R, error),
	opts ...ToolOption,
) (Tool, error) {
	if name == "" {
		return nil, errors.New("tool name must not be empty")
	}
	if fn == nil {
		return nil, errors.New("tool handler must not be nil")
	}
	o := buildToolOptions(opts)
	ext, err := NewExtractor[T](name)
	if err != nil {
		return nil, err
	}
	returns := o.returns
	if returns == "" {
		returns = typeLabel(reflect.TypeFor[R]())
	}
	call := func(ctx context.Context, input map[string]any) (any, error) {
		args, err := ext.ParseAndValidate(input)
		if err != nil {
			return nil, err
		}
		res, err := fn(ctx, args)
		if err != nil {
			return nil, err
		}
		return res, nil
	}
	return &tool{
		name:        name,
		description: description,
		schema:      ext.Schema(),
		returns:     returns,
		call:        call,
		opts:        o,
	}, nil
}

// NewDynamicTool creates a Tool from an explicit parameter list and a function
// that receives the validated keyword arguments (with defaults filled in).
// Useful when the tool shape is only known at runtime (configuration, remote APIs).
func NewDynamicTool(
	name, description string,
	params []Param,
	fn func(ctx context.Context, input map[string]any) (any, error),
	opts ...ToolOption,
) (Tool, error) {
	if name == "" {
		return nil, errors.New("tool name must not be empty")
	}
	if fn == nil {
		return nil, errors.New("dynamic tool handler must not be nil")
	}
	o := buildToolOptions(opts)
	schemaMap, err := paramsSchema(params)
	if err != nil {
		return nil, err
	}
	compiled, err := compileRawSchema(schemaMap)
	if err != nil {
		return nil, err
	}
	returns := o.returns
	if returns == "" {
		returns = "any"
	}
	call := func(ctx context.Context, input map[string]any) (any, error) {
		input = applyDefaults(schemaMap, input)
		if err := validateAgainstSchema(name, compiled, input); err != nil {
			return nil, err
		}
		return fn(ctx, input)
	}
	return &tool{
		name:        name,
		description: description,
		schema:      schemaMap,
		returns:     returns,
		call:        call,
		opts:        o,
	}, nil
}

func (t *tool) Name() string        { return t.name }
func (t *tool) Description() string { return t.description }
func (t *tool) Returns() string     { return t.returns }

// Parameters returns a shallow copy of the JSON Schema (top-level keys only).
// Nested maps (e.g. under "properties") are shared; callers must not mutate them.
func (t *tool) Parameters() map[string]any { return maps.Clone(t.schema) }

func (t *tool) Call(ctx context.Context, input map[string]any) (any, error) {
	return t.call(ctx, input)
}

func (t *tool) Timeout() time.Duration { return t.opts.timeout }
func (t *tool) Tags() []string         { return append([]string(nil), t.opts.tags...) }

func typeLabel(t reflect.Type) string {
	if t == nil {
		return "any"
	}
	if t.Kind() == reflect.Interface && t.NumMethod() == 0 {
		return "any"
	}
	return t.String()
}

var (
	_ Tool         = (*tool)(nil)
	_ ToolSettings = (*tool)(nil)
)
