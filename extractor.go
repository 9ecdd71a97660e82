package toolrelay

import (
	"maps"
	"reflect"

	"github.com/mitchellh/mapstructure"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// Extractor provides schema generation and two-layer validation (schema + Validatable)
// for argument type T without binding to the Tool interface. NewTool uses it;
// custom tools can use it directly to get the same parsing rules.
type Extractor[T any] struct {
	toolName  string
	schemaMap map[string]any
	compiled  *sjsonschema.Schema
}

// NewExtractor creates an Extractor for type T. toolName is used in ArgumentError messages.
func NewExtractor[T any](toolName string) (*Extractor[T], error) {
	schemaMap, err := generateSchema[T]()
	if err != nil {
		return nil, err
	}
	compiled, err := compileRawSchema(schemaMap)
	if err != nil {
		return nil, err
	}
	return &Extractor[T]{
		toolName:  toolName,
		schemaMap: schemaMap,
		compiled:  compiled,
	}, nil
}

// Schema returns a shallow copy of the JSON Schema (top-level keys only).
// Nested maps are shared; callers must not mutate them.
func (e *Extractor[T]) Schema() map[string]any {
	return maps.Clone(e.schemaMap)
}

// ParseAndValidate fills declared defaults, runs Layer 1 (schema validation),
// decodes the map into T and runs Layer 2 (Validatable.Validate() if T implements it).
// Every failure is an *ArgumentError so it can be reported back to the model.
func (e *Extractor[T]) ParseAndValidate(input map[string]any) (T, error) {
	var zero T
	input = applyDefaults(e.schemaMap, input)
	if err := validateAgainstSchema(e.toolName, e.compiled, input); err != nil {
		return zero, err
	}
	var args T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &args,
	})
	if err != nil {
		return zero, err
	}
	if err := dec.Decode(input); err != nil {
		return zero, &ArgumentError{Tool: e.toolName, Reason: err.Error(), Err: err}
	}
	if err := runLayer2Validation(args); err != nil {
		if IsArgumentError(err) {
			return zero, err
		}
		return zero, &ArgumentError{Tool: e.toolName, Reason: err.Error(), Err: err}
	}
	return args, nil
}

// runLayer2Validation runs Validatable.Validate() on args; if args does not implement Validatable,
// it tries &args for value types (pointer receiver). Never calls Validate twice for the same receiver.
func runLayer2Validation[T any](args T) error {
	if err := validateCustom(any(args)); err != nil {
		return err
	}
	if _, ok := any(args).(Validatable); ok {
		return nil
	}
	typ := reflect.TypeOf(args)
	if typ == nil || typ.Kind() == reflect.Pointer {
		return nil
	}
	return validateCustom(any(&args))
}
