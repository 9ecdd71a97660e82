package toolrelay

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// Validatable is implemented by argument structs that need custom business validation.
// Called after schema validation and decoding.
type Validatable interface {
	Validate() error
}

// validateAgainstSchema runs Layer 1 validation on the decoded keyword arguments.
// The input is re-read through the validator's own JSON decoder so numbers keep
// the representation it expects.
func validateAgainstSchema(toolName string, schema *sjsonschema.Schema, input map[string]any) error {
	data, err := json.Marshal(input)
	if err != nil {
		return &ArgumentError{Tool: toolName, Reason: "arguments are not JSON-encodable: " + err.Error(), Err: err}
	}
	inst, err := sjsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return &ArgumentError{Tool: toolName, Reason: err.Error(), Err: err}
	}
	if err := schema.Validate(inst); err != nil {
		return &ArgumentError{Tool: toolName, Reason: validationReason(err), Err: err}
	}
	return nil
}

// validationReason flattens a multi-line validation report into one line,
// dropping the header that names the in-memory schema URL.
func validationReason(err error) string {
	var ve *sjsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	lines := strings.Split(strings.TrimSpace(ve.Error()), "\n")
	if len(lines) > 1 {
		lines = lines[1:]
	}
	for i, l := range lines {
		lines[i] = strings.TrimPrefix(strings.TrimSpace(l), "- ")
	}
	return strings.Join(lines, "; ")
}

// validateCustom runs Layer 2 (Validatable) if args implements it.
func validateCustom(args any) error {
	if v, ok := args.(Validatable); ok {
		return v.Validate()
	}
	return nil
}
