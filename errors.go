package toolrelay

import (
	"errors"
	"fmt"
)

// Sentinel errors for the three invocation failure kinds. Use errors.Is to check.
var (
	ErrToolNotFound     = errors.New("tool not found")
	ErrInvalidArguments = errors.New("invalid tool arguments")
	ErrExecution        = errors.New("tool execution failed")
)

// NotFoundError reports an invocation naming a tool that is not registered.
type NotFoundError struct {
	Tool string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Tool '%s' not found.", e.Tool)
}

// Is matches ErrToolNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrToolNotFound }

// ArgumentError is returned when the keyword arguments do not fit the tool's
// schema (missing required parameter, wrong type, unknown parameter) or fail
// Validatable.Validate. Its message is meant to be shown to the model.
type ArgumentError struct {
	Tool   string
	Reason string
	Err    error // optional cause
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("Invalid arguments for tool '%s': %s", e.Tool, e.Reason)
}

// Unwrap supports errors.Is/errors.As on the optional cause.
func (e *ArgumentError) Unwrap() error { return e.Err }

// Is matches ErrInvalidArguments.
func (e *ArgumentError) Is(target error) bool { return target == ErrInvalidArguments }

// ExecutionError wraps any error returned (or panic raised) by a tool body.
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("Error executing tool '%s': %v", e.Tool, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Is matches ErrExecution.
func (e *ExecutionError) Is(target error) bool { return target == ErrExecution }

// IsArgumentError returns true if err is or wraps an ArgumentError.
func IsArgumentError(err error) bool {
	var ae *ArgumentError
	return errors.As(err, &ae)
}

// IsExecutionError returns true if err is or wraps an ExecutionError.
func IsExecutionError(err error) bool {
	var ee *ExecutionError
	return errors.As(err, &ee)
}

// classifyCallError maps whatever a Tool.Call returned onto one of the three
// failure kinds. Errors already carrying a kind pass through.
func classifyCallError(toolName string, err error) error {
	var ae *ArgumentError
	if errors.As(err, &ae) {
		if ae.Tool == "" {
			ae.Tool = toolName
		}
		return err
	}
	if IsExecutionError(err) || errors.Is(err, ErrToolNotFound) {
		return err
	}
	return &ExecutionError{Tool: toolName, Err: err}
}

// panicError wraps a recovered panic value; used by Registry and WithRecovery middleware.
type panicError struct{ p any }

func (e *panicError) Error() string {
	return "panic: " + fmt.Sprint(e.p)
}
