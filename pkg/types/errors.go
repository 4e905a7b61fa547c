// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// SchemaError reports a malformed Instrument Definition or Calculation Set.
type SchemaError struct {
	// Path locates the offending node, e.g. "record[2].type". May be empty.
	Path string
	Msg  string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return "schema error: " + e.Msg
	}
	return fmt.Sprintf("schema error at %s: %s", e.Path, e.Msg)
}

// SchemaErrorf builds a SchemaError with a formatted message.
func SchemaErrorf(path, format string, args ...interface{}) *SchemaError {
	return &SchemaError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

// ValidationError reports a document that disagrees with its definition
// or with the base document schema.
type ValidationError struct {
	Path string
	Msg  string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return "validation error: " + e.Msg
	}
	return fmt.Sprintf("validation error at %s: %s", e.Path, e.Msg)
}

// ValidationErrorf builds a ValidationError with a formatted message.
func ValidationErrorf(path, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

// CalculationError attributes a failed calculation run to the calculation
// that caused it.
type CalculationError struct {
	ID  string
	Err error
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("calculation %q: %v", e.ID, e.Err)
}

func (e *CalculationError) Unwrap() error { return e.Err }
