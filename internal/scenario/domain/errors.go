package scenario

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField is returned when a row is shorter than the mapping requires.
	ErrMissingField = errors.New("scenario: missing field")
	// ErrTypeCoercion is returned when a cell cannot be coerced to the declared type.
	ErrTypeCoercion = errors.New("scenario: type coercion")
	// ErrInvalidMapping is returned when a mapping or profile is malformed.
	ErrInvalidMapping = errors.New("scenario: invalid mapping")
	// ErrIO is returned when a table or document cannot be read or written.
	ErrIO = errors.New("scenario: io")
)

// MissingFieldError reports the first column a row does not carry. Row is
// the 0-based data index; messages print it 1-based like document names.
type MissingFieldError struct {
	Row    int
	Column int
	Field  string
	Width  int
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("scenario: row %d: missing column %d for %s (row has %d columns)", e.Row+1, e.Column, e.Field, e.Width)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// CoercionError reports a cell that could not be converted.
type CoercionError struct {
	Row    int
	Column int
	Field  string
	Type   Coercion
	Value  string
	Err    error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("scenario: row %d: column %d (%s): cannot coerce %q to %s: %v", e.Row+1, e.Column, e.Field, e.Value, e.Type, e.Err)
}

func (e *CoercionError) Unwrap() []error { return []error{ErrTypeCoercion, e.Err} }
