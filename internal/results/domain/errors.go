package results

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrParse is returned when a result document is not a JSON object.
	ErrParse = errors.New("results: parse")
	// ErrColumnMissing is returned when a curated column is absent from the combined schema.
	ErrColumnMissing = errors.New("results: column missing")
	// ErrIO is returned when result documents or exports cannot be read or written.
	ErrIO = errors.New("results: io")
)

// ParseError wraps the decoding failure of one document.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("results: parse %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

// ColumnMissingError lists every requested column absent from the table.
type ColumnMissingError struct {
	Columns []string
}

func (e *ColumnMissingError) Error() string {
	return fmt.Sprintf("results: columns not in combined table: %s", strings.Join(e.Columns, ", "))
}

func (e *ColumnMissingError) Unwrap() error { return ErrColumnMissing }
