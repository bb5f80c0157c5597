package table

import (
	"errors"
	"fmt"
)

// Sentinel causes carried by SchemaError. Callers match them with errors.Is.
var (
	ErrUnknownColumn   = errors.New("unknown column")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrIncomparable    = errors.New("incomparable values")
	ErrWidthMismatch   = errors.New("row width does not match schema")
)

// SchemaError reports a reference to a column that does not exist, or an
// operation across values or columns whose types do not line up.
type SchemaError struct {
	Op     string // operator or call site, e.g. "join", "filter"
	Column string
	Err    error
	Detail string
}

func (e *SchemaError) Error() string {
	msg := e.Op
	if e.Column != "" {
		msg += fmt.Sprintf(": column %q", e.Column)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *SchemaError) Unwrap() error { return e.Err }

// MalformedInputError reports a delimited input row that could not be turned
// into a table row. Line is 1-based and counts the header.
type MalformedInputError struct {
	Source string
	Line   int
	Want   int
	Got    int
	Err    error
}

func (e *MalformedInputError) Error() string {
	where := fmt.Sprintf("line %d", e.Line)
	if e.Source != "" {
		where = e.Source + ": " + where
	}
	if e.Err != nil {
		return fmt.Sprintf("malformed input: %s: %v", where, e.Err)
	}
	return fmt.Sprintf("malformed input: %s: expected %d fields, got %d", where, e.Want, e.Got)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

func unknownColumn(op, name string) error {
	return &SchemaError{Op: op, Column: name, Err: ErrUnknownColumn}
}
