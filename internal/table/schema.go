package table

import (
	"fmt"
	"strings"
)

// Type is the declared type of a column.
type Type uint8

const (
	TypeText Type = iota
	TypeInteger
	TypeFloat
	TypeBoolean
)

func (t Type) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "float"
	case TypeBoolean:
		return "boolean"
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Kind returns the value tag stored in columns of this type.
func (t Type) Kind() Kind {
	switch t {
	case TypeInteger:
		return KindInt
	case TypeFloat:
		return KindFloat
	case TypeBoolean:
		return KindBool
	}
	return KindText
}

// Numeric reports whether the type is Integer or Float.
func (t Type) Numeric() bool { return t == TypeInteger || t == TypeFloat }

// Comparable reports whether values of t and u may be ordered against each other.
func (t Type) Comparable(u Type) bool {
	return t == u || (t.Numeric() && u.Numeric())
}

// TypeOf maps a value kind to the column type that stores it. Null maps to Text.
func TypeOf(k Kind) Type {
	switch k {
	case KindInt:
		return TypeInteger
	case KindFloat:
		return TypeFloat
	case KindBool:
		return TypeBoolean
	}
	return TypeText
}

// Column is a named, typed slot in a Schema. Names are case-sensitive.
type Column struct {
	Name string
	Type Type
}

// Schema is an ordered list of uniquely named columns.
type Schema struct {
	cols  []Column
	index map[string]int
}

// NewSchema builds a schema, rejecting empty and duplicate names.
func NewSchema(cols ...Column) (*Schema, error) {
	s := &Schema{
		cols:  make([]Column, len(cols)),
		index: make(map[string]int, len(cols)),
	}
	copy(s.cols, cols)
	for i, c := range s.cols {
		if strings.TrimSpace(c.Name) == "" {
			return nil, &SchemaError{Op: "schema", Err: ErrUnknownColumn, Detail: fmt.Sprintf("column %d has an empty name", i)}
		}
		if _, dup := s.index[c.Name]; dup {
			return nil, &SchemaError{Op: "schema", Column: c.Name, Err: ErrDuplicateColumn}
		}
		s.index[c.Name] = i
	}
	return s, nil
}

// MustSchema is NewSchema for static schemas; it panics on error.
func MustSchema(cols ...Column) *Schema {
	s, err := NewSchema(cols...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Len() int            { return len(s.cols) }
func (s *Schema) Column(i int) Column { return s.cols[i] }

// Columns returns a copy of the column list.
func (s *Schema) Columns() []Column {
	out := make([]Column, len(s.cols))
	copy(out, s.cols)
	return out
}

func (s *Schema) Names() []string {
	out := make([]string, len(s.cols))
	for i, c := range s.cols {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of name.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Lookup is Index returning a SchemaError for unknown names. op names the
// caller in the error.
func (s *Schema) Lookup(op, name string) (int, error) {
	i, ok := s.index[name]
	if !ok {
		return -1, unknownColumn(op, name)
	}
	return i, nil
}

// LookupAll resolves several names at once.
func (s *Schema) LookupAll(op string, names []string) ([]int, error) {
	out := make([]int, len(names))
	for k, n := range names {
		i, err := s.Lookup(op, n)
		if err != nil {
			return nil, err
		}
		out[k] = i
	}
	return out, nil
}

func (s *Schema) String() string {
	parts := make([]string, len(s.cols))
	for i, c := range s.cols {
		parts[i] = c.Name + " " + c.Type.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
