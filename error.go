package dbtools

import (
	"errors"
	"fmt"
)

var (
	// ErrSchema is returned when a table schema is inconsistent: more than
	// one primary key, an autoincrement column that is not the primary key,
	// or a column that does not exist
	ErrSchema = errors.New("Invalid schema")
	// ErrUnsupportedType is returned when a value or declared type has no
	// mapping to a SQL type
	ErrUnsupportedType = errors.New("Unsupported datatype")
	ErrAmbiguousType   = errors.New("Could not determine datatype")
	// ErrArity is returned when a positional record has the wrong number of
	// values
	ErrArity         = errors.New("Wrong number of values")
	ErrInvalidKey    = errors.New("Invalid key")
	ErrStep          = errors.New("Cannot handle step size other than 1")
	ErrNoPrimaryKey  = errors.New("No primary key column")
	ErrNotMapping    = errors.New("Expected a mapping of column names to values")
	ErrInvalidRecord = errors.New("Expected a mapping or a sequence of values")
	ErrInvalidInit   = errors.New("Expected column specs, records, or a frame")
	// ErrBindCount is returned when the number of ? placeholders in a where
	// clause differs from the number of arguments
	ErrBindCount            = errors.New("Placeholder count does not match arguments")
	ErrTableDoesNotExist    = errors.New("Table does not exist")
	ErrDatabaseDoesNotExist = errors.New("Database does not exist")
	ErrParse                = errors.New("Failed to parse")
)

// AmbiguousTypeError names the column whose values did not resolve to
// exactly one type.
type AmbiguousTypeError struct {
	Column string
	Types  []ColumnType
}

func (e *AmbiguousTypeError) Error() string {
	if len(e.Types) == 0 {
		return fmt.Sprintf("could not determine datatype of column %q: all values are null", e.Column)
	}
	return fmt.Sprintf("could not determine datatype of column %q: saw %v", e.Column, e.Types)
}

func (e *AmbiguousTypeError) Unwrap() error {
	return ErrAmbiguousType
}

// ArityError is returned by Insert for a positional record whose length
// is not the effective column count.
type ArityError struct {
	Want int
	Got  int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("expected %d values, got %d", e.Want, e.Got)
}

func (e *ArityError) Unwrap() error {
	return ErrArity
}
