package dbtools

import (
	"fmt"
	"reflect"
)

// Where is a SQL conditional plus the values bound to its ? placeholders.
// A nil *Where means no filter.
type Where struct {
	Cond string
	Args []interface{}
}

// NewWhere normalises the ways a filter can be given:
//
//	NewWhere("age=25")
//	NewWhere("age=?", 25)
//	NewWhere("age=? OR name=?", 25, "Ben Bitdiddle")
//	NewWhere("age=? OR name=?", []interface{}{25, "Ben Bitdiddle"})
//
// A single slice argument (other than []byte) is spread into the bind
// list.
func NewWhere(cond string, args ...interface{}) *Where {
	if len(args) == 1 && args[0] != nil {
		if _, isBlob := args[0].([]byte); !isBlob {
			v := reflect.ValueOf(args[0])
			if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
				spread := make([]interface{}, v.Len())
				for i := range spread {
					spread[i] = v.Index(i).Interface()
				}
				args = spread
			}
		}
	}

	return &Where{Cond: cond, Args: args}
}

// Validate checks that every placeholder has exactly one value.
func (w *Where) Validate() error {
	if w == nil {
		return nil
	}

	if n := countPlaceholders(w.Cond); n != len(w.Args) {
		return fmt.Errorf("%w: %q has %d placeholders, got %d arguments", ErrBindCount, w.Cond, n, len(w.Args))
	}

	return nil
}

func (w *Where) generateCode() string {
	if w == nil {
		return ""
	}

	return " WHERE " + w.Cond
}

func (w *Where) bindings() []interface{} {
	if w == nil {
		return nil
	}

	return w.Args
}

// countPlaceholders counts ? outside quoted strings and identifiers.
func countPlaceholders(cond string) int {
	n := 0
	var quote byte
	for i := 0; i < len(cond); i++ {
		c := cond[i]
		switch {
		case quote != 0:
			// A doubled quote inside a literal is an escaped quote and
			// toggles twice, leaving us inside the literal.
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '[':
			quote = ']'
		case c == '?':
			n++
		}
	}

	return n
}
