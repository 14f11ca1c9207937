package dbtools

import (
	"fmt"
	"math"
	"reflect"
)

// Slice selects rows by primary key, start inclusive and stop exclusive.
// A nil bound is open. Step must be nil or 1.
type Slice struct {
	Start *int64
	Stop  *int64
	Step  *int64
}

// All selects every row.
func All() Slice {
	return Slice{}
}

// Range selects primary keys in [start, stop).
func Range(start, stop int64) Slice {
	return Slice{Start: &start, Stop: &stop}
}

// From selects primary keys >= start.
func From(start int64) Slice {
	return Slice{Start: &start}
}

// Until selects primary keys < stop.
func Until(stop int64) Slice {
	return Slice{Stop: &stop}
}

// Every returns s with a step. Only 1 is supported.
func (s Slice) Every(step int64) Slice {
	s.Step = &step
	return s
}

func (s Slice) String() string {
	bound := func(b *int64) string {
		if b == nil {
			return ""
		}
		return fmt.Sprint(*b)
	}

	if s.Step != nil {
		return fmt.Sprintf("[%s:%s:%d]", bound(s.Start), bound(s.Stop), *s.Step)
	}
	return fmt.Sprintf("[%s:%s]", bound(s.Start), bound(s.Stop))
}

// keyToQuery translates a subscript into the columns and filter to select.
// It never touches the store.
func keyToQuery(schema *Schema, key interface{}) ([]string, *Where, error) {
	pk := schema.PrimaryKey()

	switch k := key.(type) {
	case Slice:
		if k.Step != nil && *k.Step != 1 {
			return nil, nil, fmt.Errorf("%w: %d", ErrStep, *k.Step)
		}
		if k.Start == nil && k.Stop == nil {
			return nil, nil, nil
		}
		if pk == nil {
			return nil, nil, ErrNoPrimaryKey
		}

		col := quoteIdent(pk.Name)
		switch {
		case k.Stop == nil:
			return nil, NewWhere(col+">=?", *k.Start), nil
		case k.Start == nil:
			return nil, NewWhere(col+"<?", *k.Stop), nil
		default:
			return nil, NewWhere(col+">=? AND "+col+"<?", *k.Start, *k.Stop), nil
		}

	case string:
		return []string{k}, nil, nil

	case []string:
		if len(k) == 0 {
			return nil, nil, fmt.Errorf("%w: empty column list", ErrInvalidKey)
		}
		return k, nil, nil
	}

	if row, ok := asRowKey(key); ok {
		if pk == nil {
			return nil, nil, ErrNoPrimaryKey
		}
		return nil, NewWhere(quoteIdent(pk.Name)+"=?", row), nil
	}

	return nil, nil, fmt.Errorf("%w: %v (%T)", ErrInvalidKey, key, key)
}

func asRowKey(key interface{}) (int64, bool) {
	if key == nil {
		return 0, false
	}

	rv := reflect.ValueOf(key)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	}

	return 0, false
}
