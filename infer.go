package dbtools

import (
	"fmt"
	"reflect"
	"sort"
)

// Record maps column names to values.
type Record map[string]interface{}

// valueType returns the column type a Go value stores as. ok is false for
// nil, including nil pointers.
func valueType(v interface{}) (ct ColumnType, ok bool, err error) {
	if v == nil {
		return 0, false, nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return 0, false, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Bool:
		return BoolType, true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return IntegerType, true, nil
	case reflect.Float32, reflect.Float64:
		return RealType, true, nil
	case reflect.String:
		return TextType, true, nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			if rv.IsNil() {
				return 0, false, nil
			}
			return BlobType, true, nil
		}
	}

	return 0, false, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
}

// InferTypes derives one ColumnSpec per key seen across records. Keys are
// returned in alphabetical order unless order is given, in which case
// exactly the keys in order are returned, in that order.
//
// For example
//
//	InferTypes([]Record{
//		{"name": "apple", "fruit": true, "tree": true},
//		{"name": "tomato", "fruit": true, "tree": nil},
//	})
//
// returns [{fruit BoolType} {name TextType} {tree BoolType}].
//
// Every key must have values of exactly one type once nils are ignored.
// A key missing from a record counts as nil there.
func InferTypes(records []Record, order ...string) ([]ColumnSpec, error) {
	types := map[string]map[ColumnType]bool{}
	for _, r := range records {
		for key, v := range r {
			if types[key] == nil {
				types[key] = map[ColumnType]bool{}
			}

			ct, ok, err := valueType(v)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", key, err)
			}
			if ok {
				types[key][ct] = true
			}
		}
	}

	if len(order) == 0 {
		for key := range types {
			order = append(order, key)
		}
		sort.Strings(order)
	}

	specs := []ColumnSpec{}
	for _, key := range order {
		seen := []ColumnType{}
		for ct := range types[key] {
			seen = append(seen, ct)
		}

		if len(seen) != 1 {
			sort.Slice(seen, func(i, j int) bool { return seen[i] < seen[j] })
			return nil, &AmbiguousTypeError{Column: key, Types: seen}
		}

		specs = append(specs, ColumnSpec{Name: key, Type: seen[0]})
	}

	return specs, nil
}
