package dbtools

import (
	"fmt"
	"reflect"
	"sort"
)

type recordKind uint

const (
	mappingRecord recordKind = iota
	positionalRecord
)

// recordInput is a caller-supplied record after its shape has been
// decided: column name to value, or values in column order.
type recordInput struct {
	kind    recordKind
	mapping map[string]interface{}
	values  []interface{}
}

func resolveRecord(v interface{}) (recordInput, error) {
	switch r := v.(type) {
	case Record:
		return recordInput{kind: mappingRecord, mapping: r}, nil
	case map[string]interface{}:
		return recordInput{kind: mappingRecord, mapping: r}, nil
	case []interface{}:
		return recordInput{kind: positionalRecord, values: r}, nil
	case []byte, string, nil:
		return recordInput{}, fmt.Errorf("%w, got: %T", ErrInvalidRecord, v)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		mapping := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			mapping[iter.Key().String()] = iter.Value().Interface()
		}
		return recordInput{kind: mappingRecord, mapping: mapping}, nil
	case reflect.Slice, reflect.Array:
		values := make([]interface{}, rv.Len())
		for i := range values {
			values[i] = rv.Index(i).Interface()
		}
		return recordInput{kind: positionalRecord, values: values}, nil
	}

	return recordInput{}, fmt.Errorf("%w, got: %T", ErrInvalidRecord, v)
}

// isRecordShaped reports whether v looks like a record rather than a
// column value.
func isRecordShaped(v interface{}) bool {
	if v == nil {
		return false
	}
	if _, isBlob := v.([]byte); isBlob {
		return false
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return true
	}

	return false
}

func isRecordType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Map:
		return true
	case reflect.Slice, reflect.Array:
		return t.Elem().Kind() != reflect.Uint8
	}

	return false
}

// flattenRecords lets Insert take either records or a single slice of
// records, like Insert(rows) with rows a [][]interface{} or []Record.
func flattenRecords(args []interface{}) []interface{} {
	if len(args) != 1 || !isRecordShaped(args[0]) {
		return args
	}

	rv := reflect.ValueOf(args[0])
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return args
	}
	if rv.Len() == 0 {
		// An empty [][]interface{} or []Record holds no records; an empty
		// []interface{} is a record with no values.
		if isRecordType(rv.Type().Elem()) {
			return nil
		}
		return args
	}
	if !isRecordShaped(rv.Index(0).Interface()) {
		return args
	}

	records := make([]interface{}, rv.Len())
	for i := range records {
		records[i] = rv.Index(i).Interface()
	}

	return records
}

func buildCreate(name string, specs []ColumnSpec, primaryKey string, autoincrement bool) (*CreateTableStatement, error) {
	if autoincrement && primaryKey == "" {
		return nil, fmt.Errorf("%w: autoincrement requires a primary key", ErrSchema)
	}

	schema := Schema{}
	stmt := &CreateTableStatement{name: name}
	for _, spec := range specs {
		sqlType, err := spec.Type.SQLType()
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", spec.Name, err)
		}

		cd := &columnDefinition{name: spec.Name, datatype: sqlType}
		if primaryKey != "" && spec.Name == primaryKey {
			if spec.Type != IntegerType {
				return nil, fmt.Errorf("%w: invalid data type for primary key %q: %s", ErrSchema, spec.Name, spec.Type)
			}
			cd.primaryKey = true
			cd.autoincrement = autoincrement
		}

		stmt.cols = append(stmt.cols, cd)
		schema.Columns = append(schema.Columns, Column{
			Name:          cd.name,
			Type:          spec.Type,
			PrimaryKey:    cd.primaryKey,
			Autoincrement: cd.autoincrement,
		})
	}

	if len(stmt.cols) == 0 {
		return nil, fmt.Errorf("%w: a table needs at least one column", ErrSchema)
	}
	if primaryKey != "" && schema.PrimaryKey() == nil {
		return nil, fmt.Errorf("%w: primary key %q is not a column", ErrSchema, primaryKey)
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	return stmt, nil
}

// buildInsert validates every record and returns one statement per
// record. Nothing is returned unless all records are valid.
//
// With an autoincrementing primary key the key is left to the store:
// positional records leave it out and mappings may not set it, unless
// explicitKeys is set. Without autoincrement a positional record may
// leave the key out by being one value short; the store then assigns it.
func buildInsert(table string, schema *Schema, records []interface{}, explicitKeys bool) ([]Statement, error) {
	inputs := make([]recordInput, 0, len(records))
	for _, r := range records {
		in, err := resolveRecord(r)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}

	all := schema.Names()
	pk := schema.PrimaryKey()
	withoutKey := []string{}
	for _, name := range all {
		if pk == nil || name != pk.Name {
			withoutKey = append(withoutKey, name)
		}
	}

	storeAssignsKey := pk != nil && pk.Autoincrement && !explicitKeys

	positionalCols := all
	widthDecided := false
	mappingCols := all
	if storeAssignsKey {
		positionalCols = withoutKey
		mappingCols = withoutKey
		widthDecided = true
	}

	stmts := make([]Statement, 0, len(inputs))
	for _, in := range inputs {
		switch in.kind {
		case mappingRecord:
			for key, v := range in.mapping {
				if schema.Column(key) == nil {
					return nil, fmt.Errorf("%w: no such column: %s", ErrSchema, key)
				}
				if storeAssignsKey && key == pk.Name && v != nil {
					return nil, fmt.Errorf("%w: %q is assigned by autoincrement", ErrSchema, key)
				}
			}

			values := make([]interface{}, 0, len(mappingCols))
			for _, col := range mappingCols {
				values = append(values, in.mapping[col])
			}
			stmts = append(stmts, &InsertStatement{table: table, cols: mappingCols, values: values})

		case positionalRecord:
			if !widthDecided {
				if pk != nil && len(in.values) == len(withoutKey) {
					positionalCols = withoutKey
				}
				widthDecided = true
			}

			if len(in.values) != len(positionalCols) {
				return nil, &ArityError{Want: len(positionalCols), Got: len(in.values)}
			}
			stmts = append(stmts, &InsertStatement{table: table, cols: positionalCols, values: in.values})
		}
	}

	return stmts, nil
}

// buildSelect always selects the primary key, first unless the caller
// placed it, so results can be indexed by it.
func buildSelect(table string, schema *Schema, columns []string, where *Where) (*SelectStatement, error) {
	if err := where.Validate(); err != nil {
		return nil, err
	}

	cols := columns
	if cols == nil {
		cols = schema.Names()
	}

	for _, col := range cols {
		if schema.Column(col) == nil {
			return nil, fmt.Errorf("%w: no such column: %s", ErrSchema, col)
		}
	}

	if pk := schema.PrimaryKey(); pk != nil && !contains(cols, pk.Name) {
		cols = append([]string{pk.Name}, cols...)
	}

	return &SelectStatement{table: table, cols: cols, where: where}, nil
}

// buildUpdate sets columns in alphabetical order so the generated text
// is stable.
func buildUpdate(table string, schema *Schema, values interface{}, where *Where) (*UpdateStatement, error) {
	in, err := resolveRecord(values)
	if err != nil || in.kind != mappingRecord {
		return nil, fmt.Errorf("%w, got: %T", ErrNotMapping, values)
	}
	if len(in.mapping) == 0 {
		return nil, fmt.Errorf("%w: no values to update", ErrInvalidRecord)
	}
	if err := where.Validate(); err != nil {
		return nil, err
	}

	cols := make([]string, 0, len(in.mapping))
	for col := range in.mapping {
		if schema.Column(col) == nil {
			return nil, fmt.Errorf("%w: no such column: %s", ErrSchema, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	args := make([]interface{}, 0, len(cols))
	for _, col := range cols {
		args = append(args, in.mapping[col])
	}

	return &UpdateStatement{table: table, cols: cols, values: args, where: where}, nil
}

// buildDelete with a nil where deletes every row.
func buildDelete(table string, where *Where) (*DeleteStatement, error) {
	if err := where.Validate(); err != nil {
		return nil, err
	}

	return &DeleteStatement{table: table, where: where}, nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}

	return false
}
