package dbtools

import (
	"errors"
	"fmt"
	"strings"
)

// CreateOptions configures Create.
type CreateOptions struct {
	// PrimaryKey names the INTEGER PRIMARY KEY column. If the column is
	// not part of the initial data it is added as the first column.
	PrimaryKey    string
	Autoincrement bool
	// Verbose logs every statement at Info rather than Debug.
	Verbose bool
}

// Table is a frame-like handle on a table in a Backend. It holds the
// schema only; every read and write goes to the store.
type Table struct {
	backend Backend

	Name    string
	Schema  *Schema
	Verbose bool
}

// Exists reports whether the backend has a table called name. A database
// file that does not exist has no tables.
func Exists(b Backend, name string) (bool, error) {
	names, err := b.TableNames()
	if errors.Is(err, ErrDatabaseDoesNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return contains(names, name), nil
}

// ListTables returns the names of the backend's tables in creation order.
func ListTables(b Backend) ([]string, error) {
	return b.TableNames()
}

// Open returns a handle on the existing table name. Use Create to make a
// new table.
func Open(b Backend, name string, verbose bool) (*Table, error) {
	ok, err := Exists(b, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s (use Create to make a new table)", ErrTableDoesNotExist, name)
	}

	schema, err := Introspect(b, name)
	if err != nil {
		return nil, err
	}

	return &Table{
		backend: b,
		Name:    name,
		Schema:  schema,
		Verbose: verbose,
	}, nil
}

// Create makes a table called name and returns a handle on it. init is
// one of:
//
//   - []ColumnSpec: an empty table with these columns, in order.
//   - Record, map[string]interface{}, []Record or []map[string]interface{}:
//     columns are the keys in alphabetical order with types inferred from
//     the values, and the records become the table's rows.
//   - *Frame: columns and rows are the frame's. A named frame index becomes
//     the primary key and its labels the key values.
//
// The table and its initial rows are written in one transaction.
func Create(b Backend, name string, init interface{}, opts CreateOptions) (*Table, error) {
	var (
		specs   []ColumnSpec
		records []Record
		err     error
	)

	switch v := init.(type) {
	case []ColumnSpec:
		specs = v
	case Record:
		records = []Record{v}
	case map[string]interface{}:
		records = []Record{v}
	case []Record:
		records = v
	case []map[string]interface{}:
		for _, r := range v {
			records = append(records, r)
		}
	case *Frame:
		if v.IndexName != "" {
			if opts.PrimaryKey != "" && opts.PrimaryKey != v.IndexName {
				return nil, fmt.Errorf("%w: primary key mismatch: %q is indexed by %q", ErrSchema, opts.PrimaryKey, v.IndexName)
			}
			opts.PrimaryKey = v.IndexName
		}

		order := append([]string{}, v.Columns...)
		if v.IndexName != "" {
			order = append([]string{v.IndexName}, order...)
		}
		records = v.Records()
		specs, err = InferTypes(records, order...)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w, got: %T", ErrInvalidInit, init)
	}

	if specs == nil {
		if len(records) == 0 {
			return nil, fmt.Errorf("%w: no records", ErrInvalidInit)
		}
		specs, err = InferTypes(records)
		if err != nil {
			return nil, err
		}
	}

	if opts.PrimaryKey != "" && !hasSpec(specs, opts.PrimaryKey) {
		specs = append([]ColumnSpec{{Name: opts.PrimaryKey, Type: IntegerType}}, specs...)
	}

	create, err := buildCreate(name, specs, opts.PrimaryKey, opts.Autoincrement)
	if err != nil {
		return nil, err
	}

	rows := make([]interface{}, 0, len(records))
	for _, r := range records {
		rows = append(rows, r)
	}
	// Initial rows may carry their own keys, even into an autoincrement
	// column.
	inserts, err := buildInsert(name, create.schema(), rows, true)
	if err != nil {
		return nil, err
	}

	stmts := append([]Statement{create}, inserts...)
	for _, stmt := range stmts {
		logStatement(opts.Verbose, name, stmt)
	}
	if err := b.ExecBatch(stmts); err != nil {
		return nil, err
	}

	return Open(b, name, opts.Verbose)
}

func hasSpec(specs []ColumnSpec, name string) bool {
	for _, s := range specs {
		if s.Name == name {
			return true
		}
	}

	return false
}

// schema returns the schema the statement creates.
func (cts CreateTableStatement) schema() *Schema {
	s := &Schema{}
	for _, col := range cts.cols {
		ct, _ := columnTypeFromDecl(col.datatype)
		s.Columns = append(s.Columns, Column{
			Name:          col.name,
			Type:          ct,
			PrimaryKey:    col.primaryKey,
			Autoincrement: col.autoincrement,
		})
	}

	return s
}

// Columns returns the column names in table order.
func (t *Table) Columns() []string {
	return t.Schema.Names()
}

// PrimaryKey returns the primary key column name, or "" if there is none.
func (t *Table) PrimaryKey() string {
	if pk := t.Schema.PrimaryKey(); pk != nil {
		return pk.Name
	}

	return ""
}

// Autoincrement reports whether the store assigns primary keys.
func (t *Table) Autoincrement() bool {
	return t.Schema.Autoincrement()
}

func (t *Table) exec(stmt Statement) error {
	logStatement(t.Verbose, t.Name, stmt)
	return t.backend.Exec(stmt.GenerateCode(), stmt.Args()...)
}

// Drop removes the table from the store. The handle is left as is;
// anything done with it afterwards fails in the store.
func (t *Table) Drop() error {
	return t.exec(DropTableStatement{name: t.Name})
}

// Insert adds records to the table. Each record is a mapping of column
// names to values (missing columns are NULL) or a slice of values in
// column order. A single slice of records is accepted too.
//
// If the table has an autoincrementing primary key, leave it out: it is
// filled in by the store. Every record is checked before anything is
// written, and all of them are written in one transaction.
func (t *Table) Insert(records ...interface{}) error {
	records = flattenRecords(records)
	if len(records) == 0 {
		return nil
	}

	stmts, err := buildInsert(t.Name, t.Schema, records, false)
	if err != nil {
		return err
	}

	for _, stmt := range stmts {
		logStatement(t.Verbose, t.Name, stmt)
	}

	return t.backend.ExecBatch(stmts)
}

// Select returns the given columns (all when nil) of the rows matching
// where (all when nil). The primary key, if any, is the frame's index.
func (t *Table) Select(columns []string, where *Where) (*Frame, error) {
	stmt, err := buildSelect(t.Name, t.Schema, columns, where)
	if err != nil {
		return nil, err
	}

	logStatement(t.Verbose, t.Name, stmt)
	rows, err := t.backend.Query(stmt.GenerateCode(), stmt.Args()...)
	if err != nil {
		return nil, err
	}

	return newFrame(stmt.cols, t.PrimaryKey(), rows), nil
}

// Update sets columns of the rows matching where. values must be a
// mapping of column names to new values.
func (t *Table) Update(values interface{}, where *Where) error {
	stmt, err := buildUpdate(t.Name, t.Schema, values, where)
	if err != nil {
		return err
	}

	return t.exec(stmt)
}

// Delete removes the rows matching where.
//
// A nil where deletes every row in the table.
func (t *Table) Delete(where *Where) error {
	stmt, err := buildDelete(t.Name, where)
	if err != nil {
		return err
	}

	return t.exec(stmt)
}

// Index selects with subscript semantics:
//
//	t.Index(2)                     // the row whose primary key is 2
//	t.Index(dbtools.Range(2, 6))   // primary keys 2 through 5
//	t.Index(dbtools.From(3))       // primary keys >= 3
//	t.Index(dbtools.Until(3))      // primary keys < 3
//	t.Index(dbtools.All())         // every row
//	t.Index("name")                // one column
//	t.Index([]string{"name", "age"})
//
// Row selection needs a primary key.
func (t *Table) Index(key interface{}) (*Frame, error) {
	columns, where, err := keyToQuery(t.Schema, key)
	if err != nil {
		return nil, err
	}

	return t.Select(columns, where)
}

// IndexWhere selects the columns key names from the rows matching where.
// Keys that pick rows by primary key cannot be combined with a filter.
func (t *Table) IndexWhere(key interface{}, where *Where) (*Frame, error) {
	columns, keyWhere, err := keyToQuery(t.Schema, key)
	if err != nil {
		return nil, err
	}
	if keyWhere != nil {
		return nil, fmt.Errorf("%w: row key %v cannot be combined with a filter", ErrInvalidKey, key)
	}

	return t.Select(columns, where)
}

// String describes the table like Foo(id INTEGER PRIMARY KEY, name TEXT).
func (t *Table) String() string {
	cols := []string{}
	for _, c := range t.Schema.Columns {
		sqlType, err := c.Type.SQLType()
		if err != nil {
			sqlType = c.Type.String()
		}

		col := c.Name + " " + sqlType
		if c.PrimaryKey {
			col += " PRIMARY KEY"
		}
		if c.Autoincrement {
			col += " AUTOINCREMENT"
		}
		cols = append(cols, col)
	}

	return fmt.Sprintf("%s(%s)", t.Name, strings.Join(cols, ", "))
}
