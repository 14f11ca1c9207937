package dbtools

import (
	"fmt"
	"strings"
)

// ColumnType is used to represent the type of the Column
type ColumnType uint

const (
	// NullType is used for columns declared NULL
	NullType ColumnType = iota
	// IntegerType is used for columns having integral data
	IntegerType
	// RealType is used for columns having floating point data
	RealType
	// TextType is used for columns having textual data
	TextType
	// BlobType is used for columns having binary data
	BlobType
	// BoolType is inferred from boolean values. SQLite has no boolean
	// storage class so it never appears in a table.
	BoolType
)

func (c ColumnType) String() string {
	switch c {
	case NullType:
		return "NullType"
	case IntegerType:
		return "IntegerType"
	case RealType:
		return "RealType"
	case TextType:
		return "TextType"
	case BlobType:
		return "BlobType"
	case BoolType:
		return "BoolType"
	default:
		return "Error"
	}
}

var sqlTypes = map[ColumnType]string{
	NullType:    "NULL",
	IntegerType: "INTEGER",
	RealType:    "REAL",
	TextType:    "TEXT",
	BlobType:    "BLOB",
}

// SQLType returns the SQLite type name for c.
func (c ColumnType) SQLType() (string, error) {
	s, ok := sqlTypes[c]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, c)
	}

	return s, nil
}

// columnTypeFromDecl maps a declared column type onto a ColumnType using
// SQLite's affinity rules. SQLite reads "x NULL" as a column with no type
// and a NULL constraint, so an empty declaration is a NullType column.
func columnTypeFromDecl(decl string) (ColumnType, error) {
	d := strings.ToUpper(strings.TrimSpace(decl))
	switch {
	case d == "", d == "NULL":
		return NullType, nil
	case strings.Contains(d, "INT"):
		return IntegerType, nil
	case strings.Contains(d, "CHAR"), strings.Contains(d, "CLOB"), strings.Contains(d, "TEXT"):
		return TextType, nil
	case strings.Contains(d, "BLOB"):
		return BlobType, nil
	case strings.Contains(d, "REAL"), strings.Contains(d, "FLOA"), strings.Contains(d, "DOUB"):
		return RealType, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, decl)
}

// ColumnSpec is a (name, type) pair as produced by InferTypes and
// accepted by Create.
type ColumnSpec struct {
	Name string
	Type ColumnType
}

// Column contains the metadata of a table column
type Column struct {
	Name          string
	Type          ColumnType
	PrimaryKey    bool
	Autoincrement bool
}

// Schema is the ordered column list of a table.
type Schema struct {
	Columns []Column
}

// Names returns the column names in table order.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		names = append(names, c.Name)
	}

	return names
}

// Column returns the named column, or nil.
func (s *Schema) Column(name string) *Column {
	for i := range s.Columns {
		if s.Columns[i].Name == name {
			return &s.Columns[i]
		}
	}

	return nil
}

// PrimaryKey returns the primary key column, or nil if there is none.
func (s *Schema) PrimaryKey() *Column {
	for i := range s.Columns {
		if s.Columns[i].PrimaryKey {
			return &s.Columns[i]
		}
	}

	return nil
}

// Autoincrement reports whether the primary key is assigned by the store.
func (s *Schema) Autoincrement() bool {
	pk := s.PrimaryKey()
	return pk != nil && pk.Autoincrement
}

// Validate checks that names are unique, there is at most one primary
// key, and autoincrement is only set on an integer primary key.
func (s *Schema) Validate() error {
	seen := map[string]bool{}
	var pk, ai []string
	for _, c := range s.Columns {
		if seen[c.Name] {
			return fmt.Errorf("%w: duplicate column %q", ErrSchema, c.Name)
		}
		seen[c.Name] = true

		if c.PrimaryKey {
			pk = append(pk, c.Name)
		}
		if c.Autoincrement {
			ai = append(ai, c.Name)
			if !c.PrimaryKey {
				return fmt.Errorf("%w: autoincrement column %q is not the primary key", ErrSchema, c.Name)
			}
			if c.Type != IntegerType {
				return fmt.Errorf("%w: autoincrement column %q is not an integer", ErrSchema, c.Name)
			}
		}
	}

	if len(pk) > 1 {
		return fmt.Errorf("%w: more than one primary key: %v", ErrSchema, pk)
	}
	if len(ai) > 1 {
		return fmt.Errorf("%w: more than one autoincrementing column: %v", ErrSchema, ai)
	}

	return nil
}

// ColumnInfo is one row of SQLite's PRAGMA table_info.
type ColumnInfo struct {
	CID        int64
	Name       string
	Type       string
	NotNull    bool
	Default    *string
	PrimaryKey int64
}

// Backend is the store a Table runs its statements against. Every method
// acquires whatever connection it needs and releases it before returning.
type Backend interface {
	// Query runs a statement and returns every result row.
	Query(query string, args ...interface{}) ([][]interface{}, error)
	Exec(query string, args ...interface{}) error
	// ExecBatch runs all statements in one transaction. Either every
	// statement takes effect or none do.
	ExecBatch(stmts []Statement) error
	TableInfo(name string) ([]ColumnInfo, error)
	// TableSQL returns the CREATE TABLE text stored for name.
	TableSQL(name string) (string, error)
	TableNames() ([]string, error)
}
