package dbtools

import (
	"fmt"
	"regexp"
)

var autoincrementMarker = regexp.MustCompile(`(?i)\bAUTOINCREMENT\b`)

// Introspect reads the schema of table name from b's catalog.
//
// Column names, types and the primary key come from PRAGMA table_info.
// table_info has no notion of AUTOINCREMENT, so the stored CREATE TABLE
// text is parsed as well. A backend that returns no table_info rows gets
// its whole schema from the CREATE TABLE text.
func Introspect(b Backend, name string) (*Schema, error) {
	ddl, err := b.TableSQL(name)
	if err != nil {
		return nil, err
	}

	infos, err := b.TableInfo(name)
	if err != nil {
		return nil, err
	}

	parsed, parseErr := schemaFromDDL(ddl)
	if len(infos) == 0 {
		if parseErr != nil {
			return nil, parseErr
		}
		return parsed, nil
	}

	schema, err := schemaFromTableInfo(infos)
	if err != nil {
		return nil, err
	}

	pk := schema.PrimaryKey()
	if parseErr != nil {
		// Column types like VARCHAR(20) are beyond the column list parser.
		// SQLite only accepts AUTOINCREMENT on an INTEGER PRIMARY KEY, so
		// the marker can only belong to the primary key.
		if pk != nil && autoincrementMarker.MatchString(ddl) {
			pk.Autoincrement = true
		}
		return schema, schema.Validate()
	}

	if err := sameShape(schema, parsed); err != nil {
		return nil, err
	}
	if pk != nil {
		pk.Autoincrement = parsed.Autoincrement()
	}

	return schema, schema.Validate()
}

func schemaFromTableInfo(infos []ColumnInfo) (*Schema, error) {
	schema := &Schema{}
	for _, info := range infos {
		ct, err := columnTypeFromDecl(info.Type)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", info.Name, err)
		}

		schema.Columns = append(schema.Columns, Column{
			Name:       info.Name,
			Type:       ct,
			PrimaryKey: info.PrimaryKey > 0,
		})
	}

	if err := schema.Validate(); err != nil {
		return nil, err
	}

	return schema, nil
}

func schemaFromDDL(ddl string) (*Schema, error) {
	stmt, err := ParseCreateTable(ddl)
	if err != nil {
		return nil, err
	}

	schema := &Schema{}
	for _, col := range stmt.cols {
		ct, err := columnTypeFromDecl(col.datatype)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.name, err)
		}

		schema.Columns = append(schema.Columns, Column{
			Name:          col.name,
			Type:          ct,
			PrimaryKey:    col.primaryKey,
			Autoincrement: col.autoincrement,
		})
	}

	if err := schema.Validate(); err != nil {
		return nil, err
	}

	return schema, nil
}

// sameShape checks that both introspection paths agree on column names
// and the primary key.
func sameShape(a, b *Schema) error {
	if len(a.Columns) != len(b.Columns) {
		return fmt.Errorf("%w: catalog has %d columns, table definition has %d", ErrSchema, len(a.Columns), len(b.Columns))
	}

	for i := range a.Columns {
		ca, cb := a.Columns[i], b.Columns[i]
		if ca.Name != cb.Name || ca.PrimaryKey != cb.PrimaryKey {
			return fmt.Errorf("%w: catalog column %q does not match table definition column %q", ErrSchema, ca.Name, cb.Name)
		}
	}

	return nil
}
