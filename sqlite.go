package dbtools

import (
	"database/sql"
	"fmt"
	"os"
)

// DriverName returns the database/sql driver the backends open.
func DriverName() string {
	return driverName
}

// DriverPackage returns the import path of the SQLite implementation
// compiled in.
func DriverPackage() string {
	return driverPackage
}

// sqlStore implements Backend over database/sql. acquire hands out a
// handle plus the function that releases it.
type sqlStore struct {
	acquire func() (*sql.DB, func() error, error)
}

func (s *sqlStore) withDB(fn func(db *sql.DB) error) (err error) {
	db, release, err := s.acquire()
	if err != nil {
		return err
	}
	defer func() {
		if rerr := release(); rerr != nil && err == nil {
			err = rerr
		}
	}()

	return fn(db)
}

func (s *sqlStore) Query(query string, args ...interface{}) ([][]interface{}, error) {
	var results [][]interface{}
	err := s.withDB(func(db *sql.DB) error {
		rows, err := db.Query(query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		columns, err := rows.Columns()
		if err != nil {
			return err
		}

		for rows.Next() {
			row := make([]interface{}, len(columns))
			dest := make([]interface{}, len(columns))
			for i := range row {
				dest[i] = &row[i]
			}
			if err := rows.Scan(dest...); err != nil {
				return err
			}

			results = append(results, row)
		}

		return rows.Err()
	})

	return results, err
}

func (s *sqlStore) Exec(query string, args ...interface{}) error {
	return s.withDB(func(db *sql.DB) error {
		_, err := db.Exec(query, args...)
		return err
	})
}

func (s *sqlStore) ExecBatch(stmts []Statement) error {
	return s.withDB(func(db *sql.DB) error {
		tx, err := db.Begin()
		if err != nil {
			return err
		}

		for _, stmt := range stmts {
			if _, err := tx.Exec(stmt.GenerateCode(), stmt.Args()...); err != nil {
				// The statement error is the one worth reporting.
				_ = tx.Rollback()
				return err
			}
		}

		return tx.Commit()
	})
}

func (s *sqlStore) TableInfo(name string) ([]ColumnInfo, error) {
	var infos []ColumnInfo
	err := s.withDB(func(db *sql.DB) error {
		rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(name)))
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				info    ColumnInfo
				notNull int64
				def     sql.NullString
			)
			if err := rows.Scan(&info.CID, &info.Name, &info.Type, &notNull, &def, &info.PrimaryKey); err != nil {
				return err
			}

			info.NotNull = notNull != 0
			if def.Valid {
				info.Default = &def.String
			}
			infos = append(infos, info)
		}

		return rows.Err()
	})

	return infos, err
}

func (s *sqlStore) TableSQL(name string) (string, error) {
	var ddl sql.NullString
	err := s.withDB(func(db *sql.DB) error {
		return db.QueryRow("SELECT sql FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&ddl)
	})
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: %s", ErrTableDoesNotExist, name)
	}
	if err != nil {
		return "", err
	}

	return ddl.String, nil
}

// TableNames lists user tables in creation order. SQLite's own
// bookkeeping tables (sqlite_sequence and friends) are left out.
func (s *sqlStore) TableNames() ([]string, error) {
	names := []string{}
	err := s.withDB(func(db *sql.DB) error {
		rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite\\_%' ESCAPE '\\' ORDER BY rowid")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			names = append(names, name)
		}

		return rows.Err()
	})

	return names, err
}

// SQLiteBackend is a Backend over a SQLite database file. Each operation
// opens the file and closes it again before returning.
type SQLiteBackend struct {
	sqlStore
	path string
}

// NewSQLiteBackend returns a backend for the database at path. The file
// is created by the first statement that writes to it.
func NewSQLiteBackend(path string) *SQLiteBackend {
	sb := &SQLiteBackend{path: path}
	sb.acquire = func() (*sql.DB, func() error, error) {
		db, err := sql.Open(driverName, sb.path)
		if err != nil {
			return nil, nil, err
		}

		return db, db.Close, nil
	}

	return sb
}

// Path returns the database file location.
func (sb *SQLiteBackend) Path() string {
	return sb.path
}

func (sb *SQLiteBackend) exists() bool {
	_, err := os.Stat(sb.path)
	return err == nil
}

// TableNames fails with ErrDatabaseDoesNotExist rather than creating an
// empty database file.
func (sb *SQLiteBackend) TableNames() ([]string, error) {
	if !sb.exists() {
		return nil, fmt.Errorf("%w: %s", ErrDatabaseDoesNotExist, sb.path)
	}

	return sb.sqlStore.TableNames()
}

// TableSQL reports a missing table, not a missing database, when the file
// is absent.
func (sb *SQLiteBackend) TableSQL(name string) (string, error) {
	if !sb.exists() {
		return "", fmt.Errorf("%w: %s", ErrTableDoesNotExist, name)
	}

	return sb.sqlStore.TableSQL(name)
}
