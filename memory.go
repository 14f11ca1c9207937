package dbtools

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// MemoryBackend is a Backend over a private in-memory SQLite database.
// The database lives until Close is called.
type MemoryBackend struct {
	sqlStore
	name string
	db   *sql.DB
}

// NewMemoryBackend opens a fresh in-memory database. Each backend gets
// its own uniquely named shared-cache database, so two backends never see
// each other's tables.
func NewMemoryBackend() (*MemoryBackend, error) {
	name := "dbtools-" + uuid.NewString()
	db, err := sql.Open(driverName, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		return nil, err
	}

	// Closing the last connection discards the database, so keep exactly
	// one and never let it go idle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	mb := &MemoryBackend{name: name, db: db}
	mb.acquire = func() (*sql.DB, func() error, error) {
		return mb.db, func() error { return nil }, nil
	}

	return mb, nil
}

// Name returns the shared-cache name of the database.
func (mb *MemoryBackend) Name() string {
	return mb.name
}

// Close discards the database.
func (mb *MemoryBackend) Close() error {
	return mb.db.Close()
}
