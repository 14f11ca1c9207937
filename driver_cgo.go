//go:build cgo_sqlite

// CGO SQLite driver, used when the cgo_sqlite build tag is set.
//
// Build with: go build -tags cgo_sqlite
// Requires: CGO_ENABLED=1
package dbtools

import (
	_ "github.com/mattn/go-sqlite3" // CGO SQLite driver
)

const (
	driverName    = "sqlite3"
	driverPackage = "github.com/mattn/go-sqlite3"
)
