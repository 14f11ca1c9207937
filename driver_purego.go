//go:build !cgo_sqlite

package dbtools

import (
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const (
	driverName    = "sqlite"
	driverPackage = "modernc.org/sqlite"
)
