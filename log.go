package dbtools

import (
	"context"
	"log/slog"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.Default())
}

// SetLogger replaces the logger statements are reported to. A nil logger
// restores slog.Default().
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	logger.Store(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return logger.Load()
}

// logStatement reports a statement before it runs: at Info for verbose
// tables, Debug otherwise.
func logStatement(verbose bool, table string, stmt Statement) {
	level := slog.LevelDebug
	if verbose {
		level = slog.LevelInfo
	}

	l := Logger()
	if !l.Enabled(context.Background(), level) {
		return
	}

	l.Log(context.Background(), level, "sql",
		slog.String("table", table),
		slog.String("statement", stmt.GenerateCode()),
		slog.Any("args", stmt.Args()),
	)
}
