// Package testutil provides shared testing utilities for the lumi project.
//
// This package contains reusable test infrastructure usable across multiple
// packages, following the pattern of Go standard library packages like
// net/http/httptest and testing/iotest.
package testutil

import "log/slog"

// DiscardLogger returns a slog.Logger that discards all output.
//
// Note: log.Logger is a type alias for *slog.Logger, so this function and
// log.NewNop() return the same type. Prefer log.NewNop() when the
// internal/log package is already imported.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
