package testutil

import (
	"io"
	"log/slog"
)

// NopLogger returns a logger that swallows everything, keeping test
// output down to the assertions that matter.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
