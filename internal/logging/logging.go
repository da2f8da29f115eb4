// Package logging sets up the structured logger shared by the broker,
// searcher and indexer binaries.
package logging

import (
	"log/slog"
	"os"
)

// New builds a JSON slog.Logger tagged with a component name, the way
// each binary scopes its own logger before handing it to the services
// it constructs.
func New(component string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(handler).With("component", component)
}
