// Package logging builds the structured logger used by the sample
// extension, handed to the engine through filter.WithLogger.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds a text-handler slog.Logger writing to stderr — never
// stdout, which carries the wire protocol — at the given level ("debug",
// "info", "warn", "error"; unrecognized values default to "info").
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
