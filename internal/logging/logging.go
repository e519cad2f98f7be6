// Package logging configures slog for the discogen binaries. Loggers
// returned by ForComponent carry a "component" attribute (server, cli);
// lines written through the process-wide default logger do not.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup installs the process-wide logger on stderr and returns it.
// Generation requests log one line each, so "text" is the default
// format for interactive use; "json" is for scraped deployments.
func Setup(format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a config or flag level string onto slog. Unrecognized
// values fall back to info rather than failing startup.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ForComponent tags a logger with the component attribute convention
// used across discogen's log lines.
func ForComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String("component", component))
}

// Discard returns a *slog.Logger that drops all output. The level gate
// sits above Error so records are rejected before formatting.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
