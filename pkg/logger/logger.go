package logger

import (
	"log/slog"
	"os"
	"strings"
)

// NewHandler creates the slog handler used across the service.
// Passing nil opts picks the level from the LOG_LEVEL environment variable.
func NewHandler(opts *slog.HandlerOptions) slog.Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{
			Level: parseLevel(os.Getenv("LOG_LEVEL")),
		}
	}

	return slog.NewJSONHandler(os.Stdout, opts)
}

func parseLevel(v string) slog.Level {
	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
