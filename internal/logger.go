package internal

import (
	"io"
	"log/slog"
	"time"
)

// NewLogger builds the process logger. Prod gets JSON with RFC3339Nano
// timestamps, everything else gets human-readable text.
func NewLogger(w io.Writer, env string, level string) *slog.Logger {
	var lvl slog.LevelVar
	switch level {
	case "debug":
		lvl.Set(slog.LevelDebug)
	case "warn":
		lvl.Set(slog.LevelWarn)
	case "error":
		lvl.Set(slog.LevelError)
	default:
		lvl.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: &lvl}

	var handler slog.Handler
	if env == "prod" {
		opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format(time.RFC3339Nano))
				}
			}
			return a
		}
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
