// Package logging builds the process slog.Logger: JSON lines for log
// aggregators, or coloured text via tint for local development.
package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// Level parses debug, info, warn, or error. Anything else is info.
func Level(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// New returns a logger writing to w. format is "text" for tint output and
// anything else for JSON.
func New(w io.Writer, format, level string) *slog.Logger {
	lvl := Level(level)
	if format == "text" {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}
