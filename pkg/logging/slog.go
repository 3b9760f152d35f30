package logging

import (
	"log/slog"
	"os"
)

// New builds the process-wide JSON logger. Level is parsed from the usual
// names (debug, info, warn, error); anything else falls back to info.
func New(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})
	return slog.New(h)
}
