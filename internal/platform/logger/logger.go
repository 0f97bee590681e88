package logger

import (
	"log/slog"
	"os"
)

// New returns a structured JSON logger using slog. Development environments
// log at debug level.
func New(environment string) *slog.Logger {
	level := slog.LevelInfo
	if environment == "development" {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler).With("service", "dsakyc")
}
