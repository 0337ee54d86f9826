package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewJSONLogger returns a slog logger that writes JSON records to stdout,
// tagged with the emitting service name.
func NewJSONLogger(service, level string) *slog.Logger {
	return newLogger(os.Stdout, service, level)
}

func newLogger(w io.Writer, service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler).With(slog.String("service", service))
}

// parseLevel understands the slog level names plus "warning"; anything
// unrecognized falls back to info so a config typo never silences logs.
func parseLevel(raw string) slog.Level {
	name := strings.TrimSpace(raw)
	if strings.EqualFold(name, "warning") {
		return slog.LevelWarn
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}
