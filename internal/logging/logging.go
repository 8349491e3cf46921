package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup creates the agent's *slog.Logger, sets it as the default, and
// returns it. The level string comes straight from COURIERD_LOG_LEVEL:
// "debug", "info", "warn"/"warning", or "error" (case-insensitive),
// anything else means info.
func Setup(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
