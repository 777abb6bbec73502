package config

import (
	"log/slog"
	"os"
	"strings"
)

// InitLogger installs the process-wide slog default from LOG_LEVEL and
// LOG_FORMAT. Scheduler ticks log at debug, so production runs want info
// and above; JSON is the default format for log shipping.
func InitLogger(cfg *Config) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))

	slog.Info("Logger initialized",
		"level", cfg.LogLevel,
		"format", cfg.LogFormat,
	)
}

// parseLevel maps a level name to its slog level, defaulting unknown values
// to info rather than failing startup over a typo.
func parseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
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
