package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"carcrash/internal/config"
)

// parseLevel maps LOGGING.level to a slog level. CRITICAL and FATAL map to
// Error; unknown names fall back to Info.
func parseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR", "CRITICAL", "FATAL":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger builds the process logger from LOGGING. Logs go to LOGGING.path
// when set (appended or truncated per mode), otherwise to stderr. The
// returned func closes the log file.
func newLogger(l config.Logging, verbose bool, stderr io.Writer) (*slog.Logger, func(), error) {
	out := stderr
	closeFn := func() {}
	if l.Path != "" {
		if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("log dir: %w", err)
		}
		flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
		if l.Mode == "w" {
			flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		}
		f, err := os.OpenFile(l.Path, flags, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("log file: %w", err)
		}
		out = f
		closeFn = func() { _ = f.Close() }
	}

	level := parseLevel(l.Level)
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if l.Formatter == "json" {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	logger := slog.New(h)
	if l.Namespace != "" {
		logger = logger.With("logger", l.Namespace)
	}
	return logger, closeFn, nil
}
