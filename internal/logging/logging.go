package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelSuccess sits between INFO and WARN and marks completed syncs and
// installs.
const LevelSuccess = slog.Level(2)

// Config contains logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, success, warn, error).
	Level string
	// FilePath is the path to the JSON log file. Empty means no file logging.
	FilePath string
	// MaxSizeMB is the maximum size in MB before rotation (default: 10).
	MaxSizeMB int
	// MaxFiles is the maximum number of rotated files to keep (default: 5).
	MaxFiles int
	// Console receives human-readable output. Nil disables console logging.
	Console io.Writer
	// Color enables level colors on the console.
	Color bool
}

// Rotation defaults for the JSON log file.
const (
	DefaultMaxSizeMB = 10
	DefaultMaxFiles  = 5
)

// DefaultConfig returns console-only logging at info level.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		MaxSizeMB: DefaultMaxSizeMB,
		MaxFiles:  DefaultMaxFiles,
		Console:   os.Stderr,
	}
}

// rotation returns the file size limit in MB and the number of backups,
// falling back to the defaults for unset values.
func (c Config) rotation() (sizeMB, backups int) {
	sizeMB, backups = c.MaxSizeMB, c.MaxFiles
	if sizeMB <= 0 {
		sizeMB = DefaultMaxSizeMB
	}
	if backups <= 0 {
		backups = DefaultMaxFiles
	}
	return sizeMB, backups
}

// DebugConfig returns configuration for verbose mode.
func DebugConfig() Config {
	cfg := DefaultConfig()
	cfg.Level = "debug"
	return cfg
}

// Setup builds a logger from cfg and returns it with a cleanup function
// that flushes and closes the log file, if any.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	level := parseLevel(cfg.Level)

	var handlers []slog.Handler
	if cfg.Console != nil {
		handlers = append(handlers, NewConsoleHandler(cfg.Console, level, cfg.Color))
	}

	cleanup := func() {}
	if cfg.FilePath != "" {
		writer, err := openLogFile(cfg)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, slog.NewJSONHandler(writer, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: replaceLevelName,
		}))
		cleanup = func() { _ = writer.Close() }
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		handler = slog.NewTextHandler(io.Discard, nil)
	case 1:
		handler = handlers[0]
	default:
		handler = &multiHandler{handlers: handlers}
	}

	return slog.New(handler), cleanup, nil
}

// Success logs msg at LevelSuccess on the default logger.
func Success(msg string, args ...any) {
	slog.Default().Log(context.Background(), LevelSuccess, msg, args...)
}

// LevelName returns the display name for level, including SUCCESS.
func LevelName(level slog.Level) string {
	if level == LevelSuccess {
		return "SUCCESS"
	}
	return level.String()
}

func replaceLevelName(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey && len(groups) == 0 {
		if level, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(LevelName(level))
		}
	}
	return a
}

// parseLevel converts string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "success":
		return LevelSuccess
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LevelFromString converts string level to slog.Level (exported for use by log viewer).
func LevelFromString(level string) slog.Level {
	return parseLevel(level)
}

// multiHandler fans records out to several handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}
