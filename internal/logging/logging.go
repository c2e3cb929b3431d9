package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

func ParseLevel(level string) slog.Level {
	switch level {
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

// SetupLogger always logs to a rotated file. When the terminal is used as
// the slot display, nothing is written to stderr because stray lines would
// throw off the screen's line accounting.
func SetupLogger(path, level string, display bool) (*slog.Logger, error) {
	lvl := ParseLevel(level)

	logDir := filepath.Dir(path)
	if logDir != "" && logDir != "." {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}

	_ = CloseFile()
	logFile = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     14, // days
	}

	fileHandler := newHandler(logFile, lvl, time.RFC3339, true)
	if display {
		return slog.New(fileHandler), nil
	}

	noColor := !isatty.IsTerminal(os.Stderr.Fd()) || os.Getenv("NO_COLOR") != ""
	stderrHandler := newHandler(os.Stderr, lvl, time.TimeOnly, noColor)

	return slog.New(tee{fileHandler, stderrHandler}), nil
}

func newHandler(w io.Writer, lvl slog.Level, timeFormat string, noColor bool) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: timeFormat,
		NoColor:    noColor,
	})
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(newHandler(io.Discard, slog.LevelError+1, time.RFC3339, true))
}

// tee sends each record to every handler that accepts its level. One
// failing handler does not keep the record from the others.
type tee []slog.Handler

func (t tee) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(t, func(h slog.Handler) bool { return h.Enabled(ctx, level) })
}

func (t tee) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, record.Level) {
			errs = append(errs, h.Handle(ctx, record.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (t tee) WithGroup(name string) slog.Handler {
	if name == "" {
		return t
	}
	return t.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (t tee) derive(fn func(slog.Handler) slog.Handler) tee {
	out := make(tee, 0, len(t))
	for _, h := range t {
		out = append(out, fn(h))
	}
	return out
}

// logFile is the rotated file opened by SetupLogger.
var logFile *lumberjack.Logger

// CloseFile flushes and closes the log file. Calling it twice is harmless.
func CloseFile() error {
	f := logFile
	logFile = nil
	if f == nil {
		return nil
	}
	return f.Close()
}
