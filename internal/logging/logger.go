package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Options configures a Logger.
type Options struct {
	// Level is one of debug, info, warn or error.
	Level string
	// Format is one of text, logfmt or json.
	Format string
	// Console, when set, also receives log lines in text form.
	Console io.Writer
}

// Logger appends structured lines to .lattice-tasks/logs/lattice-tasks.log so
// users can inspect what a run did after the terminal is gone. Every line
// carries the run id of the invocation that wrote it.
type Logger struct {
	file    *os.File
	log     *log.Logger
	console *log.Logger
	runID   string
}

// New creates (or reuses) the log file at path.
func New(path string, opts Options) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	l, err := NewWriter(f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	l.file = f
	return l, nil
}

// NewWriter builds a logger writing to w instead of a file.
func NewWriter(w io.Writer, opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	formatter, err := ParseFormatter(opts.Format)
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	l := &Logger{
		log: log.NewWithOptions(w, log.Options{
			Level:           level,
			Formatter:       formatter,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
		}).With("run", runID),
		runID: runID,
	}
	if opts.Console != nil {
		l.console = log.NewWithOptions(opts.Console, log.Options{
			Level:     level,
			Formatter: log.TextFormatter,
			Prefix:    "lattice-tasks",
		})
	}
	return l, nil
}

// ParseLevel maps a config level name to a log level. Empty means info.
func ParseLevel(raw string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return log.InfoLevel, nil
	case "debug":
		return log.DebugLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("logging: unknown level %q", raw)
	}
}

// ParseFormatter maps a config format name to a formatter. Empty means logfmt.
func ParseFormatter(raw string) (log.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "logfmt":
		return log.LogfmtFormatter, nil
	case "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	default:
		return log.LogfmtFormatter, fmt.Errorf("logging: unknown format %q", raw)
	}
}

// RunID identifies the invocation that owns this logger.
func (l *Logger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

// Close releases the file handle.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// With returns a logger that adds keyvals to every line.
func (l *Logger) With(keyvals ...any) *Logger {
	if l == nil || l.log == nil {
		return l
	}
	next := &Logger{file: l.file, log: l.log.With(keyvals...), runID: l.runID}
	if l.console != nil {
		next.console = l.console.With(keyvals...)
	}
	return next
}

// Printf writes a single info line.
func (l *Logger) Printf(format string, args ...any) {
	l.Info(strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

func (l *Logger) Debug(msg string, keyvals ...any) {
	l.emit(log.DebugLevel, msg, keyvals)
}

func (l *Logger) Info(msg string, keyvals ...any) {
	l.emit(log.InfoLevel, msg, keyvals)
}

func (l *Logger) Warn(msg string, keyvals ...any) {
	l.emit(log.WarnLevel, msg, keyvals)
}

func (l *Logger) Error(msg string, keyvals ...any) {
	l.emit(log.ErrorLevel, msg, keyvals)
}

func (l *Logger) emit(level log.Level, msg string, keyvals []any) {
	if l == nil || l.log == nil {
		return
	}
	l.log.Log(level, msg, keyvals...)
	if l.console != nil {
		l.console.Log(level, msg, keyvals...)
	}
}
