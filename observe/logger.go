package observe

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is a minimal structured logging interface.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: ctx carries request scope; implementations must not block on it.
// - Errors: logging must be best-effort and must not panic.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)

	// With returns a logger that adds fields to every entry.
	With(fields ...Field) Logger
}

// Field represents a structured log field.
type Field struct {
	Key   string
	Value any
}

// F is shorthand for constructing a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// LogLevel represents a logging level.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLogLevel parses a string log level. Unknown values map to info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// zeroLogger adapts zerolog to Logger. Entries are JSON lines.
type zeroLogger struct {
	zl zerolog.Logger
}

// NewLogger creates a structured logger writing to stderr.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter creates a structured logger with a custom writer.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	zl := zerolog.New(w).
		Level(ParseLogLevel(level).zerolog()).
		With().Timestamp().Logger()
	return &zeroLogger{zl: zl}
}

// FromZerolog wraps an existing zerolog logger.
func FromZerolog(zl zerolog.Logger) Logger {
	return &zeroLogger{zl: zl}
}

func (l *zeroLogger) Debug(_ context.Context, msg string, fields ...Field) {
	l.emit(l.zl.Debug(), msg, fields)
}

func (l *zeroLogger) Info(_ context.Context, msg string, fields ...Field) {
	l.emit(l.zl.Info(), msg, fields)
}

func (l *zeroLogger) Warn(_ context.Context, msg string, fields ...Field) {
	l.emit(l.zl.Warn(), msg, fields)
}

func (l *zeroLogger) Error(_ context.Context, msg string, fields ...Field) {
	l.emit(l.zl.Error(), msg, fields)
}

func (l *zeroLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	return &zeroLogger{zl: l.zl.With().Fields(fieldMap(fields)).Logger()}
}

func (l *zeroLogger) emit(ev *zerolog.Event, msg string, fields []Field) {
	// Disabled levels return a nil event.
	if ev == nil {
		return
	}
	if len(fields) > 0 {
		ev = ev.Fields(fieldMap(fields))
	}
	ev.Msg(msg)
}

func fieldMap(fields []Field) map[string]any {
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		if isRedactedField(f.Key) {
			m[f.Key] = "[REDACTED]"
			continue
		}
		if err, ok := f.Value.(error); ok && err != nil {
			m[f.Key] = err.Error()
			continue
		}
		m[f.Key] = f.Value
	}
	return m
}

func isRedactedField(key string) bool {
	k := strings.ToLower(key)
	for _, r := range RedactedFields {
		if k == r {
			return true
		}
	}
	return false
}

// NopLogger returns a logger that discards everything.
func NopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...Field) {}
func (nopLogger) Info(context.Context, string, ...Field)  {}
func (nopLogger) Warn(context.Context, string, ...Field)  {}
func (nopLogger) Error(context.Context, string, ...Field) {}
func (l nopLogger) With(...Field) Logger                  { return l }

var (
	_ Logger = (*zeroLogger)(nil)
	_ Logger = nopLogger{}
)
