package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gaborage/go-logkit/sink"
)

// ZeroLogger wraps zerolog.Logger to implement the Logger interface. Every
// record it emits carries the logger name and a timestamp, and all fields
// pass through the sensitive data filter before encoding.
type ZeroLogger struct {
	zlog         *zerolog.Logger
	filter       *SensitiveDataFilter
	name         string
	severityHook func(zerolog.Level)
}

// Ensure ZeroLogger implements the interface
var _ Logger = (*ZeroLogger)(nil)

// New creates a named logger writing to w at the given level. When w also
// implements zerolog.LevelWriter (the sink manager does) each sink still sees
// the record level and can apply its own floor.
func New(name, level string, w io.Writer) *ZeroLogger {
	sink.SetupEncoding()

	if w == nil {
		w = os.Stdout
	}

	l := zerolog.New(w).With().
		Timestamp().
		Str(sink.LoggerField, name).
		Logger().
		Level(ParseLevel(level))

	return &ZeroLogger{
		zlog:   &l,
		filter: NewSensitiveDataFilter(DefaultFilterConfig()),
		name:   name,
	}
}

// NewWithFilter creates a named logger with a custom filter configuration.
// This allows applications to customize which fields are considered sensitive.
func NewWithFilter(name, level string, w io.Writer, filterConfig *FilterConfig) *ZeroLogger {
	l := New(name, level, w)
	l.filter = NewSensitiveDataFilter(filterConfig)
	return l
}

// ParseLevel maps a configured level name to a zerolog level. Unknown names
// fall back to info so a typo in configuration never silences the logger.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "critical", "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Name returns the logger name.
func (l *ZeroLogger) Name() string {
	return l.name
}

// Exception logs err at error severity with the concrete error type and the
// current goroutine stack attached, mirroring what an unhandled error report
// should carry.
func (l *ZeroLogger) Exception(err error, msg string) {
	l.Error().
		Err(err).
		Str("error_type", fmt.Sprintf("%T", err)).
		Str("stack", string(debug.Stack())).
		Msg(msg)
}

// WithContext returns a logger bound to ctx. Trace identifiers stored on the
// context by a zerolog middleware are carried over, and a severity hook on
// the context is picked up so request middleware can observe explicit
// warnings and errors logged by handlers.
func (l *ZeroLogger) WithContext(ctx any) Logger {
	c, ok := ctx.(context.Context)
	if !ok {
		return l
	}

	out := l
	if zl := zerolog.Ctx(c); zl != nil && zl.GetLevel() != zerolog.Disabled {
		out = &ZeroLogger{zlog: zl, filter: l.filter, name: l.name, severityHook: l.severityHook}
	}
	if hook := severityHookFromContext(c); hook != nil {
		clone := *out
		clone.severityHook = hook
		out = &clone
	}
	return out
}

// WithFields returns a logger with additional fields attached to all records.
// The fields are filtered for sensitive data before they are bound.
func (l *ZeroLogger) WithFields(fields map[string]any) Logger {
	if l.filter != nil {
		fields = l.filter.FilterFields(fields)
	}
	log := l.zlog.With().Fields(fields).Logger()
	return &ZeroLogger{zlog: &log, filter: l.filter, name: l.name, severityHook: l.severityHook}
}
