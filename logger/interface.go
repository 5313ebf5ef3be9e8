// Package logger defines the structured logging contract and its zerolog
// implementation. Loggers are named, carry a sensitive-data filter, and emit
// through the sink layer so one call can reach console, file and telemetry
// destinations at once.
package logger

import "time"

// Logger is the contract for structured logging throughout an application.
// It provides methods for creating log events at each severity level and for
// contextual logging.
type Logger interface {
	Debug() LogEvent
	Info() LogEvent
	Warn() LogEvent
	Error() LogEvent
	// Critical logs at the highest severity without terminating the process.
	Critical() LogEvent
	// Exception logs err at error severity together with the current stack.
	Exception(err error, msg string)
	// DebugTiming starts a debug-level duration measurement for an operation.
	DebugTiming(operation string) *Timing
	WithContext(ctx any) Logger
	WithFields(fields map[string]any) Logger
	// Name returns the logger name carried on every record.
	Name() string
}

// LogEvent represents a structured log event that can be built with fields
// and sent. Field methods return the event for chaining; Msg or Msgf sends it.
type LogEvent interface {
	Msg(msg string)
	Msgf(format string, args ...any)
	Err(err error) LogEvent
	Str(key, value string) LogEvent
	Int(key string, value int) LogEvent
	Int64(key string, value int64) LogEvent
	Uint64(key string, value uint64) LogEvent
	Float64(key string, value float64) LogEvent
	Bool(key string, value bool) LogEvent
	Dur(key string, d time.Duration) LogEvent
	Interface(key string, i any) LogEvent
	Bytes(key string, val []byte) LogEvent
}
