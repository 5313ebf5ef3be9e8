package logger

import "time"

// Timing measures the duration of a named operation. It is created by
// DebugTiming and closed by End; both ends emit at debug level so timing
// instrumentation disappears entirely above debug.
type Timing struct {
	log       Logger
	operation string
	start     time.Time
}

// DebugTiming starts a timing measurement and logs the operation start.
func (l *ZeroLogger) DebugTiming(operation string) *Timing {
	l.Debug().Str("operation", operation).Msg("Operation started")
	return &Timing{log: l, operation: operation, start: time.Now()}
}

// End logs the elapsed time for the operation and returns it. An empty msg
// falls back to a generic completion message.
func (t *Timing) End(msg string) time.Duration {
	elapsed := time.Since(t.start)
	if msg == "" {
		msg = "Operation completed"
	}
	t.log.Debug().
		Str("operation", t.operation).
		Dur("duration_ms", elapsed).
		Msg(msg)
	return elapsed
}
