// Package sink owns the destinations for encoded log records: console,
// rotating files and an optional OpenTelemetry bridge. A Manager fans one
// record out to every sink whose floor is satisfied and guarantees that a
// sink failure never reaches the caller of a logging call.
package sink

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Sink is a destination for formatted log output.
type Sink interface {
	// Kind identifies the sink type ("console", "file", "otel").
	Kind() string
	// Floor is the minimum level this sink accepts.
	Floor() zerolog.Level
	// WriteLevel writes one encoded record. Implementations serialize
	// their own writes.
	WriteLevel(level zerolog.Level, line []byte) (int, error)
	Close() error
}

// Manager dispatches records to an ordered set of sinks. It implements
// io.Writer and zerolog.LevelWriter so it can sit directly under a zerolog
// logger. Write failures are contained here: they are reported best-effort
// to the remaining sinks and to stderr, and never propagated to the caller.
type Manager struct {
	sinks     []Sink
	reports   *rate.Limiter
	reporting atomic.Bool
}

// Ensure Manager satisfies zerolog's writer contracts.
var _ zerolog.LevelWriter = (*Manager)(nil)

// NewManager creates a Manager over the given sinks. Nil sinks are skipped.
// Failure reports are throttled to one per second with a small burst so a
// persistently broken sink cannot flood the healthy ones.
func NewManager(sinks ...Sink) *Manager {
	active := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			active = append(active, s)
		}
	}
	return &Manager{
		sinks:   active,
		reports: rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// Write implements io.Writer for callers that have no level information.
func (m *Manager) Write(p []byte) (int, error) {
	return m.WriteLevel(zerolog.NoLevel, p)
}

// WriteLevel dispatches one record to every sink whose floor is satisfied.
// It always reports success to the caller: logging must not crash or alter
// the control flow of the host application.
func (m *Manager) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	for i, s := range m.sinks {
		if level < s.Floor() {
			continue
		}
		if _, err := s.WriteLevel(level, p); err != nil {
			m.reportFailure(i, err)
		}
	}
	return len(p), nil
}

// reportFailure emits a synthetic error record about a broken sink to the
// remaining sinks and to stderr. Reporting is guarded against recursion and
// rate limited.
func (m *Manager) reportFailure(failed int, cause error) {
	if !m.reporting.CompareAndSwap(false, true) {
		return
	}
	defer m.reporting.Store(false)

	if !m.reports.Allow() {
		return
	}

	line := failureRecord(m.sinks[failed].Kind(), cause)
	for i, s := range m.sinks {
		if i == failed {
			continue
		}
		_, _ = s.WriteLevel(zerolog.ErrorLevel, line)
	}
	_, _ = os.Stderr.Write(line)
}

// Close closes all sinks and reports the collected errors.
func (m *Manager) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s sink: %w", s.Kind(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sinks: %v", errs)
	}
	return nil
}

// Size returns the number of active sinks.
func (m *Manager) Size() int {
	return len(m.sinks)
}

func failureRecord(kind string, cause error) []byte {
	return fmt.Appendf(nil,
		"{\"timestamp\":%q,\"level\":\"error\",\"logger\":\"logkit\",\"message\":\"sink write failed\",\"sink\":%q,\"error\":%q}\n",
		time.Now().Format(time.RFC3339Nano), kind, cause.Error())
}
