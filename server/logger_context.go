// Package server provides HTTP middleware that ties request handling to the
// logging layer: request/response logging, slow request detection, panic
// recovery and response timing headers for Echo applications.
package server

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RequestLogContextKey is the key used to store request logging state in
// Echo's context. External code can use it to access or escalate request
// severity.
const RequestLogContextKey = "_request_log_ctx"

// requestLogContext tracks request-scoped logging state. It records the
// highest severity observed during the request lifecycle so the middleware
// can decide whether the completion and slow-request summaries still need to
// be emitted, or whether explicit WARN+ logs already told the story.
type requestLogContext struct {
	mu                 sync.Mutex
	startTime          time.Time
	peakSeverity       zerolog.Level
	hadExplicitWarning bool
}

func newRequestLogContext() *requestLogContext {
	return &requestLogContext{
		startTime:    time.Now(),
		peakSeverity: zerolog.InfoLevel,
	}
}

// getRequestLogContext retrieves the request logging context from Echo's
// context. Returns nil if the request is not tracked.
func getRequestLogContext(c echo.Context) *requestLogContext {
	if ctx := c.Get(RequestLogContextKey); ctx != nil {
		if reqCtx, ok := ctx.(*requestLogContext); ok {
			return reqCtx
		}
	}
	return nil
}

// startedAt returns the request start time. Safe for concurrent use with the
// severity hook, which may fire from handler goroutines.
func (r *requestLogContext) startedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startTime
}

// escalateSeverity records an explicitly logged severity. It is installed as
// the severity hook on the request context.
func (r *requestLogContext) escalateSeverity(level zerolog.Level) {
	r.escalate(level, true)
}

// escalateSeverityFromStatus records a severity derived from the final HTTP
// status. Status-derived escalation never counts as an explicit warning, so
// the completion summary is still emitted for plain 4xx/5xx responses.
func (r *requestLogContext) escalateSeverityFromStatus(level zerolog.Level) {
	r.escalate(level, false)
}

func (r *requestLogContext) escalate(level zerolog.Level, explicit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if level > r.peakSeverity {
		r.peakSeverity = level
	}
	if explicit && level >= zerolog.WarnLevel {
		r.hadExplicitWarning = true
	}
}

func (r *requestLogContext) explicitWarningOccurred() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hadExplicitWarning
}

// EscalateSeverity allows application code to escalate request severity
// without logging, for events such as rate limiting that should suppress the
// synthesized summaries.
func EscalateSeverity(c echo.Context, level zerolog.Level) {
	if reqCtx := getRequestLogContext(c); reqCtx != nil {
		reqCtx.escalateSeverity(level)
	}
}
