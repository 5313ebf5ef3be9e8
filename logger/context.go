package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// contextKey is the type for context keys to avoid collisions
type contextKey string

// severityHookKey stores a callback for request-level severity tracking
const severityHookKey contextKey = "severity_hook"

// WithSeverityHook attaches a severity hook to the context. The hook is used
// by the logging adapter to propagate WARN and higher events back to request
// middleware, which uses them to decide how to classify slow requests.
func WithSeverityHook(ctx context.Context, hook func(zerolog.Level)) context.Context {
	if ctx == nil || hook == nil {
		return ctx
	}
	return context.WithValue(ctx, severityHookKey, hook)
}

// severityHookFromContext retrieves the severity hook from the context when present.
func severityHookFromContext(ctx context.Context) func(zerolog.Level) {
	if ctx == nil {
		return nil
	}
	if hook, ok := ctx.Value(severityHookKey).(func(zerolog.Level)); ok {
		return hook
	}
	return nil
}
