package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gaborage/go-logkit/config"
	"github.com/gaborage/go-logkit/logger"
)

// maxLoggedBodyBytes bounds how much of a request body is read for logging.
const maxLoggedBodyBytes = 10 * 1024

// RequestLoggerConfig configures the request logging middleware.
type RequestLoggerConfig struct {
	// HTTP carries the request logging switches and the slow threshold.
	HTTP config.HTTPConfig

	// HealthPath specifies the health probe endpoint to exclude from logging
	HealthPath string

	// ReadyPath specifies the readiness probe endpoint to exclude from logging
	ReadyPath string
}

// RequestLogger returns a request logging middleware driven by the loaded
// configuration.
func RequestLogger(log logger.Logger, cfg *config.Config) echo.MiddlewareFunc {
	httpCfg := config.Default().HTTP
	if cfg != nil {
		httpCfg = cfg.HTTP
	}
	return RequestLoggerWithConfig(log, RequestLoggerConfig{HTTP: httpCfg})
}

// RequestLoggerWithConfig returns a request logging middleware with custom
// configuration. It logs request details on arrival, a completion summary
// with a severity derived from the response status, and a warning for
// requests slower than the configured threshold.
//
// The middleware tracks request-scoped severity escalation: when handler code
// explicitly logs at WARN or above during the request, the synthesized
// summaries are suppressed so the explicit records tell the story without a
// duplicate.
func RequestLoggerWithConfig(log logger.Logger, cfg RequestLoggerConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqCtx := newRequestLogContext()
			c.Set(RequestLogContextKey, reqCtx)

			// Attach severity hook so explicit WARN+ logs during the request
			// suppress the synthesized summaries.
			ctxWithHook := logger.WithSeverityHook(c.Request().Context(), reqCtx.escalateSeverity)
			c.SetRequest(c.Request().WithContext(ctxWithHook))

			// Skip probe endpoints from logs
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			if path == cfg.HealthPath || path == cfg.ReadyPath {
				return next(c)
			}

			contextLog := log.WithContext(c.Request().Context())

			if cfg.HTTP.RequestDetails {
				logRequestDetails(c, contextLog, cfg)
			}

			err := next(c)

			latency := time.Since(reqCtx.startedAt())
			status := c.Response().Status
			updateSeverityFromStatus(reqCtx, status, err)

			// Explicit WARN+ logs during execution replace the summaries.
			if reqCtx.explicitWarningOccurred() {
				return err
			}

			if cfg.HTTP.ResponseDetails {
				logCompletion(c, contextLog, latency, status, err)
			}
			if threshold := cfg.HTTP.SlowThreshold(); cfg.HTTP.SlowRequests && threshold > 0 && latency > threshold {
				logSlowRequest(c, contextLog, latency, threshold)
			}

			return err
		}
	}
}

// updateSeverityFromStatus escalates severity based on HTTP status code and
// error, without marking the escalation as explicit.
func updateSeverityFromStatus(reqCtx *requestLogContext, status int, err error) {
	if status >= 500 || (err != nil && status == 0) {
		reqCtx.escalateSeverityFromStatus(zerolog.ErrorLevel)
	} else if status >= 400 {
		reqCtx.escalateSeverityFromStatus(zerolog.WarnLevel)
	}
}

// logRequestDetails emits one record when the request arrives. Headers and
// body are opt-in; both pass through the logger's sensitive data filter.
func logRequestDetails(c echo.Context, log logger.Logger, cfg RequestLoggerConfig) {
	req := c.Request()

	event := log.Info().
		Str("request_id", requestID(c)).
		Str("http.request.method", req.Method).
		Str("url.path", req.URL.Path).
		Str("client.address", c.RealIP())

	if query := req.URL.RawQuery; query != "" {
		event = event.Str("url.query", query)
	}
	if cfg.HTTP.RequestHeaders {
		event = event.Interface("headers", headerMap(c))
	}
	if cfg.HTTP.RequestBody && methodCarriesBody(req.Method) {
		if body := readBodyForLogging(c); body != nil {
			event = event.Interface("body", body)
		}
	}

	event.Msg("Request started")
}

// logCompletion emits the request summary. Severity follows the response
// status: 5xx logs as error, 4xx as warning, everything else as info.
func logCompletion(c echo.Context, log logger.Logger, latency time.Duration, status int, err error) {
	var event logger.LogEvent
	switch {
	case status >= 500 || (err != nil && status == 0):
		event = log.Error()
		if err != nil {
			event = event.Err(err)
		}
	case status >= 400:
		event = log.Warn()
	default:
		event = log.Info()
	}

	event.
		Str("request_id", requestID(c)).
		Str("http.request.method", c.Request().Method).
		Str("url.path", c.Request().URL.Path).
		Int("http.response.status_code", status).
		Dur("duration_ms", latency).
		Str("client.address", c.RealIP()).
		Str("user_agent.original", c.Request().UserAgent()).
		Msg("Request completed")
}

// logSlowRequest flags requests that exceeded the latency threshold.
func logSlowRequest(c echo.Context, log logger.Logger, latency, threshold time.Duration) {
	log.Warn().
		Str("request_id", requestID(c)).
		Str("http.request.method", c.Request().Method).
		Str("url.path", c.Request().URL.Path).
		Dur("duration_ms", latency).
		Int64("threshold_ms", threshold.Milliseconds()).
		Msg("Slow request detected")
}

// requestID safely extracts the request ID from the response, falling back
// to the request header. The response may be nil after a timeout.
func requestID(c echo.Context) string {
	if resp := c.Response(); resp != nil {
		if id := resp.Header().Get(echo.HeaderXRequestID); id != "" {
			return id
		}
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

// headerMap flattens request headers for logging. Multi-valued headers keep
// their first value.
func headerMap(c echo.Context) map[string]any {
	headers := make(map[string]any, len(c.Request().Header))
	for name, values := range c.Request().Header {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}
	return headers
}

func methodCarriesBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

// readBodyForLogging reads up to maxLoggedBodyBytes of a JSON request body
// and restores the stream for the handler. Non-JSON bodies are skipped.
func readBodyForLogging(c echo.Context) any {
	req := c.Request()
	if req.Body == nil {
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(req.Body, maxLoggedBodyBytes))
	rest, _ := io.ReadAll(req.Body)
	req.Body = io.NopCloser(bytes.NewReader(append(raw, rest...)))
	if err != nil || len(raw) == 0 {
		return nil
	}

	var parsed any
	if json.Unmarshal(raw, &parsed) != nil {
		return nil
	}
	return parsed
}
