package server

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/gaborage/go-logkit/config"
	"github.com/gaborage/go-logkit/logger"
)

// Setup registers the logging middleware chain on an Echo server: request ID
// generation, request logging, panic recovery and response timing.
func Setup(e *echo.Echo, log logger.Logger, cfg *config.Config) {
	// Request ID, UUID v4 so identifiers are unguessable across instances
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	// Request logging with severity escalation and slow request detection
	e.Use(RequestLogger(log, cfg))

	// Recovery
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Error().
				Err(err).
				Str("request_id", requestID(c)).
				Bytes("stack", stack).
				Msg("Panic recovered")
			return err
		},
	}))

	// Timing
	e.Use(Timing())
}
