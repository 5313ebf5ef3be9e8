package server

// HTTP header names set by the middleware in this package.
const (
	// HeaderXResponseTime carries the measured request processing time.
	HeaderXResponseTime = "X-Response-Time"
)
