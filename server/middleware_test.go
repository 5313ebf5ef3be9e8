package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupAssignsUUIDRequestIDs(t *testing.T) {
	log, buf := captureLogger(t)

	e := echo.New()
	Setup(e, log, testConfig())
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	id := rec.Header().Get(echo.HeaderXRequestID)
	require.NotEmpty(t, id)
	_, err := uuid.Parse(id)
	assert.NoError(t, err, "request IDs are UUIDs")

	completed := findRecord(decodeRecords(t, buf), "Request completed")
	require.NotNil(t, completed)
	assert.Equal(t, id, completed["request_id"])
}

func TestSetupRecoversFromPanic(t *testing.T) {
	log, buf := captureLogger(t)

	e := echo.New()
	Setup(e, log, testConfig())
	e.GET("/boom", func(echo.Context) error {
		panic("handler exploded")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	records := decodeRecords(t, buf)
	recovered := findRecord(records, "Panic recovered")
	require.NotNil(t, recovered)
	assert.Equal(t, "error", recovered["level"])
	assert.Contains(t, recovered["error"], "handler exploded")

	stack, ok := recovered["stack"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, stack)
}

func TestSetupAddsResponseTimeHeader(t *testing.T) {
	log, _ := captureLogger(t)

	e := echo.New()
	Setup(e, log, testConfig())
	e.GET("/fast", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/fast", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get(HeaderXResponseTime))
}
