package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimingSetsResponseTimeHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/timed", http.NoBody)
	rec := serveWith(t, Timing(), func(c echo.Context) error {
		time.Sleep(2 * time.Millisecond)
		return c.NoContent(http.StatusOK)
	}, req)

	header := rec.Header().Get(HeaderXResponseTime)
	require.NotEmpty(t, header)

	parsed, err := time.ParseDuration(header)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, parsed, 2*time.Millisecond)
}
