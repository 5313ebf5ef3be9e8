package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var record map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))
		records = append(records, record)
	}
	require.NoError(t, scanner.Err())
	return records
}

func TestDebugTimingEmitsStartAndEnd(t *testing.T) {
	log, buf := captureLogger(t, "service", "debug")

	timing := log.DebugTiming("load_customers")
	time.Sleep(5 * time.Millisecond)
	elapsed := timing.End("customers loaded")

	assert.GreaterOrEqual(t, elapsed, 5*time.Millisecond)

	records := decodeLines(t, buf)
	require.Len(t, records, 2)

	start := records[0]
	assert.Equal(t, "debug", start["level"])
	assert.Equal(t, "load_customers", start["operation"])
	assert.Equal(t, "Operation started", start["message"])

	end := records[1]
	assert.Equal(t, "debug", end["level"])
	assert.Equal(t, "load_customers", end["operation"])
	assert.Equal(t, "customers loaded", end["message"])
	duration, ok := end["duration_ms"].(float64)
	require.True(t, ok, "duration_ms should be numeric")
	assert.GreaterOrEqual(t, duration, float64(5))
}

func TestDebugTimingDefaultEndMessage(t *testing.T) {
	log, buf := captureLogger(t, "service", "debug")

	log.DebugTiming("op").End("")

	records := decodeLines(t, buf)
	require.Len(t, records, 2)
	assert.Equal(t, "Operation completed", records[1]["message"])
}

func TestDebugTimingSilentAboveDebug(t *testing.T) {
	log, buf := captureLogger(t, "service", "info")

	log.DebugTiming("op").End("done")

	assert.Empty(t, buf.String(), "timing instrumentation is debug-only")
}
