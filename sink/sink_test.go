package sink

import (
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu     sync.Mutex
	kind   string
	floor  zerolog.Level
	lines  []string
	err    error
	closed bool
}

func (f *fakeSink) Kind() string {
	return f.kind
}

func (f *fakeSink) Floor() zerolog.Level {
	return f.floor
}

func (f *fakeSink) WriteLevel(_ zerolog.Level, line []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.lines = append(f.lines, string(line))
	return len(line), nil
}

func (f *fakeSink) Close() error {
	f.closed = true
	return f.err
}

func (f *fakeSink) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...)
}

func TestManagerDispatchesToAllSinks(t *testing.T) {
	first := &fakeSink{kind: "console"}
	second := &fakeSink{kind: "file"}
	m := NewManager(first, second)

	n, err := m.WriteLevel(zerolog.InfoLevel, []byte("record\n"))
	require.NoError(t, err)
	assert.Equal(t, len("record\n"), n)

	assert.Equal(t, []string{"record\n"}, first.received())
	assert.Equal(t, []string{"record\n"}, second.received())
}

func TestManagerHonorsSinkFloor(t *testing.T) {
	verbose := &fakeSink{kind: "console", floor: zerolog.DebugLevel}
	errorsOnly := &fakeSink{kind: "file", floor: zerolog.ErrorLevel}
	m := NewManager(verbose, errorsOnly)

	_, err := m.WriteLevel(zerolog.InfoLevel, []byte("info\n"))
	require.NoError(t, err)
	_, err = m.WriteLevel(zerolog.ErrorLevel, []byte("error\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"info\n", "error\n"}, verbose.received())
	assert.Equal(t, []string{"error\n"}, errorsOnly.received())
}

func TestManagerContainsSinkFailure(t *testing.T) {
	broken := &fakeSink{kind: "file", err: errors.New("disk full")}
	healthy := &fakeSink{kind: "console"}
	m := NewManager(broken, healthy)

	n, err := m.WriteLevel(zerolog.InfoLevel, []byte("record\n"))
	require.NoError(t, err, "sink failures must never reach the caller")
	assert.Equal(t, len("record\n"), n)

	lines := healthy.received()
	require.Len(t, lines, 2, "healthy sink gets the record and the failure report")
	assert.Equal(t, "record\n", lines[0])
	assert.Contains(t, lines[1], "sink write failed")
	assert.Contains(t, lines[1], "disk full")
	assert.Contains(t, lines[1], `"sink":"file"`)
}

func TestManagerFailureReportsAreThrottled(t *testing.T) {
	broken := &fakeSink{kind: "file", err: errors.New("disk full")}
	healthy := &fakeSink{kind: "console"}
	m := NewManager(broken, healthy)

	for range 100 {
		_, err := m.WriteLevel(zerolog.InfoLevel, []byte("r\n"))
		require.NoError(t, err)
	}

	var reports int
	for _, line := range healthy.received() {
		if line != "r\n" {
			reports++
		}
	}
	assert.LessOrEqual(t, reports, 6, "failure reports must be rate limited")
	assert.Positive(t, reports)
}

func TestManagerSkipsNilSinks(t *testing.T) {
	healthy := &fakeSink{kind: "console"}
	m := NewManager(nil, healthy, nil)
	assert.Equal(t, 1, m.Size())
}

func TestManagerClose(t *testing.T) {
	first := &fakeSink{kind: "console"}
	second := &fakeSink{kind: "file", err: errors.New("close failed")}
	m := NewManager(first, second)

	err := m.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close failed")
	assert.True(t, first.closed)
	assert.True(t, second.closed)
}

func TestManagerPlainWriteReachesEverySink(t *testing.T) {
	floored := &fakeSink{kind: "file", floor: zerolog.ErrorLevel}
	m := NewManager(floored)

	_, err := m.Write([]byte("no level\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"no level\n"}, floored.received())
}
