package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-logkit/config"
)

func sizeRotation(maxSize int64, backups int) config.RotationConfig {
	return config.RotationConfig{
		Type:    "size",
		MaxSize: maxSize,
		Backups: backups,
	}
}

func TestSizeRotationTriggersBeforeOffendingWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	rf, err := newRotatingFile(path, sizeRotation(100, 3), nil)
	require.NoError(t, err)
	defer rf.Close()

	record := []byte("0123456789012345678901234567890123456789\n") // 41 bytes

	// Two records fit (82 bytes), the third would exceed 100
	for range 2 {
		_, err = rf.Write(record)
		require.NoError(t, err)
	}
	_, err = rf.Write(record)
	require.NoError(t, err)

	// Active file contains only the offending record
	active, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, record, active)

	// Exactly one backup with the two earlier records
	backup, err := os.ReadFile(backupName(path, 1))
	require.NoError(t, err)
	assert.Len(t, backup, 2*len(record))

	_, err = os.Stat(backupName(path, 2))
	assert.True(t, os.IsNotExist(err), "only one rotation should have happened")
}

func TestBackupRetentionEvictsOldest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	const backups = 2

	rf, err := newRotatingFile(path, sizeRotation(10, backups), nil)
	require.NoError(t, err)
	defer rf.Close()

	// Each write overflows the previous one, forcing a rotation per write
	for i := range backups + 2 {
		_, err = rf.Write(fmt.Appendf(nil, "record-%d\n", i))
		require.NoError(t, err)
	}

	// After K+1 rotations exactly K backups remain
	for i := 1; i <= backups; i++ {
		_, err := os.Stat(backupName(path, i))
		assert.NoError(t, err, "backup %d should exist", i)
	}
	_, err = os.Stat(backupName(path, backups+1))
	assert.True(t, os.IsNotExist(err), "backup beyond the retained count must be evicted")

	// Newest backup holds the most recent rotated record
	newest, err := os.ReadFile(backupName(path, 1))
	require.NoError(t, err)
	assert.Equal(t, "record-2\n", string(newest))
}

func TestZeroBackupsDiscardsRotatedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	rf, err := newRotatingFile(path, sizeRotation(10, 0), nil)
	require.NoError(t, err)
	defer rf.Close()

	_, err = rf.Write([]byte("first record\n"))
	require.NoError(t, err)
	_, err = rf.Write([]byte("second record\n"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no backups should be kept")

	active, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second record\n", string(active))
}

func TestTimeRotationAtBoundary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	now := time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	rf, err := newRotatingFile(path, config.RotationConfig{
		Type:     "time",
		When:     "midnight",
		Interval: 1,
		Backups:  3,
	}, clock)
	require.NoError(t, err)
	defer rf.Close()

	_, err = rf.Write([]byte("before midnight\n"))
	require.NoError(t, err)

	// Still the same day, no rotation regardless of size
	now = now.Add(30 * time.Second)
	_, err = rf.Write([]byte("still before\n"))
	require.NoError(t, err)
	_, err = os.Stat(backupName(path, 1))
	assert.True(t, os.IsNotExist(err))

	// Crossing midnight rotates
	now = now.Add(2 * time.Minute)
	_, err = rf.Write([]byte("after midnight\n"))
	require.NoError(t, err)

	active, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "after midnight\n", string(active))

	backup, err := os.ReadFile(backupName(path, 1))
	require.NoError(t, err)
	assert.Equal(t, "before midnight\nstill before\n", string(backup))
}

func TestTimeRotationHourlyInterval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	now := time.Date(2025, 3, 10, 10, 15, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	rf, err := newRotatingFile(path, config.RotationConfig{
		Type:     "time",
		When:     "hour",
		Interval: 6,
		Backups:  1,
	}, clock)
	require.NoError(t, err)
	defer rf.Close()

	_, err = rf.Write([]byte("one\n"))
	require.NoError(t, err)

	now = now.Add(3 * time.Hour)
	_, err = rf.Write([]byte("two\n"))
	require.NoError(t, err)
	_, err = os.Stat(backupName(path, 1))
	assert.True(t, os.IsNotExist(err), "inside the interval, no rotation")

	now = now.Add(4 * time.Hour) // past the 6h boundary from 10:00
	_, err = rf.Write([]byte("three\n"))
	require.NoError(t, err)

	active, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "three\n", string(active))
}

func TestNextBoundary(t *testing.T) {
	loc := time.UTC
	tests := []struct {
		name string
		rot  config.RotationConfig
		at   time.Time
		want time.Time
	}{
		{
			name: "midnight",
			rot:  config.RotationConfig{When: "midnight", Interval: 1},
			at:   time.Date(2025, 3, 10, 18, 30, 0, 0, loc),
			want: time.Date(2025, 3, 11, 0, 0, 0, 0, loc),
		},
		{
			name: "every_two_days",
			rot:  config.RotationConfig{When: "day", Interval: 2},
			at:   time.Date(2025, 3, 10, 18, 30, 0, 0, loc),
			want: time.Date(2025, 3, 12, 0, 0, 0, 0, loc),
		},
		{
			name: "hourly",
			rot:  config.RotationConfig{When: "hour", Interval: 1},
			at:   time.Date(2025, 3, 10, 18, 30, 0, 0, loc),
			want: time.Date(2025, 3, 10, 19, 0, 0, 0, loc),
		},
		{
			name: "zero_interval_treated_as_one",
			rot:  config.RotationConfig{When: "hour", Interval: 0},
			at:   time.Date(2025, 3, 10, 18, 30, 0, 0, loc),
			want: time.Date(2025, 3, 10, 19, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextBoundary(tt.at, tt.rot))
		})
	}
}

func TestRotatingFileResumesSizeAccounting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(path, []byte("preexisting content, 30 b..\n"), 0o644))

	rf, err := newRotatingFile(path, sizeRotation(40, 1), nil)
	require.NoError(t, err)
	defer rf.Close()

	// 28 existing bytes + 20 new ones exceed 40: rotate first
	_, err = rf.Write([]byte("fresh record, 20 b.\n"))
	require.NoError(t, err)

	active, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh record, 20 b.\n", string(active))
}
