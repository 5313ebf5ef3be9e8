package sink

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gaborage/go-logkit/config"
)

// rotatingFile is an append-only file that rolls over per the configured
// rotation policy. All writes and rotations happen under one mutex, so a
// record can never be split across files and no write can land mid-rotation.
//
// Backups carry numeric suffixes: <path>.1 is the most recent, <path>.K the
// oldest. Rotation shifts every backup by one and evicts the one past the
// retained count.
type rotatingFile struct {
	mu   sync.Mutex
	path string
	rot  config.RotationConfig
	now  func() time.Time

	file *os.File
	size int64
	next time.Time // next boundary, time mode only
}

func newRotatingFile(path string, rot config.RotationConfig, now func() time.Time) (*rotatingFile, error) {
	if now == nil {
		now = time.Now
	}

	rf := &rotatingFile{
		path: path,
		rot:  rot,
		now:  now,
	}
	if err := rf.open(); err != nil {
		return nil, err
	}
	if rot.Type == "time" {
		rf.next = nextBoundary(now(), rot)
	}
	return rf, nil
}

// Write appends one record, rotating first when the policy demands it. A
// failed rotation does not lose the record: it is appended to the old file.
func (rf *rotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.shouldRotate(int64(len(p))) {
		if err := rf.rotate(); err != nil {
			n, werr := rf.file.Write(p)
			rf.size += int64(n)
			if werr != nil {
				return n, werr
			}
			return n, err
		}
	}

	n, err := rf.file.Write(p)
	rf.size += int64(n)
	return n, err
}

func (rf *rotatingFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	if rf.file == nil {
		return nil
	}
	err := rf.file.Close()
	rf.file = nil
	return err
}

func (rf *rotatingFile) shouldRotate(incoming int64) bool {
	switch rf.rot.Type {
	case "time":
		return !rf.now().Before(rf.next)
	default: // size
		return rf.size > 0 && rf.size+incoming > rf.rot.MaxSize
	}
}

// rotate closes the active file, shifts the retained backups by one and
// opens a fresh file. Called with the mutex held.
func (rf *rotatingFile) rotate() error {
	if err := rf.file.Close(); err != nil {
		return fmt.Errorf("failed to close active log file: %w", err)
	}

	rf.shiftBackups()

	if err := rf.open(); err != nil {
		return err
	}
	if rf.rot.Type == "time" {
		rf.next = nextBoundary(rf.now(), rf.rot)
	}
	return nil
}

// shiftBackups renames <path>.i to <path>.i+1 for every retained backup,
// drops the one past the retained count and moves the closed active file to
// <path>.1. With zero backups the closed file is simply removed.
func (rf *rotatingFile) shiftBackups() {
	if rf.rot.Backups <= 0 {
		_ = os.Remove(rf.path)
		return
	}

	_ = os.Remove(backupName(rf.path, rf.rot.Backups))
	for i := rf.rot.Backups - 1; i >= 1; i-- {
		_ = os.Rename(backupName(rf.path, i), backupName(rf.path, i+1))
	}
	_ = os.Rename(rf.path, backupName(rf.path, 1))
}

func (rf *rotatingFile) open() error {
	f, err := os.OpenFile(rf.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}

	rf.file = f
	rf.size = info.Size()
	return nil
}

func backupName(path string, n int) string {
	return fmt.Sprintf("%s.%d", path, n)
}

// nextBoundary computes the next time-mode rotation instant after t.
func nextBoundary(t time.Time, rot config.RotationConfig) time.Time {
	interval := rot.Interval
	if interval < 1 {
		interval = 1
	}

	switch rot.When {
	case "midnight":
		year, month, day := t.Date()
		return time.Date(year, month, day, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
	case "day":
		year, month, day := t.Date()
		return time.Date(year, month, day, 0, 0, 0, 0, t.Location()).AddDate(0, 0, interval)
	default: // hour
		return t.Truncate(time.Hour).Add(time.Duration(interval) * time.Hour)
	}
}
