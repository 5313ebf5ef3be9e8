package sink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/gaborage/go-logkit/config"
)

// File writes records to <dir>/<name>.log through a rotating writer.
// Serialization happens inside the rotating writer, so one mutex covers
// both writes and rotations.
type File struct {
	rf    *rotatingFile
	w     io.Writer
	path  string
	floor zerolog.Level
}

// FileOptions configures a file sink.
type FileOptions struct {
	// Dir is created if missing.
	Dir string
	// Name is the logger name; the active file is <Dir>/<Name>.log.
	Name string
	// Format selects text or json rendering. Defaults to text.
	Format string
	// Rotation policy for the active file.
	Rotation config.RotationConfig
	// Floor is the minimum level the sink accepts.
	Floor zerolog.Level
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// NewFile creates a file sink, creating the log directory when needed.
func NewFile(opts FileOptions) (*File, error) {
	SetupEncoding()

	if opts.Name == "" {
		return nil, fmt.Errorf("file sink requires a name")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(opts.Dir, opts.Name+".log")
	rf, err := newRotatingFile(path, opts.Rotation, opts.Clock)
	if err != nil {
		return nil, err
	}

	var w io.Writer = rf
	if opts.Format != FormatJSON {
		w = newTextWriter(rf, true)
	}

	return &File{rf: rf, w: w, path: path, floor: opts.Floor}, nil
}

// Kind implements Sink.
func (f *File) Kind() string {
	return "file"
}

// Floor implements Sink.
func (f *File) Floor() zerolog.Level {
	return f.floor
}

// WriteLevel implements Sink.
func (f *File) WriteLevel(_ zerolog.Level, line []byte) (int, error) {
	return f.w.Write(line)
}

// Close flushes nothing (writes are unbuffered) and closes the active file.
func (f *File) Close() error {
	return f.rf.Close()
}

// Path returns the active file path.
func (f *File) Path() string {
	return f.path
}
