package sink

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// FormatText renders human-readable single lines, FormatJSON passes the
// encoded record through untouched (one JSON document per line).
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ANSI color codes keyed to level, applied only on interactive consoles.
var levelColors = map[string]int{
	"debug":    36, // cyan
	"info":     32, // green
	"warning":  33, // yellow
	"error":    31, // red
	"critical": 41, // red background
}

// Console writes records to a terminal or any io.Writer. Writes are
// serialized so concurrent records never interleave partial lines.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	floor zerolog.Level
}

// ConsoleOptions configures a console sink.
type ConsoleOptions struct {
	// Format selects text or json rendering. Defaults to text.
	Format string
	// Color enables ANSI colors in text mode. It only takes effect when
	// Out is an interactive terminal.
	Color bool
	// Floor is the minimum level the sink accepts.
	Floor zerolog.Level
	// Out defaults to os.Stdout.
	Out io.Writer
}

// NewConsole creates a console sink.
func NewConsole(opts ConsoleOptions) *Console {
	SetupEncoding()

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	w := out
	if opts.Format != FormatJSON {
		noColor := !(opts.Color && isInteractive(out))
		w = newTextWriter(out, noColor)
	}

	return &Console{w: w, floor: opts.Floor}
}

// Kind implements Sink.
func (c *Console) Kind() string {
	return "console"
}

// Floor implements Sink.
func (c *Console) Floor() zerolog.Level {
	return c.floor
}

// WriteLevel implements Sink.
func (c *Console) WriteLevel(_ zerolog.Level, line []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.Write(line)
}

// Close implements Sink. The console sink does not own its writer, so there
// is nothing to release.
func (c *Console) Close() error {
	return nil
}

// isInteractive reports whether the writer is a terminal.
func isInteractive(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// newTextWriter builds the zerolog console renderer used for text output,
// shared by the console sink and text-mode file sinks.
func newTextWriter(out io.Writer, noColor bool) io.Writer {
	return zerolog.ConsoleWriter{
		Out:         out,
		NoColor:     noColor,
		TimeFormat:  time.RFC3339,
		FormatLevel: formatLevel(noColor),
	}
}

// formatLevel renders the level token, colored when the destination is an
// interactive console.
func formatLevel(noColor bool) zerolog.Formatter {
	return func(i any) string {
		ll, ok := i.(string)
		if !ok || ll == "" {
			return "???"
		}
		token := strings.ToUpper(ll)
		if noColor {
			return token
		}
		if code, ok := levelColors[ll]; ok {
			return fmt.Sprintf("\x1b[%dm%s\x1b[0m", code, token)
		}
		return token
	}
}
