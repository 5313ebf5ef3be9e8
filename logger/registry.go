package logger

import (
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"golang.org/x/sync/singleflight"

	"github.com/gaborage/go-logkit/config"
	"github.com/gaborage/go-logkit/sink"
)

// Well-known logger names. Each name gets its own file (<dir>/<name>.log)
// while sharing the console and telemetry destinations.
const (
	NameGeneral  = "app"
	NameDatabase = "db"
	NameAPI      = "api"
	NameService  = "service"
)

// Registry creates and caches named loggers. Loggers are created lazily on
// first use, and repeated Get calls for the same name return the same
// instance. A file sink that cannot be opened degrades that logger to the
// shared destinations instead of failing the caller.
type Registry struct {
	cfg     *config.Config
	console *sink.Console
	otel    *sink.OTel

	mu       sync.RWMutex
	loggers  map[string]*ZeroLogger
	managers map[string]*sink.Manager

	// Singleflight for concurrent initialization
	sfg singleflight.Group
}

// Option customizes a Registry.
type Option func(*Registry)

// WithOTelProvider mirrors every record to an OpenTelemetry log provider in
// addition to the configured sinks. The provider's lifecycle stays with the
// caller.
func WithOTelProvider(provider *sdklog.LoggerProvider) Option {
	return func(r *Registry) {
		r.otel = sink.NewOTel(provider, zerolog.TraceLevel)
	}
}

// NewRegistry creates a registry over the given configuration. Shared sinks
// (console, telemetry) are built once here; file sinks are per logger name
// and open lazily.
func NewRegistry(cfg *config.Config, opts ...Option) *Registry {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}

	r := &Registry{
		cfg:      cfg,
		loggers:  make(map[string]*ZeroLogger),
		managers: make(map[string]*sink.Manager),
	}
	if cfg.Console.Enabled {
		r.console = sink.NewConsole(sink.ConsoleOptions{
			Format: cfg.Format,
			Color:  cfg.Console.Color,
			Floor:  zerolog.TraceLevel,
		})
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the logger for name, creating it on first use. Concurrent
// first calls for the same name produce a single logger.
func (r *Registry) Get(name string) *ZeroLogger {
	if l := r.getExisting(name); l != nil {
		return l
	}

	result, _, _ := r.sfg.Do(name, func() (any, error) {
		// Double-check after acquiring singleflight lock
		if l := r.getExisting(name); l != nil {
			return l, nil
		}
		return r.create(name), nil
	})
	return result.(*ZeroLogger)
}

// General returns the application-wide logger.
func (r *Registry) General() *ZeroLogger { return r.Get(NameGeneral) }

// Database returns the logger for persistence-layer events.
func (r *Registry) Database() *ZeroLogger { return r.Get(NameDatabase) }

// API returns the logger used by HTTP request middleware.
func (r *Registry) API() *ZeroLogger { return r.Get(NameAPI) }

// Service returns the logger for business-logic events.
func (r *Registry) Service() *ZeroLogger { return r.Get(NameService) }

func (r *Registry) getExisting(name string) *ZeroLogger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loggers[name]
}

func (r *Registry) create(name string) *ZeroLogger {
	sinks := make([]sink.Sink, 0, 3)
	if r.console != nil {
		sinks = append(sinks, r.console)
	}
	if r.cfg.File.Enabled {
		f, err := sink.NewFile(sink.FileOptions{
			Dir:      r.cfg.File.Dir,
			Name:     name,
			Format:   r.cfg.Format,
			Rotation: r.cfg.Rotation,
			Floor:    zerolog.TraceLevel,
		})
		if err != nil {
			// Degrade to the shared sinks; the application keeps logging.
			fmt.Fprintf(os.Stderr, "logkit: file sink for %q unavailable, using console only: %v\n", name, err)
		} else {
			sinks = append(sinks, f)
		}
	}
	if r.otel != nil {
		sinks = append(sinks, r.otel)
	}

	manager := sink.NewManager(sinks...)
	l := New(name, r.cfg.Level, manager)

	r.mu.Lock()
	r.loggers[name] = l
	r.managers[name] = manager
	r.mu.Unlock()
	return l
}

// Close closes every file sink opened by the registry. Shared sinks have
// no-op closers, so closing the managers in sequence is safe.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, m := range r.managers {
		if err := m.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	r.loggers = make(map[string]*ZeroLogger)
	r.managers = make(map[string]*sink.Manager)
	if len(errs) > 0 {
		return fmt.Errorf("errors closing loggers: %v", errs)
	}
	return nil
}
