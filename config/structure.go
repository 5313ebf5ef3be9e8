package config

import "time"

// Config is the complete logging configuration. It is populated once at
// startup by Load and passed by reference to every component that needs it;
// nothing reads the environment after that point.
type Config struct {
	Level    string         `koanf:"level"`
	Format   string         `koanf:"format"`
	Console  ConsoleConfig  `koanf:"console"`
	File     FileConfig     `koanf:"file"`
	Rotation RotationConfig `koanf:"rotation"`
	HTTP     HTTPConfig     `koanf:"http"`
}

// ConsoleConfig controls the console sink.
type ConsoleConfig struct {
	Enabled bool `koanf:"enabled"`
	Color   bool `koanf:"color"`
}

// FileConfig controls the per-logger file sinks.
type FileConfig struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`
}

// RotationConfig controls when the active log file rolls over and how many
// backups are retained.
type RotationConfig struct {
	Type     string `koanf:"type"`                               // "size" or "time"
	MaxSize  int64  `koanf:"max_size" validate:"gt=0"`           // bytes, size mode
	When     string `koanf:"when"`                               // "midnight", "hour" or "day"
	Interval int    `koanf:"interval" validate:"gte=1,lte=8760"` // boundary multiplier, time mode
	Backups  int    `koanf:"backups" validate:"gte=0,lte=1000"`
}

// HTTPConfig controls the request logging middleware.
type HTTPConfig struct {
	RequestDetails  bool  `koanf:"request_details"`
	ResponseDetails bool  `koanf:"response_details"`
	RequestHeaders  bool  `koanf:"request_headers"`
	RequestBody     bool  `koanf:"request_body"`
	SlowRequests    bool  `koanf:"slow_requests"`
	SlowThresholdMs int64 `koanf:"slow_threshold_ms" validate:"gte=0"`
}

// SlowThreshold returns the slow-request latency threshold as a duration.
func (h HTTPConfig) SlowThreshold() time.Duration {
	return time.Duration(h.SlowThresholdMs) * time.Millisecond
}
