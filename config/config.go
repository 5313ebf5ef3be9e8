package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigFile is the optional YAML file consulted between defaults and
// environment variables.
const DefaultConfigFile = "logkit.yaml"

// Default values applied when a setting is absent or unparseable.
const (
	DefaultLevel           = "info"
	DefaultFormat          = "text"
	DefaultDir             = "logs"
	DefaultRotationType    = "size"
	DefaultMaxSize         = int64(10 * 1024 * 1024)
	DefaultWhen            = "midnight"
	DefaultInterval        = 1
	DefaultBackups         = 5
	DefaultSlowThresholdMs = int64(500)
)

// envKind describes how an environment value is coerced before merging.
type envKind int

const (
	envString envKind = iota
	envBool
	envInt
)

type envBinding struct {
	path string
	kind envKind
}

// envBindings maps the documented LOG_* variable names (prefix stripped) to
// koanf paths. Variables outside this table are ignored.
var envBindings = map[string]envBinding{
	"LEVEL":             {"level", envString},
	"FORMAT":            {"format", envString},
	"TO_CONSOLE":        {"console.enabled", envBool},
	"CONSOLE_COLOR":     {"console.color", envBool},
	"TO_FILE":           {"file.enabled", envBool},
	"DIR":               {"file.dir", envString},
	"ROTATION_TYPE":     {"rotation.type", envString},
	"MAX_SIZE":          {"rotation.max_size", envInt},
	"ROTATION_WHEN":     {"rotation.when", envString},
	"ROTATION_INTERVAL": {"rotation.interval", envInt},
	"BACKUP_COUNT":      {"rotation.backups", envInt},
	"REQUEST_DETAILS":   {"http.request_details", envBool},
	"RESPONSE_DETAILS":  {"http.response_details", envBool},
	"REQUEST_HEADERS":   {"http.request_headers", envBool},
	"REQUEST_BODY":      {"http.request_body", envBool},
	"SLOW_REQUESTS":     {"http.slow_requests", envBool},
	"SLOW_THRESHOLD_MS": {"http.slow_threshold_ms", envInt},
}

// Default returns the built-in configuration, equivalent to loading with no
// file and no environment variables set.
func Default() Config {
	return Config{
		Level:   DefaultLevel,
		Format:  DefaultFormat,
		Console: ConsoleConfig{Enabled: true, Color: true},
		File:    FileConfig{Enabled: true, Dir: DefaultDir},
		Rotation: RotationConfig{
			Type:     DefaultRotationType,
			MaxSize:  DefaultMaxSize,
			When:     DefaultWhen,
			Interval: DefaultInterval,
			Backups:  DefaultBackups,
		},
		HTTP: HTTPConfig{
			RequestDetails:  true,
			ResponseDetails: true,
			SlowRequests:    true,
			SlowThresholdMs: DefaultSlowThresholdMs,
		},
	}
}

// Load loads the logging configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. The optional logkit.yaml file
// 3. Default values (lowest priority)
//
// Invalid values never abort startup: unparseable environment values are
// dropped at merge time and out-of-range or unknown enumerated values are
// resolved to their defaults by Normalize.
func Load() (*Config, error) {
	return LoadWithFile(DefaultConfigFile)
}

// LoadWithFile behaves like Load but reads the given YAML file instead of
// the default one. A missing file is not an error.
func LoadWithFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// YAML file is optional
	_ = k.Load(file.Provider(path), yaml.Parser())

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        "LOG_",
		TransformFunc: transformEnv,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return unmarshal(k)
}

// LoadFromYAML builds a configuration from raw YAML bytes merged over the
// defaults, for callers that embed their logging configuration.
func LoadFromYAML(b []byte) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(rawbytes.Provider(b), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	return unmarshal(k)
}

// LoadFromMap builds a configuration from an in-memory map merged over the
// defaults. Intended for tests and embedded use.
func LoadFromMap(values map[string]any) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load values: %w", err)
	}

	return unmarshal(k)
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Normalize(&cfg)

	return &cfg, nil
}

// transformEnv maps a raw LOG_* environment variable onto its koanf path and
// coerces the value. Unknown names and unparseable values are dropped so the
// configured default survives the merge.
func transformEnv(key, value string) (string, any) {
	name := strings.TrimPrefix(strings.ToUpper(key), "LOG_")

	binding, ok := envBindings[name]
	if !ok {
		return "", nil
	}

	switch binding.kind {
	case envBool:
		b, err := strconv.ParseBool(strings.ToLower(value))
		if err != nil {
			return "", nil
		}
		return binding.path, b
	case envInt:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return "", nil
		}
		return binding.path, n
	default:
		return binding.path, value
	}
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"level":  DefaultLevel,
		"format": DefaultFormat,

		"console.enabled": true,
		"console.color":   true,

		"file.enabled": true,
		"file.dir":     DefaultDir,

		"rotation.type":     DefaultRotationType,
		"rotation.max_size": DefaultMaxSize,
		"rotation.when":     DefaultWhen,
		"rotation.interval": DefaultInterval,
		"rotation.backups":  DefaultBackups,

		"http.request_details":   true,
		"http.response_details":  true,
		"http.request_headers":   false,
		"http.request_body":      false,
		"http.slow_requests":     true,
		"http.slow_threshold_ms": DefaultSlowThresholdMs,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
