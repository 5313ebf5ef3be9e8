// Package config loads and validates the logging configuration.
// Validation is deliberately forgiving: a bad value resolves to its default
// so that logging misconfiguration can never take the host application down.
package config

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var (
	validLevels        = []string{"debug", "info", "warn", "warning", "error", "critical"}
	validFormats       = []string{"text", "json"}
	validRotationTypes = []string{"size", "time"}
	validWhens         = []string{"midnight", "hour", "day"}
)

// Normalize resolves invalid enumerated and out-of-range values to their
// documented defaults. It never fails.
func Normalize(cfg *Config) {
	cfg.Level = normalizeEnum(cfg.Level, DefaultLevel, validLevels)
	cfg.Format = normalizeEnum(cfg.Format, DefaultFormat, validFormats)
	cfg.Rotation.Type = normalizeEnum(cfg.Rotation.Type, DefaultRotationType, validRotationTypes)
	cfg.Rotation.When = normalizeEnum(cfg.Rotation.When, DefaultWhen, validWhens)

	if strings.TrimSpace(cfg.File.Dir) == "" {
		cfg.File.Dir = DefaultDir
	}

	applyRangeDefaults(cfg)
}

// applyRangeDefaults runs the struct validation rules and resets every
// offending field to its default instead of reporting an error.
func applyRangeDefaults(cfg *Config) {
	err := validate.Struct(cfg)
	if err == nil {
		return
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return
	}

	for _, fe := range fieldErrs {
		switch fe.Namespace() {
		case "Config.Rotation.MaxSize":
			cfg.Rotation.MaxSize = DefaultMaxSize
		case "Config.Rotation.Interval":
			cfg.Rotation.Interval = DefaultInterval
		case "Config.Rotation.Backups":
			cfg.Rotation.Backups = DefaultBackups
		case "Config.HTTP.SlowThresholdMs":
			cfg.HTTP.SlowThresholdMs = DefaultSlowThresholdMs
		}
	}
}

func normalizeEnum(value, fallback string, allowed []string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return fallback
}
