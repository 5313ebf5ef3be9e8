// Package logger provides filtering capabilities for sensitive data in log output.
package logger

import (
	"net/url"
	"reflect"
	"strings"
)

const (
	// DefaultMaskValue replaces sensitive values in log output.
	DefaultMaskValue = "***"
	// DefaultMaxDepth limits recursion into nested maps, slices and structs.
	DefaultMaxDepth = 8
)

// FilterConfig defines the configuration for sensitive data filtering.
type FilterConfig struct {
	// SensitiveFields contains field name fragments that should be masked.
	// Matching is case-insensitive and by substring.
	SensitiveFields []string
	// MaskValue is the value used to replace sensitive data (default: "***").
	MaskValue string
}

// DefaultFilterConfig returns a configuration covering common credential
// field names.
func DefaultFilterConfig() *FilterConfig {
	return &FilterConfig{
		SensitiveFields: []string{
			"password", "passwd", "pwd",
			"secret", "api_key", "apikey",
			"token", "access_token", "refresh_token",
			"auth", "authorization",
			"credential", "credentials",
			"cookie", "session",
			"database_url", "db_url",
		},
		MaskValue: DefaultMaskValue,
	}
}

// SensitiveDataFilter masks credential-bearing fields before they reach a
// sink. It is applied to string and interface fields on individual events and
// to field maps bound with WithFields.
type SensitiveDataFilter struct {
	config *FilterConfig
}

// NewSensitiveDataFilter creates a new filter with the given configuration.
func NewSensitiveDataFilter(config *FilterConfig) *SensitiveDataFilter {
	if config == nil {
		config = DefaultFilterConfig()
	}
	if config.MaskValue == "" {
		config.MaskValue = DefaultMaskValue
	}
	return &SensitiveDataFilter{config: config}
}

// FilterString masks the value when the key names a sensitive field.
func (f *SensitiveDataFilter) FilterString(key, value string) string {
	if f.isSensitiveField(key) {
		return f.maskString(value)
	}
	return value
}

// FilterValue filters sensitive data from arbitrary values, recursing into
// maps, slices and structs up to DefaultMaxDepth.
func (f *SensitiveDataFilter) FilterValue(key string, value any) any {
	return f.filter(key, value, DefaultMaxDepth)
}

// FilterFields filters a map of fields for sensitive data.
func (f *SensitiveDataFilter) FilterFields(fields map[string]any) map[string]any {
	filtered := make(map[string]any, len(fields))
	for key, value := range fields {
		filtered[key] = f.FilterValue(key, value)
	}
	return filtered
}

func (f *SensitiveDataFilter) filter(key string, value any, depth int) any {
	if f.isSensitiveField(key) {
		if s, ok := value.(string); ok {
			return f.maskString(s)
		}
		return f.config.MaskValue
	}
	if value == nil || depth <= 0 {
		return value
	}

	if m, ok := value.(map[string]any); ok {
		return f.filterMap(m, depth)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return f.filterSlice(key, rv, depth)
	case reflect.Struct:
		return f.filterStruct(rv, depth)
	case reflect.Pointer:
		if !rv.IsNil() && rv.Elem().Kind() == reflect.Struct {
			return f.filterStruct(rv.Elem(), depth)
		}
		return value
	default:
		return value
	}
}

func (f *SensitiveDataFilter) filterMap(m map[string]any, depth int) map[string]any {
	filtered := make(map[string]any, len(m))
	for k, v := range m {
		filtered[k] = f.filter(k, v, depth-1)
	}
	return filtered
}

func (f *SensitiveDataFilter) filterSlice(key string, rv reflect.Value, depth int) any {
	filtered := make([]any, rv.Len())
	changed := false
	for i := range rv.Len() {
		elem := rv.Index(i).Interface()
		out := f.filter(key, elem, depth-1)
		if !reflect.DeepEqual(out, elem) {
			changed = true
		}
		filtered[i] = out
	}
	// Preserve the original slice type when nothing was masked.
	if !changed {
		return rv.Interface()
	}
	return filtered
}

// filterStruct renders a struct as a field map, masking sensitive members.
// Field names follow json tags when present.
func (f *SensitiveDataFilter) filterStruct(rv reflect.Value, depth int) map[string]any {
	rt := rv.Type()
	result := make(map[string]any, rt.NumField())
	for i := range rt.NumField() {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name := fieldName(&field)
		if name == "" {
			continue
		}
		result[name] = f.filter(name, rv.Field(i).Interface(), depth-1)
	}
	return result
}

func (f *SensitiveDataFilter) isSensitiveField(fieldName string) bool {
	lower := strings.ToLower(fieldName)
	for _, sensitive := range f.config.SensitiveFields {
		if strings.Contains(lower, strings.ToLower(sensitive)) {
			return true
		}
	}
	return false
}

// maskString replaces sensitive values entirely, except URLs where only the
// password component is masked so the record still identifies the endpoint.
func (f *SensitiveDataFilter) maskString(value string) string {
	if value == "" {
		return value
	}
	if isURL(value) {
		return f.maskURL(value)
	}
	return f.config.MaskValue
}

func isURL(value string) bool {
	for _, scheme := range []string{"http://", "https://", "amqp://", "amqps://", "postgres://", "postgresql://"} {
		if strings.HasPrefix(value, scheme) {
			return true
		}
	}
	return false
}

func (f *SensitiveDataFilter) maskURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return f.config.MaskValue
	}
	if parsed.User == nil {
		return raw
	}
	if _, hasPassword := parsed.User.Password(); !hasPassword {
		return raw
	}
	parsed.User = url.UserPassword(parsed.User.Username(), f.config.MaskValue)
	return parsed.String()
}

// fieldName resolves the log field name for a struct member, preferring json
// tags. An empty result means the field is skipped.
func fieldName(field *reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	if tag == "" {
		return field.Name
	}
	if idx := strings.Index(tag, ","); idx != -1 {
		tag = tag[:idx]
	}
	if tag == "" {
		return field.Name
	}
	return tag
}
