package sink

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/trace"
)

// OTel forwards encoded records to an OpenTelemetry log provider, so file
// and console output can be mirrored to a collector without a second logging
// path. It is only constructed when the host application supplies a
// provider; it is never configured from the environment.
type OTel struct {
	logger otellog.Logger
	floor  zerolog.Level
}

// NewOTel creates an OTel sink. Returns nil when provider is nil.
func NewOTel(provider *sdklog.LoggerProvider, floor zerolog.Level) *OTel {
	if provider == nil {
		return nil
	}
	SetupEncoding()
	return &OTel{
		logger: provider.Logger("go-logkit"),
		floor:  floor,
	}
}

// Kind implements Sink.
func (o *OTel) Kind() string {
	return "otel"
}

// Floor implements Sink.
func (o *OTel) Floor() zerolog.Level {
	return o.floor
}

// WriteLevel implements Sink. Malformed lines are dropped silently; the
// other sinks still carry the record.
func (o *OTel) WriteLevel(_ zerolog.Level, line []byte) (int, error) {
	var entry map[string]any
	if err := json.Unmarshal(line, &entry); err != nil {
		return len(line), nil
	}

	rec, ctx := buildLogRecord(entry)
	o.logger.Emit(ctx, rec)

	return len(line), nil
}

// Close implements Sink. Provider shutdown belongs to the caller that
// created it.
func (o *OTel) Close() error {
	return nil
}

func buildLogRecord(entry map[string]any) (otellog.Record, context.Context) {
	var rec otellog.Record

	ctx := context.Background()
	if spanCtx, ok := extractSpanContext(entry); ok {
		ctx = trace.ContextWithSpanContext(ctx, spanCtx)
	}

	if ts, ok := entry[TimestampField].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			rec.SetTimestamp(t)
		}
	}
	if level, ok := entry[LevelField].(string); ok {
		rec.SetSeverity(mapSeverity(level))
		rec.SetSeverityText(level)
	}
	if msg, ok := entry[MessageField].(string); ok {
		rec.SetBody(otellog.StringValue(msg))
	}

	attrs := make([]otellog.KeyValue, 0, len(entry))
	for k, v := range entry {
		if k == TimestampField || k == LevelField || k == MessageField {
			continue
		}
		attrs = append(attrs, otellog.KeyValue{Key: k, Value: toLogValue(v)})
	}
	if len(attrs) > 0 {
		rec.AddAttributes(attrs...)
	}

	return rec, ctx
}

func extractSpanContext(entry map[string]any) (trace.SpanContext, bool) {
	traceIDStr, ok := entry["trace_id"].(string)
	if !ok {
		return trace.SpanContext{}, false
	}
	spanIDStr, ok := entry["span_id"].(string)
	if !ok {
		return trace.SpanContext{}, false
	}

	traceID, err := trace.TraceIDFromHex(traceIDStr)
	if err != nil {
		return trace.SpanContext{}, false
	}
	spanID, err := trace.SpanIDFromHex(spanIDStr)
	if err != nil {
		return trace.SpanContext{}, false
	}

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
		Remote:  true,
	})
	return sc, sc.IsValid()
}

// mapSeverity maps record levels to OpenTelemetry severities.
func mapSeverity(level string) otellog.Severity {
	switch level {
	case "trace":
		return otellog.SeverityTrace
	case "debug":
		return otellog.SeverityDebug
	case "info":
		return otellog.SeverityInfo
	case "warn", "warning":
		return otellog.SeverityWarn
	case "error":
		return otellog.SeverityError
	case "critical", "fatal", "panic":
		return otellog.SeverityFatal
	default:
		return otellog.SeverityInfo
	}
}

// toLogValue converts a decoded JSON value to an OpenTelemetry log value.
func toLogValue(v any) otellog.Value {
	switch val := v.(type) {
	case nil:
		return otellog.StringValue("")
	case string:
		return otellog.StringValue(val)
	case float64:
		return otellog.Float64Value(val)
	case bool:
		return otellog.BoolValue(val)
	case []any:
		slice := make([]otellog.Value, len(val))
		for i, item := range val {
			slice[i] = toLogValue(item)
		}
		return otellog.SliceValue(slice...)
	case map[string]any:
		kvs := make([]otellog.KeyValue, 0, len(val))
		for k, item := range val {
			kvs = append(kvs, otellog.KeyValue{Key: k, Value: toLogValue(item)})
		}
		return otellog.MapValue(kvs...)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return otellog.StringValue("")
		}
		return otellog.StringValue(string(b))
	}
}
