package sink

import (
	"sync"

	"github.com/rs/zerolog"
)

// Wire schema of an encoded record: one JSON document per line with these
// reserved fields, plus the flattened context keys. External log-analysis
// pipelines consume this schema, so the names are stable.
const (
	TimestampField = "timestamp"
	LevelField     = "level"
	LoggerField    = "logger"
	MessageField   = "message"
)

var encodingOnce sync.Once

// SetupEncoding points zerolog's global field names and level tokens at the
// wire schema. Sink constructors call it so renderers and parsers always
// agree with the encoder; it is safe to call from multiple goroutines.
func SetupEncoding() {
	encodingOnce.Do(func() {
		zerolog.TimestampFieldName = TimestampField
		zerolog.LevelFieldName = LevelField
		zerolog.MessageFieldName = MessageField
		zerolog.LevelFieldMarshalFunc = func(l zerolog.Level) string {
			switch l {
			case zerolog.WarnLevel:
				return "warning"
			case zerolog.FatalLevel:
				return "critical"
			default:
				return l.String()
			}
		}
	})
}
