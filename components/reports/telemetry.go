package reports

import (
	"context"

	"github.com/rs/zerolog"
)

// Telemetry records builder events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// ZerologTelemetry writes one structured log line per event.
type ZerologTelemetry struct {
	logger zerolog.Logger
	level  zerolog.Level
}

// NewZerologTelemetry logs events at info level on logger.
func NewZerologTelemetry(logger zerolog.Logger) *ZerologTelemetry {
	return &ZerologTelemetry{logger: logger, level: zerolog.InfoLevel}
}

// WithLevel returns a copy that logs at level.
func (z *ZerologTelemetry) WithLevel(level zerolog.Level) *ZerologTelemetry {
	cp := *z
	cp.level = level
	return &cp
}

// Record implements Telemetry. A logger attached to ctx takes precedence.
func (z *ZerologTelemetry) Record(ctx context.Context, event string, payload map[string]any) {
	logger := &z.logger
	if ctxLogger := zerolog.Ctx(ctx); ctxLogger != nil && ctxLogger.GetLevel() != zerolog.Disabled {
		logger = ctxLogger
	}
	logger.WithLevel(z.level).
		Str("event", event).
		Fields(payload).
		Msg("reports telemetry")
}
