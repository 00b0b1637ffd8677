package logging

import (
	"context"
	"log/slog"

	"beatframe/internal/services"
)

// Structured field keys shared by every beatframe package.
const (
	FieldComponent       = "component"
	FieldSessionID       = "session_id"
	FieldStage           = "stage"
	FieldCorrelationID   = "correlation_id"
	FieldEventType       = "event_type"
	FieldErrorHint       = "error_hint"
	FieldImpact          = "impact"
	FieldProgressPercent = "progress_percent"
	FieldPath            = "path"
	FieldError           = "error"
)

// contextKeys maps context lookups onto field keys, in output order.
var contextKeys = []struct {
	key    string
	lookup func(context.Context) (string, bool)
}{
	{FieldSessionID, services.SessionIDFromContext},
	{FieldStage, services.StageFromContext},
	{FieldCorrelationID, services.RequestIDFromContext},
}

// ContextFields returns the session, stage and preview request identifiers
// stored on ctx.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	for _, ck := range contextKeys {
		if v, ok := ck.lookup(ctx); ok {
			fields = append(fields, slog.String(ck.key, v))
		}
	}
	return fields
}

// WithContext returns logger tagged with ContextFields(ctx).
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if fields := ContextFields(ctx); len(fields) > 0 {
		return logger.With(Args(fields...)...)
	}
	return logger
}
