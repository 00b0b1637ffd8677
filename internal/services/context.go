package services

import "context"

// ctxKey namespaces the values beatframe stores on a context.
type ctxKey uint8

const (
	sessionIDKey ctxKey = iota
	stageKey
	requestIDKey
)

func withValue(ctx context.Context, key ctxKey, v string) context.Context {
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func value(ctx context.Context, key ctxKey) (string, bool) {
	v, _ := ctx.Value(key).(string)
	return v, v != ""
}

// WithSessionID tags ctx with the slideshow session a command is working on.
func WithSessionID(ctx context.Context, id string) context.Context {
	return withValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext returns the session identifier, if any.
func SessionIDFromContext(ctx context.Context) (string, bool) { return value(ctx, sessionIDKey) }

// WithStage tags ctx with the pipeline stage (analyze, plan, export,
// archive). An empty stage leaves the current one in place.
func WithStage(ctx context.Context, stage string) context.Context {
	return withValue(ctx, stageKey, stage)
}

// StageFromContext returns the pipeline stage, if any.
func StageFromContext(ctx context.Context) (string, bool) { return value(ctx, stageKey) }

// WithRequestID tags ctx with a preview HTTP request identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the preview request identifier, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) { return value(ctx, requestIDKey) }
