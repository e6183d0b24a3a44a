package services

import "context"

type contextKey string

const (
	streamerKey  contextKey = "streamer"
	cycleKey     contextKey = "cycle_id"
	stageKey     contextKey = "stage"
	requestIDKey contextKey = "request_id"
)

// WithStreamer annotates context with the roster entry being processed.
func WithStreamer(ctx context.Context, streamer string) context.Context {
	if streamer == "" {
		return ctx
	}
	return context.WithValue(ctx, streamerKey, streamer)
}

// StreamerFromContext returns the streamer login if present.
func StreamerFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(streamerKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithCycleID annotates context with the poll cycle identifier.
func WithCycleID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, cycleKey, id)
}

// CycleIDFromContext returns the poll cycle identifier if present.
func CycleIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(cycleKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
