package activitylog

import (
	"context"
)

// metaKey is an unexported context key type.
type metaKey struct{}
type skipKey struct{}

// WithCauser attaches the identifier of whoever caused the change.
func WithCauser(ctx context.Context, v string) context.Context {
	m := extractMeta(ctx)
	m.causer = v
	return context.WithValue(ctx, metaKey{}, m)
}

// WithTraceID attaches a trace identifier.
func WithTraceID(ctx context.Context, v string) context.Context {
	m := extractMeta(ctx)
	m.traceID = v
	return context.WithValue(ctx, metaKey{}, m)
}

// WithReason attaches a human-readable reason for the change.
func WithReason(ctx context.Context, v string) context.Context {
	m := extractMeta(ctx)
	m.reason = v
	return context.WithValue(ctx, metaKey{}, m)
}

// WithoutLogging marks the context so no entries are produced for mutations run with it.
func WithoutLogging(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipKey{}, true)
}

// LoggingDisabled reports whether ctx was marked with WithoutLogging.
func LoggingDisabled(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	if v, ok := ctx.Value(skipKey{}).(bool); ok {
		return v
	}
	return false
}

// extractMeta extracts metadata from context.
func extractMeta(ctx context.Context) meta {
	if ctx == nil {
		return meta{}
	}
	if v := ctx.Value(metaKey{}); v != nil {
		if m, ok := v.(meta); ok {
			return m
		}
	}
	return meta{}
}
