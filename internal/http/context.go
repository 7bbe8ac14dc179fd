package http

import "context"

type contextKey string

const (
	requestIDContextKey contextKey = "dictionary/request-id"
	sessionContextKey   contextKey = "dictionary/session"
)

// RequestIDFromContext extracts the request identifier from the context when available.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(requestIDContextKey).(string); ok {
		return value
	}
	return ""
}

func sessionFromContext(ctx context.Context) *session {
	if ctx == nil {
		return nil
	}
	if value, ok := ctx.Value(sessionContextKey).(*session); ok {
		return value
	}
	return nil
}
