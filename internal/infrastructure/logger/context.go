package logger

import "context"

type contextKey string

// RequestIDKey carries the request id through a context so SQL traces can
// be correlated with the HTTP request that issued them.
const RequestIDKey contextKey = "request_id"

// WithRequestID returns a context carrying the request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID returns the request id carried by ctx, or empty.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
