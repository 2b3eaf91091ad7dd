package adaptergw

import "context"

type requestIDKey struct{}

// RequestIDHeader carries the request ID on inbound and outbound calls
const RequestIDHeader = "X-Request-ID"

// WithRequestID returns a context carrying the inbound request's ID
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request ID stored by [WithRequestID], or ""
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
