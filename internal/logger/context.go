package logger

import "context"

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// threadIDKey is the context key for the conversation thread ID.
var threadIDKey = contextKey{}

// WithThreadID returns a new context with the given thread ID stored.
func WithThreadID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, threadIDKey, id)
}

// ThreadID extracts the thread ID from the context.
// Returns an empty string if no thread ID is set.
func ThreadID(ctx context.Context) string {
	id, _ := ctx.Value(threadIDKey).(string)
	return id
}
