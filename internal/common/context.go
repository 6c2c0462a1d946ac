package common

import (
	"context"
	"time"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID  contextKey = "request_id"
	ContextKeySubjectRef contextKey = "subject_ref"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithSubjectRef adds a subject reference to the context
func WithSubjectRef(ctx context.Context, subjectRef string) context.Context {
	return context.WithValue(ctx, ContextKeySubjectRef, subjectRef)
}

// SubjectRefFromContext extracts the subject reference from context
func SubjectRefFromContext(ctx context.Context) string {
	if subjectRef, ok := ctx.Value(ContextKeySubjectRef).(string); ok {
		return subjectRef
	}
	return ""
}

// WithTimeout creates a context with the specified timeout
func WithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}
