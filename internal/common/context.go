package common

import (
	"context"
	"log/slog"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyCaseID    contextKey = "case_id"
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

func WithCaseID(ctx context.Context, caseID string) context.Context {
	return context.WithValue(ctx, ContextKeyCaseID, caseID)
}

func CaseIDFromContext(ctx context.Context) string {
	if caseID, ok := ctx.Value(ContextKeyCaseID).(string); ok {
		return caseID
	}
	return ""
}

// LoggerFrom decorates logger with the request and case ids carried by ctx.
func LoggerFrom(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if rid := RequestIDFromContext(ctx); rid != "" {
		logger = logger.With("req_id", rid)
	}
	if cid := CaseIDFromContext(ctx); cid != "" {
		logger = logger.With("case_id", cid)
	}
	return logger
}
