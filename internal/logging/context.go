package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

type contextKey string

const (
	loggerKey  contextKey = "logger"
	traceIDKey contextKey = "trace_id"
)

// GenerateTraceID generates a new trace ID
func GenerateTraceID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// FromContext retrieves the logger from context
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	return Default()
}

// NewContext creates a new context with the logger
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// WithTraceContext adds a trace ID to the context and returns a logger with it
func WithTraceContext(ctx context.Context) (context.Context, *Logger) {
	traceID := GenerateTraceID()
	l := Default().WithTraceID(traceID)
	newCtx := context.WithValue(ctx, traceIDKey, traceID)
	newCtx = context.WithValue(newCtx, loggerKey, l)
	return newCtx, l
}

// PipelineContext creates a logger context for a signal pipeline run
func PipelineContext(userID, runID, asset string) *Logger {
	return Default().WithFields(map[string]interface{}{
		"user_id": userID,
		"run_id":  runID,
		"asset":   asset,
	}).WithComponent("pipeline")
}

// ResearchContext creates a logger context for a research stage call
func ResearchContext(asset, technique string) *Logger {
	return Default().WithFields(map[string]interface{}{
		"asset":     asset,
		"technique": technique,
	}).WithComponent("research")
}

// ConsensusContext creates a logger context for the consensus stage
func ConsensusContext(asset, persona string) *Logger {
	return Default().WithFields(map[string]interface{}{
		"asset":   asset,
		"persona": persona,
	}).WithComponent("consensus")
}

// StorageContext creates a logger context for repository operations
func StorageContext(operation, table string) *Logger {
	return Default().WithFields(map[string]interface{}{
		"operation": operation,
		"table":     table,
	}).WithComponent("storage")
}

// WebhookContext creates a logger context for webhook deliveries
func WebhookContext(url string) *Logger {
	return Default().WithFields(map[string]interface{}{
		"url": url,
	}).WithComponent("webhook")
}

// ChatContext creates a logger context for assistant chat sessions
func ChatContext(userID, sessionID string) *Logger {
	return Default().WithFields(map[string]interface{}{
		"user_id":    userID,
		"session_id": sessionID,
	}).WithComponent("chat")
}
