package shared

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"
)

// Key type for context values
type ContextKey string

// Context keys for various values
const (
	// SubjectContextKey holds the authenticated subject (ssuuid).
	SubjectContextKey ContextKey = "subject"

	// TokenContextKey holds the bearer token the session was checked against.
	TokenContextKey ContextKey = "accessToken"

	// principalSlotKey holds a *principalSlot shared by outer middleware.
	principalSlotKey ContextKey = "principalSlot"

	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"

	// TraceIDLength is the number of bytes used to generate the trace ID
	TraceIDLength = 16 // 32 hex characters

	// RequestIDHeader carries a caller-supplied trace ID.
	RequestIDHeader = "X-Request-Id"

	maxTraceIDLength = 128
)

// SetTraceID adds a freshly generated trace ID to the context.
func SetTraceID(ctx context.Context) context.Context {
	return WithTraceID(ctx, generateTraceID())
}

// WithTraceID stores traceID in the context. Empty or oversized values are
// replaced by a generated ID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" || len(traceID) > maxTraceIDLength {
		traceID = generateTraceID()
	}
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// GetSubject returns the authenticated subject, if any.
func GetSubject(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(SubjectContextKey).(string)
	return subject, ok && subject != ""
}

// GetToken returns the bearer token of the current session, if any.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenContextKey).(string)
	return token, ok && token != ""
}

type principalSlot struct {
	mu      sync.Mutex
	subject string
}

// WithPrincipalSlot installs a slot that inner middleware fills once the
// subject is authenticated, so outer middleware can read it after the
// handler chain returns.
func WithPrincipalSlot(ctx context.Context) context.Context {
	return context.WithValue(ctx, principalSlotKey, &principalSlot{})
}

// WithSession records the authenticated subject and its token, and fills the
// principal slot if one is installed.
func WithSession(ctx context.Context, subjectID, token string) context.Context {
	if slot, ok := ctx.Value(principalSlotKey).(*principalSlot); ok {
		slot.mu.Lock()
		slot.subject = subjectID
		slot.mu.Unlock()
	}
	ctx = context.WithValue(ctx, SubjectContextKey, subjectID)
	return context.WithValue(ctx, TokenContextKey, token)
}

// PrincipalFromSlot returns the subject recorded in the slot, or "".
func PrincipalFromSlot(ctx context.Context) string {
	slot, ok := ctx.Value(principalSlotKey).(*principalSlot)
	if !ok {
		return ""
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.subject
}

// generateTraceID creates a random 32-character hex trace ID. If crypto/rand
// fails it falls back to a time-based value, never a static one.
func generateTraceID() string {
	b := make([]byte, TraceIDLength)
	n, err := rand.Read(b)

	if err != nil || n != TraceIDLength {
		slog.Error("failed to generate secure random trace ID",
			"error", err,
			"bytes_read", n,
			"bytes_requested", TraceIDLength,
			"fallback", "time-based generation")
		return generateFallbackTraceID()
	}

	return hex.EncodeToString(b)
}

func generateFallbackTraceID() string {
	fallbackID := make([]byte, TraceIDLength)

	now := time.Now()
	binary.BigEndian.PutUint64(fallbackID[:8], uint64(now.UnixNano()))
	binary.BigEndian.PutUint32(fallbackID[8:12], uint32(now.Nanosecond()))
	binary.BigEndian.PutUint32(fallbackID[12:16], uint32(now.Unix()))

	return hex.EncodeToString(fallbackID)
}
