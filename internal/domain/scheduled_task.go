package domain

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTaskMessageLength bounds the opaque task payload.
const MaxTaskMessageLength = 500

// TaskStatus is the dispatch state of a ScheduledTask as seen by this service.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusDispatched TaskStatus = "dispatched"
)

// ScheduledTask is one unit of work submitted by an owner.
// For a given (OwnerID, IdempotencyKey) with a non-nil key at most one
// ScheduledTask exists; the store enforces it.
type ScheduledTask struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"ownerId"`
	Message        string          `json:"message"`
	IdempotencyKey *string         `json:"idempotencyKey,omitempty"`
	EngineResponse json.RawMessage `json:"engineResponse,omitempty"`
	Dispatched     bool            `json:"dispatched"`
	DispatchedAt   *time.Time      `json:"dispatchedAt,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Status derives the lifecycle state from the dispatch flag.
func (t *ScheduledTask) Status() TaskStatus {
	if t.Dispatched {
		return TaskStatusDispatched
	}
	return TaskStatusPending
}

// NewTaskSubmission is the input for enqueuing a task.
// EngineResponse is what the engine returned on registration, kept so a
// later lookup by key or a recovered confirmation can reuse it.
type NewTaskSubmission struct {
	OwnerID        string
	Message        string
	IdempotencyKey *string
	EngineResponse json.RawMessage
}

// Validate checks owner, message bounds and key shape before any side effect.
func (s NewTaskSubmission) Validate() error {
	if strings.TrimSpace(s.OwnerID) == "" {
		return NewValidationError("ownerId", "is required", ErrInvalidID)
	}
	if strings.TrimSpace(s.Message) == "" {
		return NewValidationError("message", "is required", nil)
	}
	if utf8.RuneCountInString(s.Message) > MaxTaskMessageLength {
		return NewValidationError("message", "is too long", nil)
	}
	if s.IdempotencyKey != nil && strings.TrimSpace(*s.IdempotencyKey) == "" {
		return NewValidationError("idempotencyKey", "must not be blank", nil)
	}
	return nil
}
