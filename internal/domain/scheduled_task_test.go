package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTaskSubmission_Validate(t *testing.T) {
	t.Parallel()

	key := "k1"
	blank := "  "

	tests := []struct {
		name      string
		input     NewTaskSubmission
		wantField string
	}{
		{"valid without key", NewTaskSubmission{OwnerID: "owner", Message: "hi"}, ""},
		{"valid with key", NewTaskSubmission{OwnerID: "owner", Message: "hi", IdempotencyKey: &key}, ""},
		{"message at limit", NewTaskSubmission{OwnerID: "owner", Message: strings.Repeat("x", MaxTaskMessageLength)}, ""},
		{"missing owner", NewTaskSubmission{Message: "hi"}, "ownerId"},
		{"empty message", NewTaskSubmission{OwnerID: "owner", Message: " "}, "message"},
		{"message too long", NewTaskSubmission{OwnerID: "owner", Message: strings.Repeat("x", MaxTaskMessageLength+1)}, "message"},
		{"blank key", NewTaskSubmission{OwnerID: "owner", Message: "hi", IdempotencyKey: &blank}, "idempotencyKey"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.input.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrValidation)
			var vErr *ValidationError
			if assert.ErrorAs(t, err, &vErr) {
				assert.Equal(t, tt.wantField, vErr.Field)
			}
		})
	}
}

func TestScheduledTask_Status(t *testing.T) {
	t.Parallel()

	task := &ScheduledTask{}
	assert.Equal(t, TaskStatusPending, task.Status())

	task.Dispatched = true
	assert.Equal(t, TaskStatusDispatched, task.Status())
}

func TestValidationError_Unwrap(t *testing.T) {
	t.Parallel()

	err := NewValidationError("id", "has invalid format", ErrInvalidID)
	assert.ErrorIs(t, err, ErrInvalidID)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "id has invalid format", err.Error())
}
