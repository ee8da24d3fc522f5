package api

// CreateTaskRequest is the body of POST /v1/tasks.
type CreateTaskRequest struct {
	Message        string  `json:"message"                  validate:"required,max=500"`
	IdempotencyKey *string `json:"idempotencyKey,omitempty" validate:"omitempty,max=255"`
	RequestID      string  `json:"requestId,omitempty"`
}

// DeleteTaskRequest is the optional body of DELETE /v1/tasks/{id}. Only the
// idempotency guard reads it.
type DeleteTaskRequest struct {
	RequestID string `json:"requestId,omitempty"`
}

// VerifyRequest is the body of POST /v1/auth/verify.
type VerifyRequest struct {
	Username string `json:"username" validate:"required,min=4,max=19"`
	Password string `json:"password" validate:"required,min=8,max=20"`
}

// ValidateTokenResponse reports whether a token verifies.
type ValidateTokenResponse struct {
	Valid bool `json:"valid"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}
