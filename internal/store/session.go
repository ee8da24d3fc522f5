package store

import "context"

// SessionStore is a TTL-backed presence store keyed by (subject, token).
type SessionStore interface {
	// Store creates or overwrites the session with a fresh TTL.
	Store(ctx context.Context, subjectID, token string) error

	// IsValid reports whether the session exists and has time left.
	IsValid(ctx context.Context, subjectID, token string) (bool, error)

	// Renew resets the TTL. Returns ErrSessionNotFound if the key is gone.
	Renew(ctx context.Context, subjectID, token string) error

	// Destroy removes the session. Removing a missing session is not an error.
	Destroy(ctx context.Context, subjectID, token string) error
}
