package auth

import (
	"context"
	"time"
)

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateToken creates a signed access token for the subject.
	GenerateToken(ctx context.Context, subjectID, username string) (string, error)

	// ValidateToken validates the provided access token string and extracts the claims.
	// Returns ErrExpiredToken, ErrTokenNotYetValid or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the validated content of an access token.
type Claims struct {
	// Subject is the user's ssuuid; sessions and task ownership key on it.
	Subject   string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}
