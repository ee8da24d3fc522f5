package domain

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Role is the authorization level of a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Common validation errors
var (
	ErrInvalidUsername     = errors.New("username must be between 4 and 19 characters")
	ErrInvalidPassword     = errors.New("password must be between 8 and 20 characters")
	ErrInvalidRole         = errors.New("role must be USER or ADMIN")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
)

// User is a principal allowed to log in and submit tasks. SSUUID is the
// subject identifier carried in tokens and used as task owner.
type User struct {
	SSUUID         string     `json:"ssuuid"`
	Username       string     `json:"username"`
	Password       string     `json:"-"` // Plaintext, only during provisioning
	HashedPassword string     `json:"-"`
	Role           Role       `json:"role"`
	LastLoginAt    *time.Time `json:"lastLoginAt,omitempty"`
	LastLoginIP    *string    `json:"lastLoginIp,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// NewUser creates a user with a fresh subject identifier. The caller must
// hash Password before storing the user.
func NewUser(username, password string, role Role) (*User, error) {
	now := time.Now().UTC()
	u := &User{
		SSUUID:    uuid.NewString(),
		Username:  username,
		Password:  password,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// Validate checks username, password and role bounds. The plaintext
// password is only checked while it is still present.
func (u *User) Validate() error {
	if u.SSUUID == "" {
		return ErrInvalidID
	}
	if n := utf8.RuneCountInString(u.Username); n <= 3 || n >= 20 {
		return ErrInvalidUsername
	}
	if u.Password != "" {
		if n := utf8.RuneCountInString(u.Password); n < 8 || n > 20 {
			return ErrInvalidPassword
		}
	} else if u.HashedPassword == "" {
		return ErrEmptyHashedPassword
	}
	if u.Role != RoleUser && u.Role != RoleAdmin {
		return ErrInvalidRole
	}
	return nil
}
