package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		password string
		role     Role
		wantErr  error
	}{
		{"valid user", "alice", "password123", RoleUser, nil},
		{"valid admin", "operator", "password123", RoleAdmin, nil},
		{"username too short", "bob", "password123", RoleUser, ErrInvalidUsername},
		{"username too long", strings.Repeat("a", 20), "password123", RoleUser, ErrInvalidUsername},
		{"password too short", "alice", "short", RoleUser, ErrInvalidPassword},
		{"password too long", "alice", strings.Repeat("p", 21), RoleUser, ErrInvalidPassword},
		{"unknown role", "alice", "password123", Role("ROOT"), ErrInvalidRole},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			u, err := NewUser(tt.username, tt.password, tt.role)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, u)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, u.SSUUID)
			assert.Equal(t, tt.username, u.Username)
			assert.False(t, u.CreatedAt.IsZero())
		})
	}
}

func TestUserValidate_HashedOnly(t *testing.T) {
	t.Parallel()

	u := &User{SSUUID: "s-1", Username: "alice", HashedPassword: "$2a$10$hash", Role: RoleUser}
	assert.NoError(t, u.Validate())

	u.HashedPassword = ""
	assert.ErrorIs(t, u.Validate(), ErrEmptyHashedPassword)
}
