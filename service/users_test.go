package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/padraicbc/gridpredict/apperr"
)

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	u, err := f.users.Register(ctx, Registration{Email: "max@example.com", Username: "max33", Password: "supersecret"})
	require.NoError(t, err)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsAdmin)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("supersecret")))

	tests := []struct {
		name string
		in   Registration
		kind error
		msg  string
	}{
		{"DuplicateEmail", Registration{Email: "MAX@example.com", Username: "other", Password: "supersecret"}, apperr.ErrConflict, "email already registered"},
		{"DuplicateUsername", Registration{Email: "other@example.com", Username: "max33", Password: "supersecret"}, apperr.ErrConflict, "username already registered"},
		{"BadEmail", Registration{Email: "not-an-email", Username: "lando", Password: "supersecret"}, apperr.ErrValidation, ""},
		{"ShortUsername", Registration{Email: "l@example.com", Username: "ln", Password: "supersecret"}, apperr.ErrValidation, ""},
		{"SymbolUsername", Registration{Email: "l@example.com", Username: "lando_4", Password: "supersecret"}, apperr.ErrValidation, ""},
		{"ShortPassword", Registration{Email: "l@example.com", Username: "lando", Password: "short"}, apperr.ErrValidation, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.Register(ctx, tt.in)
			require.ErrorIs(t, err, tt.kind)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, apperr.Message(err))
			}
		})
	}
}

func TestUserService_Me(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "alice")

	got, err := f.users.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = f.users.Me(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestHashPassword(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	hash, err := HashPassword("long enough")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("long enough")))
}
