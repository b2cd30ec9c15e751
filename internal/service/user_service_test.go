package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserServiceRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.users.Register(ctx, " Ann ", "Ann@X.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "Ann", user.Name)
	assert.Equal(t, "ann@x.com", user.Email)
	assert.Empty(t, user.PasswordHash)

	_, err = env.users.Register(ctx, "Ann again", "ann@x.com", "secret123")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestUserServiceRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.users.Register(context.Background(), "", "not-an-email", "123")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	params := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		params = append(params, f.Param)
	}
	assert.Equal(t, []string{"name", "email", "password"}, params)
	assert.Equal(t, "please enter a password with 6 or more characters", verr.Fields[2].Msg)
}

func TestUserServiceAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registered := env.register(t, "login@x.com")

	user, err := env.users.Authenticate(ctx, "LOGIN@x.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Empty(t, user.PasswordHash)

	_, err = env.users.Authenticate(ctx, "login@x.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.users.Authenticate(ctx, "nobody@x.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.users.Authenticate(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserServiceGetByID(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "me@x.com")

	user, err := env.users.GetByID(context.Background(), registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "me@x.com", user.Email)
	assert.Empty(t, user.PasswordHash)
}

func TestUserServiceGetByIDUnknown(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.users.GetByID(context.Background(), "no-such-user")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
