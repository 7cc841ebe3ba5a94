package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/blancapp/blanc-server/internal/errors"
)

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := createTestUser(t, env.store, "ada", "user")

	email := "ada.lovelace@example.com"
	first := "Ada"
	updated, err := env.users.UpdateProfile(ctx, user.ID, UpdateProfileRequest{
		Email:     &email,
		FirstName: &first,
	})
	require.NoError(t, err)
	assert.Equal(t, "ada.lovelace@example.com", updated.Email)
	assert.Equal(t, "Ada", updated.FirstName)
}

func TestUpdateProfile_EmailTaken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	createTestUser(t, env.store, "ada", "user")
	other := createTestUser(t, env.store, "grace", "user")

	email := "ada@example.com"
	_, err := env.users.UpdateProfile(ctx, other.ID, UpdateProfileRequest{Email: &email})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeAlreadyExists, domainErr.Code)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedRoles(t, env.store)

	registered, err := env.auth.Register(ctx, RegisterRequest{
		Username: "ada",
		Email:    "ada@example.com",
		Password: "original-password",
	})
	require.NoError(t, err)

	err = env.users.ChangePassword(ctx, registered.ID, ChangePasswordRequest{
		OldPassword: "original-password",
		NewPassword: "brand-new-password",
	})
	require.NoError(t, err)

	// The old password no longer authenticates.
	_, err = env.auth.Login(ctx, LoginRequest{Username: "ada", Password: "original-password"})
	require.Error(t, err)

	_, err = env.auth.Login(ctx, LoginRequest{Username: "ada", Password: "brand-new-password"})
	require.NoError(t, err)
}

func TestChangePassword_WrongOld(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := createTestUser(t, env.store, "ada", "user")

	err := env.users.ChangePassword(ctx, user.ID, ChangePasswordRequest{
		OldPassword: "not the password",
		NewPassword: "brand-new-password",
	})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeInvalidCredentials, domainErr.Code)
}
