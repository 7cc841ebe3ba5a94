package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/blancapp/blanc-server/internal/errors"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedRoles(t, env.store)

	user, err := env.auth.Register(ctx, RegisterRequest{
		Username:  "ada",
		Email:     "Ada@Example.com",
		Password:  "correct horse battery staple",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)

	assert.Equal(t, "ada", user.Username)
	assert.Equal(t, "ada@example.com", user.Email, "email should be normalized to lower case")
	assert.Equal(t, "user", string(user.Role))
	assert.NotEmpty(t, user.InviteCode)
	assert.Len(t, user.InviteCode, 10)
	assert.True(t, user.Active)
	assert.NotEqual(t, "correct horse battery staple", user.PasswordHash)
}

func TestRegister_RequiresSeededRoles(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Register(context.Background(), RegisterRequest{
		Username: "ada",
		Email:    "ada@example.com",
		Password: "correct horse battery staple",
	})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeInternal, domainErr.Code)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedRoles(t, env.store)

	_, err := env.auth.Register(ctx, RegisterRequest{
		Username: "ada", Email: "ada@example.com", Password: "correct horse battery staple",
	})
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, RegisterRequest{
		Username: "ada", Email: "other@example.com", Password: "correct horse battery staple",
	})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeAlreadyExists, domainErr.Code)
}

func TestRegister_ValidatesInput(t *testing.T) {
	env := newTestEnv(t)
	seedRoles(t, env.store)

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing username", RegisterRequest{Email: "a@example.com", Password: "longenough"}},
		{"bad email", RegisterRequest{Username: "ada", Email: "nope", Password: "longenough"}},
		{"short password", RegisterRequest{Username: "ada", Email: "a@example.com", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(context.Background(), tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := createTestUser(t, env.store, "ada", "user")

	resp, err := env.auth.Login(ctx, LoginRequest{
		Username: "ada",
		Password: "correct horse battery staple",
	})
	require.NoError(t, err)

	assert.Equal(t, user.ID, resp.User.ID)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Positive(t, resp.ExpiresIn)

	// Access token round-trips through verification.
	verified, claims, err := env.auth.VerifyAccessToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)
	assert.Equal(t, "ada", claims.Username())
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	createTestUser(t, env.store, "ada", "user")

	_, err := env.auth.Login(context.Background(), LoginRequest{
		Username: "ada",
		Password: "wrong",
	})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeInvalidCredentials, domainErr.Code)
}

func TestLogin_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Login(context.Background(), LoginRequest{
		Username: "ghost",
		Password: "whatever!",
	})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeInvalidCredentials, domainErr.Code,
		"unknown users and wrong passwords must be indistinguishable")
}

func TestRefresh_KeepsRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	createTestUser(t, env.store, "ada", "user")

	login, err := env.auth.Login(ctx, LoginRequest{
		Username: "ada", Password: "correct horse battery staple",
	})
	require.NoError(t, err)

	refreshed, err := env.auth.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)

	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, login.RefreshToken, refreshed.RefreshToken,
		"refresh must not rotate the refresh token")
}

func TestRefresh_InvalidToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Refresh(context.Background(), "bm90LWEtcmVhbC10b2tlbg==")
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeUnauthorized, domainErr.Code)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	createTestUser(t, env.store, "ada", "user")

	login, err := env.auth.Login(ctx, LoginRequest{
		Username: "ada", Password: "correct horse battery staple",
	})
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(ctx, login.RefreshToken))

	// The revoked token can no longer be redeemed.
	_, err = env.auth.Refresh(ctx, login.RefreshToken)
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeTokenExpired, domainErr.Code)
}

func TestLogout_UnknownToken(t *testing.T) {
	env := newTestEnv(t)

	err := env.auth.Logout(context.Background(), "bm90LWEtcmVhbC10b2tlbg==")
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeNotFound, domainErr.Code)
}
