package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blancapp/blanc-server/internal/auth"
	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/id"
	"github.com/blancapp/blanc-server/internal/service"
	"github.com/blancapp/blanc-server/internal/store/sqlite"
)

// testKeyHex is a fixed 32-byte signing key for tests.
const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// setupTestServer wires a server against a temp sqlite store with the
// role registry seeded.
func setupTestServer(t *testing.T) *Server {
	t.Helper()

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	for _, name := range []string{"admin", "user"} {
		roleID, err := id.Generate("role")
		require.NoError(t, err)
		require.NoError(t, st.CreateRole(ctx, &domain.RoleRecord{ID: roleID, Name: name}))
	}

	tokenService, err := auth.NewTokenService(testKeyHex, 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	notifications := service.NewNotificationService(st, logger)

	services := &Services{
		Auth:         service.NewAuthService(st, tokenService, logger),
		User:         service.NewUserService(st, logger),
		Project:      service.NewProjectService(st, notifications, logger),
		Stage:        service.NewStageService(st, logger),
		Task:         service.NewTaskService(st, notifications, logger),
		Tag:          service.NewTagService(st, logger),
		Message:      service.NewMessageService(st, logger),
		Notification: notifications,
	}

	return NewServer(st, services, logger)
}

// doJSON fires a JSON request at the server and returns the recorder.
func doJSON(t *testing.T, server *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

// decodeEnvelope unmarshals a recorded response body.
func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return env
}

// dataMap returns the envelope payload as a generic map.
func dataMap(t *testing.T, env Envelope) map[string]any {
	t.Helper()

	m, ok := env.Data.(map[string]any)
	require.True(t, ok, "data is not an object: %+v", env.Data)
	return m
}

// registerAndLogin creates an account over HTTP and returns its access
// token together with the user ID.
func registerAndLogin(t *testing.T, server *Server, username string) (token, userID string) {
	t.Helper()

	w := doJSON(t, server, http.MethodPost, "/api/v1/auth/", "", map[string]any{
		"username":   username,
		"email":      username + "@example.com",
		"password":   "correct horse battery staple",
		"first_name": "Test",
		"last_name":  "User",
	})
	require.Equal(t, http.StatusCreated, w.Code, "register: %s", w.Body.String())
	userID = dataMap(t, decodeEnvelope(t, w))["id"].(string)

	w = doJSON(t, server, http.MethodPost, "/api/v1/auth/token", "", map[string]any{
		"username": username,
		"password": "correct horse battery staple",
	})
	require.Equal(t, http.StatusOK, w.Code, "login: %s", w.Body.String())
	token = dataMap(t, decodeEnvelope(t, w))["access_token"].(string)

	return token, userID
}

func TestHealthCheck(t *testing.T) {
	server := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	assert.Equal(t, EnvelopeVersion, env.V)
	assert.True(t, env.Success)
	assert.Equal(t, "healthy", dataMap(t, env)["status"])
}

func TestAuthFlow(t *testing.T) {
	server := setupTestServer(t)

	// Register.
	w := doJSON(t, server, http.MethodPost, "/api/v1/auth/", "", map[string]any{
		"username": "ada",
		"email":    "ada@example.com",
		"password": "correct horse battery staple",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	env := decodeEnvelope(t, w)
	require.True(t, env.Success)
	data := dataMap(t, env)
	assert.Equal(t, "ada", data["username"])
	assert.Equal(t, "user", data["role"])
	assert.NotContains(t, data, "password_hash")

	// Login.
	w = doJSON(t, server, http.MethodPost, "/api/v1/auth/token", "", map[string]any{
		"username": "ada",
		"password": "correct horse battery staple",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data = dataMap(t, decodeEnvelope(t, w))
	access, _ := data["access_token"].(string)
	refresh, _ := data["refresh_token"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.Equal(t, "bearer", data["token_type"])

	// Authenticated profile fetch.
	w = doJSON(t, server, http.MethodGet, "/api/v1/users/me", access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ada", dataMap(t, decodeEnvelope(t, w))["username"])

	// Refresh keeps the session alive.
	w = doJSON(t, server, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{
		"refresh_token": refresh,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, dataMap(t, decodeEnvelope(t, w))["access_token"])

	// Logout revokes the refresh token.
	w = doJSON(t, server, http.MethodPost, "/api/v1/auth/logout", "", map[string]any{
		"refresh_token": refresh,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, server, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{
		"refresh_token": refresh,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	env = decodeEnvelope(t, w)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
}

func TestLogin_WrongPassword(t *testing.T) {
	server := setupTestServer(t)
	registerAndLogin(t, server, "ada")

	w := doJSON(t, server, http.MethodPost, "/api/v1/auth/token", "", map[string]any{
		"username": "ada",
		"password": "not the password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	env := decodeEnvelope(t, w)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)
}

func TestMissingAuthHeader(t *testing.T) {
	server := setupTestServer(t)

	w := doJSON(t, server, http.MethodGet, "/api/v1/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	env := decodeEnvelope(t, w)
	assert.False(t, env.Success)
}

func TestInvalidBearerToken(t *testing.T) {
	server := setupTestServer(t)

	w := doJSON(t, server, http.MethodGet, "/api/v1/users/me", "not-a-real-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	server := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nonexistent", http.NoBody)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthRateLimit(t *testing.T) {
	server := setupTestServer(t)

	// Hammer the login endpoint from a single IP until the limiter
	// kicks in.
	var limited bool
	for i := range 20 {
		w := doJSON(t, server, http.MethodPost, "/api/v1/auth/token", "", map[string]any{
			"username": fmt.Sprintf("ghost-%d", i),
			"password": "wrong",
		})
		if w.Code == http.StatusTooManyRequests {
			limited = true

			env := decodeEnvelope(t, w)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, "RATE_LIMITED", env.Error.Code)
			break
		}
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}
	assert.True(t, limited, "expected a 429 within 20 rapid attempts")
}

func TestListUsersOverHTTP(t *testing.T) {
	server := setupTestServer(t)
	token, _ := registerAndLogin(t, server, "ada")
	registerAndLogin(t, server, "grace")

	w := doJSON(t, server, http.MethodGet, "/api/v1/users", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env := decodeEnvelope(t, w)
	users, ok := env.Data.([]any)
	require.True(t, ok, "data is not an array: %+v", env.Data)
	require.Len(t, users, 2)

	usernames := make([]string, 0, len(users))
	for _, u := range users {
		entry := u.(map[string]any)
		usernames = append(usernames, entry["username"].(string))
		// The directory never hands out other users' invite codes.
		assert.NotContains(t, entry, "invite_code")
		assert.NotContains(t, entry, "password_hash")
	}
	assert.ElementsMatch(t, []string{"ada", "grace"}, usernames)

	// The directory requires authentication.
	w = doJSON(t, server, http.MethodGet, "/api/v1/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChangePasswordOverHTTP(t *testing.T) {
	server := setupTestServer(t)
	token, _ := registerAndLogin(t, server, "ada")

	w := doJSON(t, server, http.MethodPost, "/api/v1/users/change-password", token, map[string]any{
		"old_password": "correct horse battery staple",
		"new_password": "an even longer passphrase",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Old password is no longer accepted.
	w = doJSON(t, server, http.MethodPost, "/api/v1/auth/token", "", map[string]any{
		"username": "ada",
		"password": "correct horse battery staple",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, server, http.MethodPost, "/api/v1/auth/token", "", map[string]any{
		"username": "ada",
		"password": "an even longer passphrase",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}
