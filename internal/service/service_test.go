package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blancapp/blanc-server/internal/auth"
	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/id"
	"github.com/blancapp/blanc-server/internal/store"
	"github.com/blancapp/blanc-server/internal/store/sqlite"
)

// testKeyHex is a fixed 32-byte signing key for tests.
const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

type testEnv struct {
	store         store.Store
	auth          *AuthService
	users         *UserService
	projects      *ProjectService
	tasks         *TaskService
	stages        *StageService
	tags          *TagService
	messages      *MessageService
	notifications *NotificationService
}

// newTestEnv wires every service against a temp sqlite store.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	tokenService, err := auth.NewTokenService(testKeyHex, 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	notifications := NewNotificationService(s, logger)

	return &testEnv{
		store:         s,
		auth:          NewAuthService(s, tokenService, logger),
		users:         NewUserService(s, logger),
		projects:      NewProjectService(s, notifications, logger),
		tasks:         NewTaskService(s, notifications, logger),
		stages:        NewStageService(s, logger),
		tags:          NewTagService(s, logger),
		messages:      NewMessageService(s, logger),
		notifications: notifications,
	}
}

// seedRoles populates the role registry the way cmd/seed does.
func seedRoles(t *testing.T, s store.Store) {
	t.Helper()

	for _, name := range []string{"admin", "user"} {
		roleID, err := id.Generate("role")
		require.NoError(t, err)
		require.NoError(t, s.CreateRole(context.Background(), &domain.RoleRecord{ID: roleID, Name: name}))
	}
}

// createTestUser registers a user through the store directly, bypassing
// the role registry requirement.
func createTestUser(t *testing.T, s store.Store, username string, role domain.Role) *domain.User {
	t.Helper()

	userID, err := id.Generate("user")
	require.NoError(t, err)

	hash, err := auth.HashPassword("correct horse battery staple")
	require.NoError(t, err)

	inviteCode, err := id.InviteCode()
	require.NoError(t, err)

	now := time.Now()
	user := &domain.User{
		ID:           userID,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
		InviteCode:   inviteCode,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

// createTestProject creates a project through the service so the default
// stage and manager membership exist.
func createTestProject(t *testing.T, env *testEnv, owner *domain.User, name string) *domain.Project {
	t.Helper()

	project, err := env.projects.Create(context.Background(), owner, CreateProjectRequest{Name: name})
	require.NoError(t, err)
	return project
}

// addTestMember enrols a user into a project with the given role.
func addTestMember(t *testing.T, env *testEnv, manager *domain.User, projectID string, user *domain.User, role domain.MemberRole) {
	t.Helper()

	_, err := env.projects.AddMember(context.Background(), manager, projectID, AddMemberRequest{
		UserID: user.ID,
		Role:   string(role),
	})
	require.NoError(t, err)
}

// createTestTask creates a task in the project's default stage.
func createTestTask(t *testing.T, env *testEnv, creator *domain.User, projectID, name string) *domain.Task {
	t.Helper()

	task, err := env.tasks.Create(context.Background(), creator, CreateTaskRequest{
		ProjectID: projectID,
		Name:      name,
	})
	require.NoError(t, err)
	return task
}
