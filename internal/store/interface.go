// Package store defines the persistence contract for the Blanc server.
// The sqlite subpackage provides the production implementation.
package store

import (
	"context"

	"github.com/blancapp/blanc-server/internal/domain"
)

// Store is the full persistence surface used by the service layer.
type Store interface {
	RoleStore
	UserStore
	TokenStore
	ProjectStore
	StageStore
	MilestoneStore
	TaskStore
	TagStore
	MessageStore
	NotificationStore

	Close() error
}

// RoleStore persists the role registry that registration depends on.
type RoleStore interface {
	// CreateRole inserts a role, ignoring duplicates by name.
	CreateRole(ctx context.Context, r *domain.RoleRecord) error
	GetRoleByName(ctx context.Context, name string) (*domain.RoleRecord, error)
	ListRoles(ctx context.Context) ([]*domain.RoleRecord, error)
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByInviteCode(ctx context.Context, code string) (*domain.User, error)
	UpdateUser(ctx context.Context, u *domain.User) error
	ListUsers(ctx context.Context) ([]*domain.User, error)
}

// TokenStore persists refresh tokens, keyed by hash.
type TokenStore interface {
	CreateRefreshToken(ctx context.Context, t *domain.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, hash string) (*domain.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id string) error
	DeleteExpiredRefreshTokens(ctx context.Context) (int, error)
}

// ProjectStore persists projects and their memberships.
type ProjectStore interface {
	// CreateProject inserts the project, its default stage and the
	// initial manager membership in one transaction.
	CreateProject(ctx context.Context, p *domain.Project, defaultStage *domain.Stage, manager *domain.ProjectMember) error
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	UpdateProject(ctx context.Context, p *domain.Project) error
	DeleteProject(ctx context.Context, id string) error
	ListProjects(ctx context.Context, f ProjectFilter, pp PageParams) (*Page[*domain.Project], error)

	AddProjectMember(ctx context.Context, m *domain.ProjectMember) error
	GetProjectMember(ctx context.Context, projectID, userID string) (*domain.ProjectMember, error)
	ListProjectMembers(ctx context.Context, projectID string) ([]*domain.ProjectMember, error)
	UpdateProjectMemberRole(ctx context.Context, projectID, userID string, role domain.MemberRole) error
	RemoveProjectMember(ctx context.Context, projectID, userID string) error
}

// StageStore persists kanban stages.
type StageStore interface {
	CreateStage(ctx context.Context, st *domain.Stage) error
	GetStage(ctx context.Context, id string) (*domain.Stage, error)
	GetDefaultStage(ctx context.Context, projectID string) (*domain.Stage, error)
	ListProjectStages(ctx context.Context, projectID string) ([]*domain.Stage, error)
	UpdateStage(ctx context.Context, st *domain.Stage) error
	// DeleteStage removes a non-default stage, moving its tasks to the
	// project's default stage in the same transaction. Returns how many
	// tasks moved. Deleting the default stage is ErrInvalidInput.
	DeleteStage(ctx context.Context, id string) (int, error)
}

// MilestoneStore persists project milestones.
type MilestoneStore interface {
	CreateMilestone(ctx context.Context, m *domain.Milestone) error
	GetMilestone(ctx context.Context, id string) (*domain.Milestone, error)
	ListProjectMilestones(ctx context.Context, projectID string) ([]*domain.Milestone, error)
	DeleteMilestone(ctx context.Context, id string) error
}

// TaskStore persists tasks, their assignees, and subtasks.
type TaskStore interface {
	// CreateTask inserts the task and its assignee rows in one
	// transaction. AssigneeIDs must already be vetted project members.
	CreateTask(ctx context.Context, t *domain.Task) error
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	// UpdateTask rewrites the task row and replaces its assignee set.
	UpdateTask(ctx context.Context, t *domain.Task) error
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, f TaskFilter, pp PageParams) (*Page[*domain.Task], error)

	CreateSubTask(ctx context.Context, st *domain.SubTask) error
	GetSubTask(ctx context.Context, id string) (*domain.SubTask, error)
	ListTaskSubTasks(ctx context.Context, taskID string) ([]*domain.SubTask, error)
	UpdateSubTask(ctx context.Context, st *domain.SubTask) error
	DeleteSubTask(ctx context.Context, id string) error
}

// TagStore persists global tags and their attachments. Attach and detach
// operations are idempotent.
type TagStore interface {
	CreateTag(ctx context.Context, t *domain.Tag) error
	GetTag(ctx context.Context, id string) (*domain.Tag, error)
	GetTagByName(ctx context.Context, name string) (*domain.Tag, error)
	ListTags(ctx context.Context) ([]*domain.Tag, error)
	UpdateTag(ctx context.Context, t *domain.Tag) error
	DeleteTag(ctx context.Context, id string) error

	TagProject(ctx context.Context, tagID, projectID string) error
	UntagProject(ctx context.Context, tagID, projectID string) error
	ListProjectTags(ctx context.Context, projectID string) ([]*domain.Tag, error)

	TagTask(ctx context.Context, tagID, taskID string) error
	UntagTask(ctx context.Context, tagID, taskID string) error
	ListTaskTags(ctx context.Context, taskID string) ([]*domain.Tag, error)
}

// MessageStore persists comment threads on projects and tasks.
type MessageStore interface {
	CreateMessage(ctx context.Context, m *domain.Message) error
	GetMessage(ctx context.Context, id string) (*domain.Message, error)
	// ListMessages returns the thread for a target, oldest first.
	ListMessages(ctx context.Context, target domain.EntityRef) ([]*domain.Message, error)
	UpdateMessage(ctx context.Context, m *domain.Message) error
	DeleteMessage(ctx context.Context, id string) error
	// CountTaskMessages returns per-task comment counts for the given
	// task IDs. Tasks with no messages are absent from the map.
	CountTaskMessages(ctx context.Context, taskIDs []string) (map[string]int, error)
}

// NotificationStore persists per-user notification inboxes.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *domain.Notification) error
	GetNotification(ctx context.Context, id string) (*domain.Notification, error)
	// ListNotifications returns the user's inbox, newest first.
	ListNotifications(ctx context.Context, userID string, pp PageParams) (*Page[*domain.Notification], error)
	CountUnreadNotifications(ctx context.Context, userID string) (int, error)
	MarkNotificationRead(ctx context.Context, id string) error
	// MarkAllNotificationsRead returns how many rows flipped.
	MarkAllNotificationsRead(ctx context.Context, userID string) (int, error)
	DeleteNotification(ctx context.Context, id string) error
}
