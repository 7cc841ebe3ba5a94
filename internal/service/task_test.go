package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blancapp/blanc-server/internal/domain"
	domainerrors "github.com/blancapp/blanc-server/internal/errors"
)

func TestCreateTask_Defaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createTestUser(t, env.store, "ada", "user")
	project := createTestProject(t, env, owner, "Apollo")

	task, err := env.tasks.Create(ctx, owner, CreateTaskRequest{
		ProjectID: project.ID,
		Name:      "Write proposal",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TaskStatusInProgress, task.Status)
	assert.Equal(t, 3, task.Priority)
	assert.Equal(t, owner.ID, task.CreatorID)

	// No stage requested: the task lands on the default stage.
	stage, err := env.store.GetDefaultStage(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, stage.ID, task.StageID)
}

func TestCreateTask_StageFromAnotherProject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createTestUser(t, env.store, "ada", "user")
	projectA := createTestProject(t, env, owner, "Apollo")
	projectB := createTestProject(t, env, owner, "Gemini")

	foreign, err := env.store.GetDefaultStage(ctx, projectB.ID)
	require.NoError(t, err)

	_, err = env.tasks.Create(ctx, owner, CreateTaskRequest{
		ProjectID: projectA.ID,
		Name:      "Write proposal",
		StageID:   foreign.ID,
	})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
}

func TestCreateTask_FiltersNonMemberAssignees(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createTestUser(t, env.store, "ada", "user")
	member := createTestUser(t, env.store, "grace", "user")
	outsider := createTestUser(t, env.store, "eve", "user")

	project := createTestProject(t, env, owner, "Apollo")
	addTestMember(t, env, owner, project.ID, member, domain.MemberRoleMember)

	task, err := env.tasks.Create(ctx, owner, CreateTaskRequest{
		ProjectID:   project.ID,
		Name:        "Write proposal",
		AssigneeIDs: []string{member.ID, outsider.ID, member.ID},
	})
	require.NoError(t, err)

	// Non-members and duplicates are dropped without an error.
	stored, err := env.store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, stored.AssigneeIDs, 1)
	assert.Equal(t, member.ID, stored.AssigneeIDs[0])
}

func TestUpdateTask_AssigneeMayEdit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createTestUser(t, env.store, "ada", "user")
	assignee := createTestUser(t, env.store, "grace", "user")
	bystander := createTestUser(t, env.store, "eve", "user")

	project := createTestProject(t, env, owner, "Apollo")
	addTestMember(t, env, owner, project.ID, assignee, domain.MemberRoleMember)
	addTestMember(t, env, owner, project.ID, bystander, domain.MemberRoleMember)

	task, err := env.tasks.Create(ctx, owner, CreateTaskRequest{
		ProjectID:   project.ID,
		Name:        "Write proposal",
		AssigneeIDs: []string{assignee.ID},
	})
	require.NoError(t, err)

	status := string(domain.TaskStatusDone)
	updated, err := env.tasks.Update(ctx, assignee, task.ID, UpdateTaskRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusDone, updated.Status)

	// A member who is neither creator nor assignee cannot.
	_, err = env.tasks.Update(ctx, bystander, task.ID, UpdateTaskRequest{Status: &status})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeForbidden, domainErr.Code)
}

func TestDeleteTask_ManagerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createTestUser(t, env.store, "ada", "user")
	member := createTestUser(t, env.store, "grace", "user")

	project := createTestProject(t, env, owner, "Apollo")
	addTestMember(t, env, owner, project.ID, member, domain.MemberRoleMember)

	task := createTestTask(t, env, member, project.ID, "Write proposal")

	// Even the creator cannot delete without manager standing.
	err := env.tasks.Delete(ctx, member, task.ID)
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeForbidden, domainErr.Code)

	require.NoError(t, env.tasks.Delete(ctx, owner, task.ID))

	_, err = env.tasks.Get(ctx, owner, task.ID)
	require.Error(t, err)
}

func TestDeleteTask_OwnerWithoutManagerRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createTestUser(t, env.store, "ada", "user")
	manager := createTestUser(t, env.store, "grace", "user")

	project := createTestProject(t, env, owner, "Apollo")
	addTestMember(t, env, owner, project.ID, manager, domain.MemberRoleManager)

	task := createTestTask(t, env, owner, project.ID, "Write proposal")

	// Strip the owner's manager membership row. Ownership alone no
	// longer grants the destructive task operations.
	require.NoError(t, env.store.RemoveProjectMember(ctx, project.ID, owner.ID))

	var domainErr *domainerrors.Error

	err := env.tasks.Delete(ctx, owner, task.ID)
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeForbidden, domainErr.Code)

	_, err = env.tasks.Archive(ctx, owner, task.ID)
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeForbidden, domainErr.Code)

	_, err = env.tasks.Duplicate(ctx, owner, task.ID)
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeForbidden, domainErr.Code)

	// Assignment changes still take owner standing by itself.
	_, err = env.tasks.Assign(ctx, owner, task.ID, manager.ID)
	require.NoError(t, err)

	// The remaining manager keeps the destructive operations.
	require.NoError(t, env.tasks.Delete(ctx, manager, task.ID))
}

func TestMoveStage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createTestUser(t, env.store, "ada", "user")
	project := createTestProject(t, env, owner, "Apollo")

	review, err := env.stages.Create(ctx, owner, project.ID, CreateStageRequest{Name: "Review", Sequence: 1})
	require.NoError(t, err)

	task := createTestTask(t, env, owner, project.ID, "Write proposal")

	moved, err := env.tasks.MoveStage(ctx, owner, task.ID, review.ID)
	require.NoError(t, err)
	assert.Equal(t, review.ID, moved.StageID)
}

func TestMoveStage_CrossProjectRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createTestUser(t, env.store, "ada", "user")
	projectA := createTestProject(t, env, owner, "Apollo")
	projectB := createTestProject(t, env, owner, "Gemini")

	foreign, err := env.store.GetDefaultStage(ctx, projectB.ID)
	require.NoError(t, err)

	task := createTestTask(t, env, owner, projectA.ID, "Write proposal")

	_, err = env.tasks.MoveStage(ctx, owner, task.ID, foreign.ID)
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
}

func TestAssignTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createTestUser(t, env.store, "ada", "user")
	member := createTestUser(t, env.store, "grace", "user")

	project := createTestProject(t, env, owner, "Apollo")
	addTestMember(t, env, owner, project.ID, member, domain.MemberRoleMember)

	task := createTestTask(t, env, owner, project.ID, "Write proposal")

	_, err := env.tasks.Assign(ctx, owner, task.ID, member.ID)
	require.NoError(t, err)

	assignees, err := env.tasks.Assignees(ctx, owner, task.ID)
	require.NoError(t, err)
	require.Len(t, assignees, 1)
	assert.Equal(t, member.ID, assignees[0].ID)

	// Assigning someone else triggers a notification.
	require.Eventually(t, func() bool {
		n, err := env.store.CountUnreadNotifications(ctx, member.ID)
		return err == nil && n >= 1
	}, 2*time.Second, 10*time.Millisecond)

	// Repeat assignment is a no-op.
	_, err = env.tasks.Assign(ctx, owner, task.ID, member.ID)
	require.NoError(t, err)

	assignees, err = env.tasks.Assignees(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.Len(t, assignees, 1)
}

func TestAssignTask_NonMemberRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createTestUser(t, env.store, "ada", "user")
	outsider := createTestUser(t, env.store, "eve", "user")

	project := createTestProject(t, env, owner, "Apollo")
	task := createTestTask(t, env, owner, project.ID, "Write proposal")

	_, err := env.tasks.Assign(ctx, owner, task.ID, outsider.ID)
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeForbidden, domainErr.Code)
}

func TestUnassignTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createTestUser(t, env.store, "ada", "user")
	member := createTestUser(t, env.store, "grace", "user")

	project := createTestProject(t, env, owner, "Apollo")
	addTestMember(t, env, owner, project.ID, member, domain.MemberRoleMember)

	task := createTestTask(t, env, owner, project.ID, "Write proposal")
	_, err := env.tasks.Assign(ctx, owner, task.ID, member.ID)
	require.NoError(t, err)

	_, err = env.tasks.Unassign(ctx, owner, task.ID, member.ID)
	require.NoError(t, err)

	assignees, err := env.tasks.Assignees(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.Empty(t, assignees)

	// Removing someone who is not assigned is fine.
	_, err = env.tasks.Unassign(ctx, owner, task.ID, member.ID)
	require.NoError(t, err)
}

func TestDuplicateTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createTestUser(t, env.store, "ada", "user")
	member := createTestUser(t, env.store, "grace", "user")

	project := createTestProject(t, env, owner, "Apollo")
	addTestMember(t, env, owner, project.ID, member, domain.MemberRoleMember)

	status := string(domain.TaskStatusDone)
	task, err := env.tasks.Create(ctx, member, CreateTaskRequest{
		ProjectID:   project.ID,
		Name:        "Write proposal",
		Status:      status,
		AssigneeIDs: []string{member.ID},
	})
	require.NoError(t, err)

	dup, err := env.tasks.Duplicate(ctx, owner, task.ID)
	require.NoError(t, err)

	assert.Equal(t, "Write proposal (Copy)", dup.Name)
	assert.Equal(t, task.ProjectID, dup.ProjectID)
	assert.Equal(t, task.StageID, dup.StageID)
	assert.Equal(t, domain.TaskStatusInProgress, dup.Status)
	assert.Equal(t, owner.ID, dup.CreatorID)

	// Assignees carry over to the copy.
	stored, err := env.store.GetTask(ctx, dup.ID)
	require.NoError(t, err)
	require.Len(t, stored.AssigneeIDs, 1)
	assert.Equal(t, member.ID, stored.AssigneeIDs[0])
}

func TestMessageCounts_FillsZeros(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createTestUser(t, env.store, "ada", "user")
	project := createTestProject(t, env, owner, "Apollo")

	withComments := createTestTask(t, env, owner, project.ID, "First")
	quiet := createTestTask(t, env, owner, project.ID, "Second")

	_, err := env.messages.Create(ctx, owner, CreateMessageRequest{
		ObjectType: "task",
		ObjectID:   withComments.ID,
		Content:    "looks good",
	})
	require.NoError(t, err)

	counts, err := env.tasks.MessageCounts(ctx, owner, []string{withComments.ID, quiet.ID})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{withComments.ID: 1, quiet.ID: 0}, counts)
}

func TestBulkArchiveTasks_Buckets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createTestUser(t, env.store, "ada", "user")
	other := createTestUser(t, env.store, "eve", "user")

	mine := createTestProject(t, env, owner, "Mine")
	theirs := createTestProject(t, env, other, "Theirs")

	mineTask := createTestTask(t, env, owner, mine.ID, "Visible")
	theirsTask := createTestTask(t, env, other, theirs.ID, "Hidden")

	result, err := env.tasks.BulkArchive(ctx, owner, []string{mineTask.ID, theirsTask.ID, "task-missing"})
	require.NoError(t, err)

	assert.Equal(t, []string{mineTask.ID}, result.Succeeded)
	assert.Equal(t, []string{theirsTask.ID}, result.Unauthorized)
	assert.Equal(t, []string{"task-missing"}, result.NotFound)
}

func TestListTasks_AssignedToMe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createTestUser(t, env.store, "ada", "user")
	member := createTestUser(t, env.store, "grace", "user")

	project := createTestProject(t, env, owner, "Apollo")
	addTestMember(t, env, owner, project.ID, member, domain.MemberRoleMember)

	_, err := env.tasks.Create(ctx, owner, CreateTaskRequest{
		ProjectID:   project.ID,
		Name:        "Assigned",
		AssigneeIDs: []string{member.ID},
	})
	require.NoError(t, err)
	createTestTask(t, env, owner, project.ID, "Unassigned")

	page, err := env.tasks.List(ctx, member, ListTasksRequest{AssignedToMe: true})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "Assigned", page.Items[0].Name)
}

func TestSubTasks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createTestUser(t, env.store, "ada", "user")
	member := createTestUser(t, env.store, "grace", "user")

	project := createTestProject(t, env, owner, "Apollo")
	addTestMember(t, env, owner, project.ID, member, domain.MemberRoleMember)

	task := createTestTask(t, env, owner, project.ID, "Write proposal")

	// Any member can manage the checklist.
	sub, err := env.tasks.CreateSubTask(ctx, member, task.ID, CreateSubTaskRequest{Title: "Outline"})
	require.NoError(t, err)
	assert.False(t, sub.IsDone)

	done := true
	sub, err = env.tasks.UpdateSubTask(ctx, member, task.ID, sub.ID, UpdateSubTaskRequest{IsDone: &done})
	require.NoError(t, err)
	assert.True(t, sub.IsDone)

	subs, err := env.tasks.ListSubTasks(ctx, member, task.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)

	require.NoError(t, env.tasks.DeleteSubTask(ctx, member, task.ID, sub.ID))

	subs, err = env.tasks.ListSubTasks(ctx, member, task.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestSubTask_WrongTaskNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createTestUser(t, env.store, "ada", "user")
	project := createTestProject(t, env, owner, "Apollo")

	taskA := createTestTask(t, env, owner, project.ID, "First")
	taskB := createTestTask(t, env, owner, project.ID, "Second")

	sub, err := env.tasks.CreateSubTask(ctx, owner, taskA.ID, CreateSubTaskRequest{Title: "Outline"})
	require.NoError(t, err)

	_, err = env.tasks.UpdateSubTask(ctx, owner, taskB.ID, sub.ID, UpdateSubTaskRequest{})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeNotFound, domainErr.Code)
}
