package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blancapp/blanc-server/internal/domain"
	domainerrors "github.com/blancapp/blanc-server/internal/errors"
)

func TestCreateTag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tag, err := env.tags.Create(ctx, CreateTagRequest{Name: "urgent"})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultTagColor, tag.Color)

	colored, err := env.tags.Create(ctx, CreateTagRequest{Name: "design", Color: "#ff8800"})
	require.NoError(t, err)
	assert.Equal(t, "#ff8800", colored.Color)

	// Names are globally unique.
	_, err = env.tags.Create(ctx, CreateTagRequest{Name: "urgent"})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeAlreadyExists, domainErr.Code)
}

func TestUpdateTag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tag, err := env.tags.Create(ctx, CreateTagRequest{Name: "urgent"})
	require.NoError(t, err)

	color := "#00ff00"
	updated, err := env.tags.Update(ctx, tag.ID, UpdateTagRequest{Color: &color})
	require.NoError(t, err)
	assert.Equal(t, "#00ff00", updated.Color)
	assert.Equal(t, "urgent", updated.Name)
}

func TestTagProjectAttachment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createTestUser(t, env.store, "ada", "user")
	outsider := createTestUser(t, env.store, "eve", "user")

	project := createTestProject(t, env, owner, "Apollo")

	tag, err := env.tags.Create(ctx, CreateTagRequest{Name: "urgent"})
	require.NoError(t, err)

	// Attaching takes project membership.
	err = env.tags.AssignToProject(ctx, outsider, tag.ID, project.ID)
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeForbidden, domainErr.Code)

	require.NoError(t, env.tags.AssignToProject(ctx, owner, tag.ID, project.ID))
	// Attaching twice is a no-op.
	require.NoError(t, env.tags.AssignToProject(ctx, owner, tag.ID, project.ID))

	tags, err := env.tags.ProjectTags(ctx, owner, project.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "urgent", tags[0].Name)

	require.NoError(t, env.tags.UnassignFromProject(ctx, owner, tag.ID, project.ID))

	tags, err = env.tags.ProjectTags(ctx, owner, project.ID)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestTagTaskAttachment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createTestUser(t, env.store, "ada", "user")
	member := createTestUser(t, env.store, "grace", "user")

	project := createTestProject(t, env, owner, "Apollo")
	addTestMember(t, env, owner, project.ID, member, domain.MemberRoleMember)
	task := createTestTask(t, env, owner, project.ID, "Write proposal")

	tag, err := env.tags.Create(ctx, CreateTagRequest{Name: "urgent"})
	require.NoError(t, err)

	// Plain members can label tasks.
	require.NoError(t, env.tags.AssignToTask(ctx, member, tag.ID, task.ID))

	tags, err := env.tags.TaskTags(ctx, member, task.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)

	require.NoError(t, env.tags.UnassignFromTask(ctx, member, tag.ID, task.ID))
}

func TestDeleteTag_ClearsAttachments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := createTestUser(t, env.store, "ada", "user")
	project := createTestProject(t, env, owner, "Apollo")

	tag, err := env.tags.Create(ctx, CreateTagRequest{Name: "urgent"})
	require.NoError(t, err)
	require.NoError(t, env.tags.AssignToProject(ctx, owner, tag.ID, project.ID))

	require.NoError(t, env.tags.Delete(ctx, tag.ID))

	tags, err := env.tags.ProjectTags(ctx, owner, project.ID)
	require.NoError(t, err)
	assert.Empty(t, tags)

	err = env.tags.Delete(ctx, tag.ID)
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeNotFound, domainErr.Code)
}
