package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/blancapp/blanc-server/internal/domain"
	domainerrors "github.com/blancapp/blanc-server/internal/errors"
	"github.com/blancapp/blanc-server/internal/id"
	"github.com/blancapp/blanc-server/internal/store"
)

// TagService manages the global tag pool and tag attachments. Tags are
// shared across projects; any authenticated user can create and edit
// them, but attaching one requires membership in the target's project.
type TagService struct {
	store  store.Store
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store store.Store, logger *slog.Logger) *TagService {
	return &TagService{store: store, logger: logger}
}

// CreateTagRequest adds a tag to the global pool.
type CreateTagRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=64"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// UpdateTagRequest edits a tag. Nil fields are left unchanged.
type UpdateTagRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=64"`
	Color *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// Create adds a tag. Names are globally unique.
func (s *TagService) Create(ctx context.Context, req CreateTagRequest) (*domain.Tag, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	color := req.Color
	if color == "" {
		color = domain.DefaultTagColor
	}

	tagID, err := id.Generate("tag")
	if err != nil {
		return nil, fmt.Errorf("generate tag ID: %w", err)
	}

	tag := &domain.Tag{ID: tagID, Name: req.Name, Color: color}
	if err := s.store.CreateTag(ctx, tag); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("tag name already in use")
		}
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return tag, nil
}

// List returns every tag, ordered by name.
func (s *TagService) List(ctx context.Context) ([]*domain.Tag, error) {
	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// Update edits a tag's name or color.
func (s *TagService) Update(ctx context.Context, tagID string, req UpdateTagRequest) (*domain.Tag, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	tag, err := s.get(ctx, tagID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		tag.Name = *req.Name
	}
	if req.Color != nil {
		tag.Color = *req.Color
	}
	if err := s.store.UpdateTag(ctx, tag); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("tag name already in use")
		}
		return nil, fmt.Errorf("update tag: %w", err)
	}
	return tag, nil
}

// Delete removes a tag everywhere it is attached.
func (s *TagService) Delete(ctx context.Context, tagID string) error {
	if err := s.store.DeleteTag(ctx, tagID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("tag not found")
		}
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}

// AssignToProject attaches a tag to a project. Idempotent; requires
// membership.
func (s *TagService) AssignToProject(ctx context.Context, caller *domain.User, tagID, projectID string) error {
	if err := s.requireProjectMembership(ctx, caller, projectID); err != nil {
		return err
	}
	if _, err := s.get(ctx, tagID); err != nil {
		return err
	}

	if err := s.store.TagProject(ctx, tagID, projectID); err != nil {
		return fmt.Errorf("tag project: %w", err)
	}
	return nil
}

// UnassignFromProject detaches a tag from a project. Idempotent.
func (s *TagService) UnassignFromProject(ctx context.Context, caller *domain.User, tagID, projectID string) error {
	if err := s.requireProjectMembership(ctx, caller, projectID); err != nil {
		return err
	}
	if _, err := s.get(ctx, tagID); err != nil {
		return err
	}

	if err := s.store.UntagProject(ctx, tagID, projectID); err != nil {
		return fmt.Errorf("untag project: %w", err)
	}
	return nil
}

// AssignToTask attaches a tag to a task. Idempotent; requires membership
// in the task's project.
func (s *TagService) AssignToTask(ctx context.Context, caller *domain.User, tagID, taskID string) error {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.requireProjectMembership(ctx, caller, task.ProjectID); err != nil {
		return err
	}
	if _, err := s.get(ctx, tagID); err != nil {
		return err
	}

	if err := s.store.TagTask(ctx, tagID, taskID); err != nil {
		return fmt.Errorf("tag task: %w", err)
	}
	return nil
}

// UnassignFromTask detaches a tag from a task. Idempotent.
func (s *TagService) UnassignFromTask(ctx context.Context, caller *domain.User, tagID, taskID string) error {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.requireProjectMembership(ctx, caller, task.ProjectID); err != nil {
		return err
	}
	if _, err := s.get(ctx, tagID); err != nil {
		return err
	}

	if err := s.store.UntagTask(ctx, tagID, taskID); err != nil {
		return fmt.Errorf("untag task: %w", err)
	}
	return nil
}

// ProjectTags returns a project's tags. Requires membership.
func (s *TagService) ProjectTags(ctx context.Context, caller *domain.User, projectID string) ([]*domain.Tag, error) {
	if err := s.requireProjectMembership(ctx, caller, projectID); err != nil {
		return nil, err
	}

	tags, err := s.store.ListProjectTags(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project tags: %w", err)
	}
	return tags, nil
}

// TaskTags returns a task's tags. Requires membership in the task's
// project.
func (s *TagService) TaskTags(ctx context.Context, caller *domain.User, taskID string) ([]*domain.Tag, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.requireProjectMembership(ctx, caller, task.ProjectID); err != nil {
		return nil, err
	}

	tags, err := s.store.ListTaskTags(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("list task tags: %w", err)
	}
	return tags, nil
}

func (s *TagService) get(ctx context.Context, tagID string) (*domain.Tag, error) {
	tag, err := s.store.GetTag(ctx, tagID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("tag not found")
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return tag, nil
}

func (s *TagService) loadTask(ctx context.Context, taskID string) (*domain.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("task not found")
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// requireProjectMembership rejects callers with no standing toward the
// project. Admins pass.
func (s *TagService) requireProjectMembership(ctx context.Context, caller *domain.User, projectID string) error {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("project not found")
		}
		return fmt.Errorf("get project: %w", err)
	}

	if caller.IsAdmin() {
		return nil
	}

	rel, err := resolveRelationship(ctx, s.store, caller.ID, project)
	if err != nil {
		return err
	}
	if !rel.IsMember() {
		return domainerrors.Forbidden("not a member of this project")
	}
	return nil
}
