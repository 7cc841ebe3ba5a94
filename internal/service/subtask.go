package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blancapp/blanc-server/internal/domain"
	domainerrors "github.com/blancapp/blanc-server/internal/errors"
	"github.com/blancapp/blanc-server/internal/id"
	"github.com/blancapp/blanc-server/internal/policy"
	"github.com/blancapp/blanc-server/internal/store"
)

// Subtask checklists hang off tasks and are open to every project
// member, no creator or manager gate.

// CreateSubTaskRequest adds a checklist item to a task.
type CreateSubTaskRequest struct {
	Title  string `json:"title" validate:"required,min=1,max=255"`
	IsDone bool   `json:"is_done"`
}

// UpdateSubTaskRequest edits a checklist item. Nil fields are left
// unchanged.
type UpdateSubTaskRequest struct {
	Title  *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	IsDone *bool   `json:"is_done,omitempty"`
}

// CreateSubTask adds a checklist item to a task the caller can see.
func (s *TaskService) CreateSubTask(ctx context.Context, caller *domain.User, taskID string, req CreateSubTaskRequest) (*domain.SubTask, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	if _, _, err := s.authorizeTask(ctx, caller, taskID, policy.OpRead); err != nil {
		return nil, err
	}

	subtaskID, err := id.Generate("sub")
	if err != nil {
		return nil, fmt.Errorf("generate subtask ID: %w", err)
	}

	now := time.Now()
	subtask := &domain.SubTask{
		ID:        subtaskID,
		TaskID:    taskID,
		Title:     req.Title,
		IsDone:    req.IsDone,
		OwnerID:   caller.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateSubTask(ctx, subtask); err != nil {
		return nil, fmt.Errorf("create subtask: %w", err)
	}
	return subtask, nil
}

// ListSubTasks returns a task's checklist.
func (s *TaskService) ListSubTasks(ctx context.Context, caller *domain.User, taskID string) ([]*domain.SubTask, error) {
	if _, _, err := s.authorizeTask(ctx, caller, taskID, policy.OpRead); err != nil {
		return nil, err
	}

	subtasks, err := s.store.ListTaskSubTasks(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	return subtasks, nil
}

// UpdateSubTask edits a checklist item.
func (s *TaskService) UpdateSubTask(ctx context.Context, caller *domain.User, taskID, subtaskID string, req UpdateSubTaskRequest) (*domain.SubTask, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	subtask, err := s.loadTaskSubTask(ctx, caller, taskID, subtaskID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		subtask.Title = *req.Title
	}
	if req.IsDone != nil {
		subtask.IsDone = *req.IsDone
	}
	subtask.UpdatedAt = time.Now()

	if err := s.store.UpdateSubTask(ctx, subtask); err != nil {
		return nil, fmt.Errorf("update subtask: %w", err)
	}
	return subtask, nil
}

// DeleteSubTask removes a checklist item.
func (s *TaskService) DeleteSubTask(ctx context.Context, caller *domain.User, taskID, subtaskID string) error {
	if _, err := s.loadTaskSubTask(ctx, caller, taskID, subtaskID); err != nil {
		return err
	}

	if err := s.store.DeleteSubTask(ctx, subtaskID); err != nil {
		return fmt.Errorf("delete subtask: %w", err)
	}
	return nil
}

// loadTaskSubTask fetches a subtask, verifies it belongs to taskID, and
// checks the caller can see the task.
func (s *TaskService) loadTaskSubTask(ctx context.Context, caller *domain.User, taskID, subtaskID string) (*domain.SubTask, error) {
	if _, _, err := s.authorizeTask(ctx, caller, taskID, policy.OpRead); err != nil {
		return nil, err
	}

	subtask, err := s.store.GetSubTask(ctx, subtaskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("subtask not found")
		}
		return nil, fmt.Errorf("get subtask: %w", err)
	}
	if subtask.TaskID != taskID {
		return nil, domainerrors.NotFound("subtask not found")
	}
	return subtask, nil
}
