package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/blancapp/blanc-server/internal/domain"
	domainerrors "github.com/blancapp/blanc-server/internal/errors"
	"github.com/blancapp/blanc-server/internal/id"
	"github.com/blancapp/blanc-server/internal/policy"
	"github.com/blancapp/blanc-server/internal/store"
)

// StageService manages the kanban board of a project.
type StageService struct {
	store  store.Store
	logger *slog.Logger
}

// NewStageService creates a new stage service.
func NewStageService(store store.Store, logger *slog.Logger) *StageService {
	return &StageService{store: store, logger: logger}
}

// CreateStageRequest adds a column to the board.
type CreateStageRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Sequence int    `json:"sequence" validate:"gte=0"`
}

// UpdateStageRequest renames or reorders a column. Nil fields are left
// unchanged.
type UpdateStageRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Sequence *int    `json:"sequence,omitempty" validate:"omitempty,gte=0"`
}

// DeleteStageResult reports a stage deletion.
type DeleteStageResult struct {
	MovedTasks int `json:"moved_tasks"` // Tasks reassigned to the default stage
}

// authorize checks the caller's standing on the stage's project.
func (s *StageService) authorize(ctx context.Context, caller *domain.User, projectID string, op policy.Operation) (*domain.Project, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("project not found")
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	rel, err := resolveRelationship(ctx, s.store, caller.ID, project)
	if err != nil {
		return nil, err
	}

	decision := policy.Stage(op, policy.Input{Rel: rel, Admin: caller.IsAdmin()})
	if !decision.Allowed {
		return nil, domainerrors.Forbidden("not authorized for this project").
			WithDetails(map[string]string{"reason": decision.Reason})
	}
	return project, nil
}

// Create adds a non-default stage to the project's board.
func (s *StageService) Create(ctx context.Context, caller *domain.User, projectID string, req CreateStageRequest) (*domain.Stage, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	if _, err := s.authorize(ctx, caller, projectID, policy.OpCreate); err != nil {
		return nil, err
	}

	stageID, err := id.Generate("stage")
	if err != nil {
		return nil, fmt.Errorf("generate stage ID: %w", err)
	}

	stage := &domain.Stage{
		ID:        stageID,
		ProjectID: projectID,
		Name:      req.Name,
		Sequence:  req.Sequence,
	}
	if err := s.store.CreateStage(ctx, stage); err != nil {
		return nil, fmt.Errorf("create stage: %w", err)
	}
	return stage, nil
}

// List returns the project's board, ordered by sequence.
func (s *StageService) List(ctx context.Context, caller *domain.User, projectID string) ([]*domain.Stage, error) {
	if _, err := s.authorize(ctx, caller, projectID, policy.OpRead); err != nil {
		return nil, err
	}

	stages, err := s.store.ListProjectStages(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	return stages, nil
}

// Update renames or reorders a stage.
func (s *StageService) Update(ctx context.Context, caller *domain.User, projectID, stageID string, req UpdateStageRequest) (*domain.Stage, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	if _, err := s.authorize(ctx, caller, projectID, policy.OpUpdate); err != nil {
		return nil, err
	}

	stage, err := s.loadProjectStage(ctx, projectID, stageID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		stage.Name = *req.Name
	}
	if req.Sequence != nil {
		stage.Sequence = *req.Sequence
	}
	if err := s.store.UpdateStage(ctx, stage); err != nil {
		return nil, fmt.Errorf("update stage: %w", err)
	}
	return stage, nil
}

// Delete removes a stage, moving its tasks to the project's default
// stage in the same transaction. The default stage itself cannot be
// deleted.
func (s *StageService) Delete(ctx context.Context, caller *domain.User, projectID, stageID string) (*DeleteStageResult, error) {
	if _, err := s.authorize(ctx, caller, projectID, policy.OpDelete); err != nil {
		return nil, err
	}

	if _, err := s.loadProjectStage(ctx, projectID, stageID); err != nil {
		return nil, err
	}

	moved, err := s.store.DeleteStage(ctx, stageID)
	if err != nil {
		if errors.Is(err, store.ErrInvalidInput) {
			return nil, domainerrors.Validation("cannot delete the default stage")
		}
		return nil, fmt.Errorf("delete stage: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Stage deleted",
			"stage_id", stageID,
			"project_id", projectID,
			"moved_tasks", moved,
		)
	}
	return &DeleteStageResult{MovedTasks: moved}, nil
}

// loadProjectStage fetches a stage and verifies it belongs to projectID.
func (s *StageService) loadProjectStage(ctx context.Context, projectID, stageID string) (*domain.Stage, error) {
	stage, err := s.store.GetStage(ctx, stageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("stage not found")
		}
		return nil, fmt.Errorf("get stage: %w", err)
	}
	if stage.ProjectID != projectID {
		return nil, domainerrors.NotFound("stage not found")
	}
	return stage, nil
}
