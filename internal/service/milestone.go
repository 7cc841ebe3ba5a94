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

// CreateMilestoneRequest adds a milestone to a project.
type CreateMilestoneRequest struct {
	Name    string     `json:"name" validate:"required,min=1,max=255"`
	DueDate *time.Time `json:"due_date,omitempty"`
}

// CreateMilestone adds a milestone. Manager standing required, and the
// project must have milestones enabled.
func (s *ProjectService) CreateMilestone(ctx context.Context, caller *domain.User, projectID string, req CreateMilestoneRequest) (*domain.Milestone, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	project, _, err := s.authorize(ctx, caller, projectID, policy.OpUpdate)
	if err != nil {
		return nil, err
	}
	if !project.AllowMilestones {
		return nil, domainerrors.Validation("milestones are not enabled for this project")
	}

	milestoneID, err := id.Generate("ms")
	if err != nil {
		return nil, fmt.Errorf("generate milestone ID: %w", err)
	}

	milestone := &domain.Milestone{
		ID:        milestoneID,
		ProjectID: projectID,
		Name:      req.Name,
		DueDate:   req.DueDate,
	}
	if err := s.store.CreateMilestone(ctx, milestone); err != nil {
		return nil, fmt.Errorf("create milestone: %w", err)
	}
	return milestone, nil
}

// ListMilestones returns a project's milestones.
func (s *ProjectService) ListMilestones(ctx context.Context, caller *domain.User, projectID string) ([]*domain.Milestone, error) {
	if _, _, err := s.authorize(ctx, caller, projectID, policy.OpRead); err != nil {
		return nil, err
	}

	milestones, err := s.store.ListProjectMilestones(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	return milestones, nil
}

// DeleteMilestone removes a milestone. Tasks pointing at it keep
// existing, just without a milestone.
func (s *ProjectService) DeleteMilestone(ctx context.Context, caller *domain.User, projectID, milestoneID string) error {
	if _, _, err := s.authorize(ctx, caller, projectID, policy.OpUpdate); err != nil {
		return err
	}

	milestone, err := s.store.GetMilestone(ctx, milestoneID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("milestone not found")
		}
		return fmt.Errorf("get milestone: %w", err)
	}
	if milestone.ProjectID != projectID {
		return domainerrors.NotFound("milestone not found")
	}

	if err := s.store.DeleteMilestone(ctx, milestoneID); err != nil {
		return fmt.Errorf("delete milestone: %w", err)
	}
	return nil
}
