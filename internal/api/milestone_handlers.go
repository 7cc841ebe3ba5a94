package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/service"
)

func (s *Server) registerMilestoneRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createMilestone",
		Method:        http.MethodPost,
		Path:          "/api/v1/projects/{id}/milestones",
		Summary:       "Create milestone",
		Description:   "Adds a milestone to a project with milestones enabled",
		Tags:          []string{"Milestones"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateMilestone)

	huma.Register(s.api, huma.Operation{
		OperationID: "listMilestones",
		Method:      http.MethodGet,
		Path:        "/api/v1/projects/{id}/milestones",
		Summary:     "List milestones",
		Tags:        []string{"Milestones"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMilestones)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteMilestone",
		Method:      http.MethodDelete,
		Path:        "/api/v1/projects/{id}/milestones/{milestoneID}",
		Summary:     "Delete milestone",
		Tags:        []string{"Milestones"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteMilestone)
}

// === DTOs ===

// CreateMilestoneRequest is the request body for creating a milestone.
type CreateMilestoneRequest struct {
	Name    string     `json:"name" validate:"required,min=1,max=255" doc:"Milestone name"`
	DueDate *time.Time `json:"due_date,omitempty" doc:"Optional due date"`
}

// CreateMilestoneInput wraps the milestone request for Huma.
type CreateMilestoneInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Project ID"`
	Body          CreateMilestoneRequest
}

// MilestoneOutput wraps a single milestone for Huma.
type MilestoneOutput struct {
	Body *domain.Milestone
}

// MilestonesOutput wraps a milestone listing for Huma.
type MilestonesOutput struct {
	Body []*domain.Milestone
}

// MilestoneIDInput identifies a milestone by project and milestone ID.
type MilestoneIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Project ID"`
	MilestoneID   string `path:"milestoneID" doc:"Milestone ID"`
}

// === Handlers ===

func (s *Server) handleCreateMilestone(ctx context.Context, input *CreateMilestoneInput) (*MilestoneOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	milestone, err := s.services.Project.CreateMilestone(ctx, caller, input.ID, service.CreateMilestoneRequest{
		Name:    input.Body.Name,
		DueDate: input.Body.DueDate,
	})
	if err != nil {
		return nil, err
	}

	return &MilestoneOutput{Body: milestone}, nil
}

func (s *Server) handleListMilestones(ctx context.Context, input *ProjectIDInput) (*MilestonesOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	milestones, err := s.services.Project.ListMilestones(ctx, caller, input.ID)
	if err != nil {
		return nil, err
	}

	return &MilestonesOutput{Body: milestones}, nil
}

func (s *Server) handleDeleteMilestone(ctx context.Context, input *MilestoneIDInput) (*MessageOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Project.DeleteMilestone(ctx, caller, input.ID, input.MilestoneID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Milestone deleted"}}, nil
}
