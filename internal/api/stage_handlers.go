package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/service"
)

func (s *Server) registerStageRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createStage",
		Method:        http.MethodPost,
		Path:          "/api/v1/projects/{id}/stages",
		Summary:       "Create stage",
		Description:   "Adds a kanban column to a project",
		Tags:          []string{"Stages"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateStage)

	huma.Register(s.api, huma.Operation{
		OperationID: "listStages",
		Method:      http.MethodGet,
		Path:        "/api/v1/projects/{id}/stages",
		Summary:     "List stages",
		Description: "Returns the project's columns in board order",
		Tags:        []string{"Stages"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListStages)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateStage",
		Method:      http.MethodPatch,
		Path:        "/api/v1/projects/{id}/stages/{stageID}",
		Summary:     "Update stage",
		Tags:        []string{"Stages"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateStage)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteStage",
		Method:      http.MethodDelete,
		Path:        "/api/v1/projects/{id}/stages/{stageID}",
		Summary:     "Delete stage",
		Description: "Removes a column; its tasks move to the project's default stage",
		Tags:        []string{"Stages"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteStage)
}

// === DTOs ===

// CreateStageRequest is the request body for creating a stage.
type CreateStageRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=255" doc:"Column name"`
	Sequence int    `json:"sequence,omitempty" validate:"gte=0" doc:"Board position"`
}

// CreateStageInput wraps the stage request for Huma.
type CreateStageInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Project ID"`
	Body          CreateStageRequest
}

// StageOutput wraps a single stage for Huma.
type StageOutput struct {
	Body *domain.Stage
}

// StagesOutput wraps a stage listing for Huma.
type StagesOutput struct {
	Body []*domain.Stage
}

// UpdateStageRequest is the request body for stage edits.
type UpdateStageRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=255" doc:"New column name"`
	Sequence *int    `json:"sequence,omitempty" validate:"omitempty,gte=0" doc:"New board position"`
}

// UpdateStageInput wraps the stage edit request for Huma.
type UpdateStageInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Project ID"`
	StageID       string `path:"stageID" doc:"Stage ID"`
	Body          UpdateStageRequest
}

// StageIDInput identifies a stage by project and stage ID.
type StageIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Project ID"`
	StageID       string `path:"stageID" doc:"Stage ID"`
}

// DeleteStageOutput reports how many tasks moved off a deleted stage.
type DeleteStageOutput struct {
	Body *service.DeleteStageResult
}

// === Handlers ===

func (s *Server) handleCreateStage(ctx context.Context, input *CreateStageInput) (*StageOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	stage, err := s.services.Stage.Create(ctx, caller, input.ID, service.CreateStageRequest{
		Name:     input.Body.Name,
		Sequence: input.Body.Sequence,
	})
	if err != nil {
		return nil, err
	}

	return &StageOutput{Body: stage}, nil
}

func (s *Server) handleListStages(ctx context.Context, input *ProjectIDInput) (*StagesOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	stages, err := s.services.Stage.List(ctx, caller, input.ID)
	if err != nil {
		return nil, err
	}

	return &StagesOutput{Body: stages}, nil
}

func (s *Server) handleUpdateStage(ctx context.Context, input *UpdateStageInput) (*StageOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	stage, err := s.services.Stage.Update(ctx, caller, input.ID, input.StageID, service.UpdateStageRequest{
		Name:     input.Body.Name,
		Sequence: input.Body.Sequence,
	})
	if err != nil {
		return nil, err
	}

	return &StageOutput{Body: stage}, nil
}

func (s *Server) handleDeleteStage(ctx context.Context, input *StageIDInput) (*DeleteStageOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Stage.Delete(ctx, caller, input.ID, input.StageID)
	if err != nil {
		return nil, err
	}

	return &DeleteStageOutput{Body: result}, nil
}
