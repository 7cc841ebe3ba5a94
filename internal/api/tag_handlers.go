package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/service"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createTag",
		Method:        http.MethodPost,
		Path:          "/api/v1/tags",
		Summary:       "Create tag",
		Description:   "Creates a tag in the shared vocabulary",
		Tags:          []string{"Tags"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTag",
		Method:      http.MethodPut,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Update tag",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Delete tag",
		Description: "Removes a tag and every attachment of it",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "assignTagToProject",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags/project/{projectID}/assign/{tagID}",
		Summary:     "Attach tag to project",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAssignTagToProject)

	huma.Register(s.api, huma.Operation{
		OperationID: "unassignTagFromProject",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/project/{projectID}/unassign/{tagID}",
		Summary:     "Detach tag from project",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUnassignTagFromProject)

	huma.Register(s.api, huma.Operation{
		OperationID: "assignTagToTask",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags/task/{taskID}/assign/{tagID}",
		Summary:     "Attach tag to task",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAssignTagToTask)

	huma.Register(s.api, huma.Operation{
		OperationID: "unassignTagFromTask",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/task/{taskID}/unassign/{tagID}",
		Summary:     "Detach tag from task",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUnassignTagFromTask)
}

// === DTOs ===

// CreateTagRequest is the request body for creating a tag.
type CreateTagRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=64" doc:"Tag name (globally unique)"`
	Color string `json:"color,omitempty" validate:"omitempty,hexcolor" doc:"Hex color (defaults to #999999)"`
}

// CreateTagInput wraps the create tag request for Huma.
type CreateTagInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateTagRequest
}

// TagOutput wraps a single tag for Huma.
type TagOutput struct {
	Body *domain.Tag
}

// UpdateTagRequest is the request body for tag edits.
type UpdateTagRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=64" doc:"New name"`
	Color *string `json:"color,omitempty" validate:"omitempty,hexcolor" doc:"New hex color"`
}

// UpdateTagInput wraps the tag edit request for Huma.
type UpdateTagInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Tag ID"`
	Body          UpdateTagRequest
}

// TagIDInput identifies a tag by path parameter.
type TagIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Tag ID"`
}

// ProjectTagInput identifies a project/tag attachment pair.
type ProjectTagInput struct {
	Authorization string `header:"Authorization"`
	ProjectID     string `path:"projectID" doc:"Project ID"`
	TagID         string `path:"tagID" doc:"Tag ID"`
}

// TaskTagInput identifies a task/tag attachment pair.
type TaskTagInput struct {
	Authorization string `header:"Authorization"`
	TaskID        string `path:"taskID" doc:"Task ID"`
	TagID         string `path:"tagID" doc:"Tag ID"`
}

// === Handlers ===

func (s *Server) handleCreateTag(ctx context.Context, input *CreateTagInput) (*TagOutput, error) {
	if _, err := s.requireUser(ctx, input.Authorization); err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.Create(ctx, service.CreateTagRequest{
		Name:  input.Body.Name,
		Color: input.Body.Color,
	})
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: tag}, nil
}

func (s *Server) handleListTags(ctx context.Context, input *GetCurrentUserInput) (*TagsOutput, error) {
	if _, err := s.requireUser(ctx, input.Authorization); err != nil {
		return nil, err
	}

	tags, err := s.services.Tag.List(ctx)
	if err != nil {
		return nil, err
	}

	return &TagsOutput{Body: tags}, nil
}

func (s *Server) handleUpdateTag(ctx context.Context, input *UpdateTagInput) (*TagOutput, error) {
	if _, err := s.requireUser(ctx, input.Authorization); err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.Update(ctx, input.ID, service.UpdateTagRequest{
		Name:  input.Body.Name,
		Color: input.Body.Color,
	})
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: tag}, nil
}

func (s *Server) handleDeleteTag(ctx context.Context, input *TagIDInput) (*MessageOutput, error) {
	if _, err := s.requireUser(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if err := s.services.Tag.Delete(ctx, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Tag deleted"}}, nil
}

func (s *Server) handleAssignTagToProject(ctx context.Context, input *ProjectTagInput) (*MessageOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tag.AssignToProject(ctx, caller, input.TagID, input.ProjectID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Tag assigned"}}, nil
}

func (s *Server) handleUnassignTagFromProject(ctx context.Context, input *ProjectTagInput) (*MessageOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tag.UnassignFromProject(ctx, caller, input.TagID, input.ProjectID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Tag unassigned"}}, nil
}

func (s *Server) handleAssignTagToTask(ctx context.Context, input *TaskTagInput) (*MessageOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tag.AssignToTask(ctx, caller, input.TagID, input.TaskID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Tag assigned"}}, nil
}

func (s *Server) handleUnassignTagFromTask(ctx context.Context, input *TaskTagInput) (*MessageOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tag.UnassignFromTask(ctx, caller, input.TagID, input.TaskID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Tag unassigned"}}, nil
}
