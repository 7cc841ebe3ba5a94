package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/service"
)

func (s *Server) registerSubTaskRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createSubTask",
		Method:        http.MethodPost,
		Path:          "/api/v1/tasks/{id}/subtasks",
		Summary:       "Create subtask",
		Description:   "Adds a checklist item to a task",
		Tags:          []string{"Subtasks"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateSubTask)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSubTasks",
		Method:      http.MethodGet,
		Path:        "/api/v1/tasks/{id}/subtasks",
		Summary:     "List subtasks",
		Tags:        []string{"Subtasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListSubTasks)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSubTask",
		Method:      http.MethodPut,
		Path:        "/api/v1/tasks/{id}/subtasks/{subtaskID}",
		Summary:     "Update subtask",
		Tags:        []string{"Subtasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateSubTask)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteSubTask",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tasks/{id}/subtasks/{subtaskID}",
		Summary:     "Delete subtask",
		Tags:        []string{"Subtasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteSubTask)
}

// === DTOs ===

// CreateSubTaskRequest is the request body for creating a subtask.
type CreateSubTaskRequest struct {
	Title  string `json:"title" validate:"required,min=1,max=255" doc:"Checklist item title"`
	IsDone bool   `json:"is_done,omitempty" doc:"Completion flag"`
}

// CreateSubTaskInput wraps the subtask request for Huma.
type CreateSubTaskInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Task ID"`
	Body          CreateSubTaskRequest
}

// SubTaskOutput wraps a single subtask for Huma.
type SubTaskOutput struct {
	Body *domain.SubTask
}

// SubTasksOutput wraps a subtask listing for Huma.
type SubTasksOutput struct {
	Body []*domain.SubTask
}

// UpdateSubTaskRequest is the request body for subtask edits.
type UpdateSubTaskRequest struct {
	Title  *string `json:"title,omitempty" validate:"omitempty,min=1,max=255" doc:"New title"`
	IsDone *bool   `json:"is_done,omitempty" doc:"New completion flag"`
}

// UpdateSubTaskInput wraps the subtask edit request for Huma.
type UpdateSubTaskInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Task ID"`
	SubtaskID     string `path:"subtaskID" doc:"Subtask ID"`
	Body          UpdateSubTaskRequest
}

// SubTaskIDInput identifies a subtask by task and subtask ID.
type SubTaskIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Task ID"`
	SubtaskID     string `path:"subtaskID" doc:"Subtask ID"`
}

// === Handlers ===

func (s *Server) handleCreateSubTask(ctx context.Context, input *CreateSubTaskInput) (*SubTaskOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	subtask, err := s.services.Task.CreateSubTask(ctx, caller, input.ID, service.CreateSubTaskRequest{
		Title:  input.Body.Title,
		IsDone: input.Body.IsDone,
	})
	if err != nil {
		return nil, err
	}

	return &SubTaskOutput{Body: subtask}, nil
}

func (s *Server) handleListSubTasks(ctx context.Context, input *TaskIDInput) (*SubTasksOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	subtasks, err := s.services.Task.ListSubTasks(ctx, caller, input.ID)
	if err != nil {
		return nil, err
	}

	return &SubTasksOutput{Body: subtasks}, nil
}

func (s *Server) handleUpdateSubTask(ctx context.Context, input *UpdateSubTaskInput) (*SubTaskOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	subtask, err := s.services.Task.UpdateSubTask(ctx, caller, input.ID, input.SubtaskID, service.UpdateSubTaskRequest{
		Title:  input.Body.Title,
		IsDone: input.Body.IsDone,
	})
	if err != nil {
		return nil, err
	}

	return &SubTaskOutput{Body: subtask}, nil
}

func (s *Server) handleDeleteSubTask(ctx context.Context, input *SubTaskIDInput) (*MessageOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Task.DeleteSubTask(ctx, caller, input.ID, input.SubtaskID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Subtask deleted"}}, nil
}
