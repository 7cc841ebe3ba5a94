package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/service"
	"github.com/blancapp/blanc-server/internal/store"
)

func (s *Server) registerTaskRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createTask",
		Method:        http.MethodPost,
		Path:          "/api/v1/tasks",
		Summary:       "Create task",
		Description:   "Creates a task in a project the caller belongs to",
		Tags:          []string{"Tasks"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateTask)

	huma.Register(s.api, huma.Operation{
		OperationID: "listTasks",
		Method:      http.MethodGet,
		Path:        "/api/v1/tasks",
		Summary:     "List tasks",
		Description: "Returns tasks visible to the caller, filtered and paginated",
		Tags:        []string{"Tasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListTasks)

	huma.Register(s.api, huma.Operation{
		OperationID: "taskMessageCounts",
		Method:      http.MethodGet,
		Path:        "/api/v1/tasks/message-counts",
		Summary:     "Message counts per task",
		Description: "Returns the comment count for each requested task ID",
		Tags:        []string{"Tasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleTaskMessageCounts)

	huma.Register(s.api, huma.Operation{
		OperationID: "bulkDeleteTasks",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tasks/bulk",
		Summary:     "Bulk delete tasks",
		Tags:        []string{"Tasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleBulkDeleteTasks)

	huma.Register(s.api, huma.Operation{
		OperationID: "bulkArchiveTasks",
		Method:      http.MethodPut,
		Path:        "/api/v1/tasks/bulk/archive",
		Summary:     "Bulk archive tasks",
		Tags:        []string{"Tasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleBulkArchiveTasks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "bulkDuplicateTasks",
		Method:        http.MethodPost,
		Path:          "/api/v1/tasks/bulk/duplicate",
		Summary:       "Bulk duplicate tasks",
		Tags:          []string{"Tasks"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleBulkDuplicateTasks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTask",
		Method:      http.MethodGet,
		Path:        "/api/v1/tasks/{id}",
		Summary:     "Get task",
		Tags:        []string{"Tasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetTask)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTask",
		Method:      http.MethodPut,
		Path:        "/api/v1/tasks/{id}",
		Summary:     "Update task",
		Tags:        []string{"Tasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateTask)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTask",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tasks/{id}",
		Summary:     "Delete task",
		Tags:        []string{"Tasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteTask)

	huma.Register(s.api, huma.Operation{
		OperationID: "moveTaskStage",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tasks/{id}/stage",
		Summary:     "Move task between stages",
		Tags:        []string{"Tasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMoveTaskStage)

	huma.Register(s.api, huma.Operation{
		OperationID: "archiveTask",
		Method:      http.MethodPut,
		Path:        "/api/v1/tasks/{id}/archive",
		Summary:     "Archive task",
		Tags:        []string{"Tasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleArchiveTask)

	huma.Register(s.api, huma.Operation{
		OperationID:   "duplicateTask",
		Method:        http.MethodPost,
		Path:          "/api/v1/tasks/{id}/duplicate",
		Summary:       "Duplicate task",
		Tags:          []string{"Tasks"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleDuplicateTask)

	huma.Register(s.api, huma.Operation{
		OperationID: "assignTask",
		Method:      http.MethodPost,
		Path:        "/api/v1/tasks/{id}/assign/{userID}",
		Summary:     "Assign user to task",
		Tags:        []string{"Tasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAssignTask)

	huma.Register(s.api, huma.Operation{
		OperationID: "unassignTask",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tasks/{id}/unassign/{userID}",
		Summary:     "Unassign user from task",
		Tags:        []string{"Tasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUnassignTask)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTaskAssignees",
		Method:      http.MethodGet,
		Path:        "/api/v1/tasks/{id}/assignees",
		Summary:     "List task assignees",
		Tags:        []string{"Tasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetTaskAssignees)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTaskTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tasks/{id}/tags",
		Summary:     "List task tags",
		Tags:        []string{"Tasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetTaskTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTaskMessages",
		Method:      http.MethodGet,
		Path:        "/api/v1/tasks/{id}/messages",
		Summary:     "Get task message thread",
		Tags:        []string{"Tasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetTaskMessages)
}

// === DTOs ===

// CreateTaskRequest is the request body for creating a task.
type CreateTaskRequest struct {
	ProjectID   string     `json:"project_id" validate:"required" doc:"Project the task belongs to"`
	Name        string     `json:"name" validate:"required,min=1,max=255" doc:"Task name"`
	Description string     `json:"description,omitempty" validate:"omitempty,max=4096" doc:"Task description"`
	StageID     string     `json:"stage_id,omitempty" doc:"Stage (defaults to the project's default stage)"`
	MilestoneID string     `json:"milestone_id,omitempty" doc:"Optional milestone"`
	Priority    int        `json:"priority,omitempty" validate:"omitempty,gte=1,lte=5" doc:"Priority 1-5 (defaults to 3)"`
	Status      string     `json:"status,omitempty" validate:"omitempty,oneof=in_progress changes_requested approved cancelled done" doc:"Initial status"`
	StartDate   *time.Time `json:"start_date,omitempty" doc:"Planned start"`
	DueDate     *time.Time `json:"due_date,omitempty" doc:"Due date"`
	AssigneeIDs []string   `json:"assignee_ids,omitempty" doc:"Initial assignees (non-members are dropped)"`
}

// CreateTaskInput wraps the create task request for Huma.
type CreateTaskInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateTaskRequest
}

// TaskOutput wraps a single task for Huma.
type TaskOutput struct {
	Body *domain.Task
}

// ListTasksInput contains the task listing filters.
type ListTasksInput struct {
	Authorization string     `header:"Authorization"`
	ProjectID     string     `query:"project_id" doc:"Restrict to one project"`
	OpenOnly      bool       `query:"open_only" doc:"Only tasks not done or cancelled"`
	Archived      *bool      `query:"archived" doc:"Filter by archived state"`
	CreatedByMe   bool       `query:"created_by_me" doc:"Only tasks the caller created"`
	AssignedToMe  bool       `query:"assigned_to_me" doc:"Only tasks assigned to the caller"`
	Status        string     `query:"status" doc:"Filter by status"`
	Priority      int        `query:"priority" doc:"Filter by priority"`
	Tags          string     `query:"tags" doc:"Comma-separated tag names"`
	DueBefore     *time.Time `query:"due_before" doc:"Tasks due before this time"`
	DueAfter      *time.Time `query:"due_after" doc:"Tasks due after this time"`
	OrderBy       string     `query:"order_by" doc:"Sort column, prefix with - for descending"`
	Page          int        `query:"page" doc:"1-based page number"`
	Limit         int        `query:"limit" doc:"Items per page (max 100)"`
}

// TaskPageOutput wraps a page of tasks for Huma.
type TaskPageOutput struct {
	Body *store.Page[*domain.Task]
}

// UpdateTaskRequest is the request body for task edits.
type UpdateTaskRequest struct {
	Name        *string    `json:"name,omitempty" validate:"omitempty,min=1,max=255" doc:"New name"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=4096" doc:"New description"`
	MilestoneID *string    `json:"milestone_id,omitempty" doc:"New milestone (empty string clears it)"`
	Priority    *int       `json:"priority,omitempty" validate:"omitempty,gte=1,lte=5" doc:"New priority"`
	Status      *string    `json:"status,omitempty" validate:"omitempty,oneof=in_progress changes_requested approved cancelled done" doc:"New status"`
	StartDate   *time.Time `json:"start_date,omitempty" doc:"New start date"`
	DueDate     *time.Time `json:"due_date,omitempty" doc:"New due date"`
	AssigneeIDs []string   `json:"assignee_ids,omitempty" doc:"Replacement assignee set (omit to leave unchanged)"`
}

// UpdateTaskInput wraps the task edit request for Huma.
type UpdateTaskInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Task ID"`
	Body          UpdateTaskRequest
}

// TaskIDInput identifies a task by path parameter.
type TaskIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Task ID"`
}

// MoveStageRequest is the request body for moving a task between stages.
type MoveStageRequest struct {
	StageID string `json:"stage_id" validate:"required" doc:"Target stage (same project)"`
}

// MoveStageInput wraps the stage move request for Huma.
type MoveStageInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Task ID"`
	Body          MoveStageRequest
}

// TaskUserInput identifies a task and a user for assignment.
type TaskUserInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Task ID"`
	UserID        string `path:"userID" doc:"User ID"`
}

// AssigneesOutput wraps a task's assignee listing for Huma.
type AssigneesOutput struct {
	Body []UserResponse
}

// MessageCountsInput carries the task IDs to count messages for.
type MessageCountsInput struct {
	Authorization string `header:"Authorization"`
	TaskIDs       string `query:"task_ids" required:"true" doc:"Comma-separated task IDs"`
}

// MessageCountsOutput maps task ID to its comment count.
type MessageCountsOutput struct {
	Body map[string]int
}

// BulkTasksInput wraps a bulk task request for Huma.
type BulkTasksInput struct {
	Authorization string `header:"Authorization"`
	Body          BulkRequest
}

// === Handlers ===

func (s *Server) handleCreateTask(ctx context.Context, input *CreateTaskInput) (*TaskOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	task, err := s.services.Task.Create(ctx, caller, service.CreateTaskRequest{
		ProjectID:   input.Body.ProjectID,
		Name:        input.Body.Name,
		Description: input.Body.Description,
		StageID:     input.Body.StageID,
		MilestoneID: input.Body.MilestoneID,
		Priority:    input.Body.Priority,
		Status:      input.Body.Status,
		StartDate:   input.Body.StartDate,
		DueDate:     input.Body.DueDate,
		AssigneeIDs: input.Body.AssigneeIDs,
	})
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: task}, nil
}

func (s *Server) handleListTasks(ctx context.Context, input *ListTasksInput) (*TaskPageOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Task.List(ctx, caller, service.ListTasksRequest{
		ProjectID:    input.ProjectID,
		OpenOnly:     input.OpenOnly,
		Archived:     input.Archived,
		CreatedByMe:  input.CreatedByMe,
		AssignedToMe: input.AssignedToMe,
		Status:       input.Status,
		Priority:     input.Priority,
		Tags:         splitCSV(input.Tags),
		DueBefore:    input.DueBefore,
		DueAfter:     input.DueAfter,
		OrderBy:      input.OrderBy,
		Page:         input.Page,
		Limit:        input.Limit,
	})
	if err != nil {
		return nil, err
	}

	return &TaskPageOutput{Body: page}, nil
}

func (s *Server) handleGetTask(ctx context.Context, input *TaskIDInput) (*TaskOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	task, err := s.services.Task.Get(ctx, caller, input.ID)
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: task}, nil
}

func (s *Server) handleUpdateTask(ctx context.Context, input *UpdateTaskInput) (*TaskOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	task, err := s.services.Task.Update(ctx, caller, input.ID, service.UpdateTaskRequest{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		MilestoneID: input.Body.MilestoneID,
		Priority:    input.Body.Priority,
		Status:      input.Body.Status,
		StartDate:   input.Body.StartDate,
		DueDate:     input.Body.DueDate,
		AssigneeIDs: input.Body.AssigneeIDs,
	})
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: task}, nil
}

func (s *Server) handleDeleteTask(ctx context.Context, input *TaskIDInput) (*MessageOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Task.Delete(ctx, caller, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Task deleted"}}, nil
}

func (s *Server) handleMoveTaskStage(ctx context.Context, input *MoveStageInput) (*TaskOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	task, err := s.services.Task.MoveStage(ctx, caller, input.ID, input.Body.StageID)
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: task}, nil
}

func (s *Server) handleArchiveTask(ctx context.Context, input *TaskIDInput) (*TaskOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	task, err := s.services.Task.Archive(ctx, caller, input.ID)
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: task}, nil
}

func (s *Server) handleDuplicateTask(ctx context.Context, input *TaskIDInput) (*TaskOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	task, err := s.services.Task.Duplicate(ctx, caller, input.ID)
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: task}, nil
}

func (s *Server) handleAssignTask(ctx context.Context, input *TaskUserInput) (*TaskOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	task, err := s.services.Task.Assign(ctx, caller, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: task}, nil
}

func (s *Server) handleUnassignTask(ctx context.Context, input *TaskUserInput) (*TaskOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	task, err := s.services.Task.Unassign(ctx, caller, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: task}, nil
}

func (s *Server) handleGetTaskAssignees(ctx context.Context, input *TaskIDInput) (*AssigneesOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	users, err := s.services.Task.Assignees(ctx, caller, input.ID)
	if err != nil {
		return nil, err
	}

	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, mapUser(u))
	}
	return &AssigneesOutput{Body: out}, nil
}

func (s *Server) handleGetTaskTags(ctx context.Context, input *TaskIDInput) (*TagsOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tags, err := s.services.Tag.TaskTags(ctx, caller, input.ID)
	if err != nil {
		return nil, err
	}

	return &TagsOutput{Body: tags}, nil
}

func (s *Server) handleGetTaskMessages(ctx context.Context, input *TaskIDInput) (*MessagesOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	thread, err := s.services.Message.Thread(ctx, caller, string(domain.EntityTypeTask), input.ID)
	if err != nil {
		return nil, err
	}

	return &MessagesOutput{Body: thread}, nil
}

func (s *Server) handleTaskMessageCounts(ctx context.Context, input *MessageCountsInput) (*MessageCountsOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	counts, err := s.services.Task.MessageCounts(ctx, caller, splitCSV(input.TaskIDs))
	if err != nil {
		return nil, err
	}

	return &MessageCountsOutput{Body: counts}, nil
}

func (s *Server) handleBulkDeleteTasks(ctx context.Context, input *BulkTasksInput) (*BulkOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Task.BulkDelete(ctx, caller, input.Body.IDs)
	if err != nil {
		return nil, err
	}

	return mapBulk(result), nil
}

func (s *Server) handleBulkArchiveTasks(ctx context.Context, input *BulkTasksInput) (*BulkOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Task.BulkArchive(ctx, caller, input.Body.IDs)
	if err != nil {
		return nil, err
	}

	return mapBulk(result), nil
}

func (s *Server) handleBulkDuplicateTasks(ctx context.Context, input *BulkTasksInput) (*BulkOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Task.BulkDuplicate(ctx, caller, input.Body.IDs)
	if err != nil {
		return nil, err
	}

	return mapBulk(result), nil
}
