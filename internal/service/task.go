package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blancapp/blanc-server/internal/domain"
	domainerrors "github.com/blancapp/blanc-server/internal/errors"
	"github.com/blancapp/blanc-server/internal/id"
	"github.com/blancapp/blanc-server/internal/policy"
	"github.com/blancapp/blanc-server/internal/store"
)

// TaskService manages tasks, their assignees and their subtasks.
type TaskService struct {
	store         store.Store
	notifications *NotificationService
	logger        *slog.Logger
}

// NewTaskService creates a new task service.
func NewTaskService(store store.Store, notifications *NotificationService, logger *slog.Logger) *TaskService {
	return &TaskService{
		store:         store,
		notifications: notifications,
		logger:        logger,
	}
}

// CreateTaskRequest contains the fields for a new task.
type CreateTaskRequest struct {
	ProjectID   string     `json:"project_id" validate:"required"`
	Name        string     `json:"name" validate:"required,min=1,max=255"`
	Description string     `json:"description" validate:"max=4096"`
	StageID     string     `json:"stage_id"` // Empty means the project's default stage
	MilestoneID string     `json:"milestone_id"`
	Priority    int        `json:"priority" validate:"omitempty,gte=1,lte=5"`
	Status      string     `json:"status" validate:"omitempty,oneof=in_progress changes_requested approved cancelled done"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	AssigneeIDs []string   `json:"assignee_ids,omitempty"`
}

// UpdateTaskRequest carries partial task edits. Nil fields are left
// unchanged.
type UpdateTaskRequest struct {
	Name        *string    `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=4096"`
	MilestoneID *string    `json:"milestone_id,omitempty"`
	Priority    *int       `json:"priority,omitempty" validate:"omitempty,gte=1,lte=5"`
	Status      *string    `json:"status,omitempty" validate:"omitempty,oneof=in_progress changes_requested approved cancelled done"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	AssigneeIDs []string   `json:"assignee_ids,omitempty"` // Nil leaves assignees alone
}

// ListTasksRequest selects and pages a task listing.
type ListTasksRequest struct {
	ProjectID    string
	OpenOnly     bool
	Archived     *bool
	CreatedByMe  bool
	AssignedToMe bool
	Status       string
	Priority     int
	Tags         []string
	DueBefore    *time.Time
	DueAfter     *time.Time
	OrderBy      string // Optional "-" prefix for descending
	Page         int
	Limit        int
}

// Create inserts a task into a project the caller belongs to. Requested
// assignees who are not project members are dropped silently.
func (s *TaskService) Create(ctx context.Context, caller *domain.User, req CreateTaskRequest) (*domain.Task, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	project, err := s.authorizeProject(ctx, caller, req.ProjectID, policy.OpCreate, policy.Input{})
	if err != nil {
		return nil, err
	}

	stageID := req.StageID
	if stageID == "" {
		defaultStage, err := s.store.GetDefaultStage(ctx, project.ID)
		if err != nil {
			return nil, fmt.Errorf("get default stage: %w", err)
		}
		stageID = defaultStage.ID
	} else if err := s.checkStageInProject(ctx, stageID, project.ID); err != nil {
		return nil, err
	}

	if req.MilestoneID != "" {
		if err := s.checkMilestoneInProject(ctx, req.MilestoneID, project.ID); err != nil {
			return nil, err
		}
	}

	assignees, err := s.filterToMembers(ctx, project.ID, req.AssigneeIDs)
	if err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == 0 {
		priority = domain.TaskPriorityDefault
	}
	status := domain.TaskStatus(req.Status)
	if status == "" {
		status = domain.TaskStatusInProgress
	}

	taskID, err := id.Generate("task")
	if err != nil {
		return nil, fmt.Errorf("generate task ID: %w", err)
	}

	now := time.Now()
	task := &domain.Task{
		ID:          taskID,
		ProjectID:   project.ID,
		StageID:     stageID,
		MilestoneID: req.MilestoneID,
		Name:        req.Name,
		Description: req.Description,
		Priority:    priority,
		Status:      status,
		Active:      true,
		CreatorID:   caller.ID,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
		AssigneeIDs: assignees,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	for _, assigneeID := range assignees {
		if assigneeID == caller.ID {
			continue
		}
		s.notifications.Dispatch(assigneeID, domain.NotificationTypeTask,
			fmt.Sprintf("You've been assigned to task '%s'", task.Name),
			&domain.EntityRef{Type: domain.EntityTypeTask, ID: task.ID})
	}

	return task, nil
}

// Get fetches a task the caller can see.
func (s *TaskService) Get(ctx context.Context, caller *domain.User, taskID string) (*domain.Task, error) {
	task, _, err := s.authorizeTask(ctx, caller, taskID, policy.OpRead)
	return task, err
}

// List returns one page of tasks. With a project scope the caller must
// be a member; without one the listing spans every project they can see.
func (s *TaskService) List(ctx context.Context, caller *domain.User, req ListTasksRequest) (*store.Page[*domain.Task], error) {
	if req.ProjectID != "" {
		if _, err := s.authorizeProject(ctx, caller, req.ProjectID, policy.OpRead, policy.Input{}); err != nil {
			return nil, err
		}
	}

	filter := store.TaskFilter{
		ViewerID:  caller.ID,
		ProjectID: req.ProjectID,
		OpenOnly:  req.OpenOnly,
		Archived:  req.Archived,
		Status:    domain.TaskStatus(req.Status),
		Priority:  req.Priority,
		TagNames:  req.Tags,
		DueBefore: req.DueBefore,
		DueAfter:  req.DueAfter,
	}
	if req.CreatedByMe {
		filter.CreatorID = caller.ID
	}
	if req.AssignedToMe {
		filter.AssigneeID = caller.ID
	}
	if len(req.OrderBy) > 0 && req.OrderBy[0] == '-' {
		filter.OrderBy = req.OrderBy[1:]
		filter.OrderDesc = true
	} else {
		filter.OrderBy = req.OrderBy
	}

	pp := store.PageParams{Page: req.Page, Limit: req.Limit}
	page, err := s.store.ListTasks(ctx, filter, pp)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return page, nil
}

// Update applies partial edits to a task. Managers, the creator and
// assignees may edit.
func (s *TaskService) Update(ctx context.Context, caller *domain.User, taskID string, req UpdateTaskRequest) (*domain.Task, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	task, _, err := s.authorizeTask(ctx, caller, taskID, policy.OpUpdate)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		task.Name = *req.Name
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.MilestoneID != nil {
		if *req.MilestoneID != "" {
			if err := s.checkMilestoneInProject(ctx, *req.MilestoneID, task.ProjectID); err != nil {
				return nil, err
			}
		}
		task.MilestoneID = *req.MilestoneID
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.Status != nil {
		task.Status = domain.TaskStatus(*req.Status)
	}
	if req.StartDate != nil {
		task.StartDate = req.StartDate
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.AssigneeIDs != nil {
		assignees, err := s.filterToMembers(ctx, task.ProjectID, req.AssigneeIDs)
		if err != nil {
			return nil, err
		}
		task.AssigneeIDs = assignees
	}
	task.Touch()

	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}

// MoveStage moves a task to another stage of its project. Same policy
// as a task update; the target stage must belong to the task's project.
func (s *TaskService) MoveStage(ctx context.Context, caller *domain.User, taskID, stageID string) (*domain.Task, error) {
	task, _, err := s.authorizeTask(ctx, caller, taskID, policy.OpUpdate)
	if err != nil {
		return nil, err
	}

	if err := s.checkStageInProject(ctx, stageID, task.ProjectID); err != nil {
		return nil, err
	}

	task.StageID = stageID
	task.Touch()
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("move task: %w", err)
	}
	return task, nil
}

// Delete removes a task. Manager-only.
func (s *TaskService) Delete(ctx context.Context, caller *domain.User, taskID string) error {
	if _, _, err := s.authorizeTask(ctx, caller, taskID, policy.OpDelete); err != nil {
		return err
	}

	if err := s.store.DeleteTask(ctx, taskID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// Archive deactivates a task. Manager-only.
func (s *TaskService) Archive(ctx context.Context, caller *domain.User, taskID string) (*domain.Task, error) {
	task, _, err := s.authorizeTask(ctx, caller, taskID, policy.OpArchive)
	if err != nil {
		return nil, err
	}

	task.Active = false
	task.Touch()
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("archive task: %w", err)
	}
	return task, nil
}

// Duplicate copies a task within its project, assignees included, with
// the caller as creator. Manager-only.
func (s *TaskService) Duplicate(ctx context.Context, caller *domain.User, taskID string) (*domain.Task, error) {
	task, _, err := s.authorizeTask(ctx, caller, taskID, policy.OpDuplicate)
	if err != nil {
		return nil, err
	}
	return s.duplicate(ctx, caller, task)
}

func (s *TaskService) duplicate(ctx context.Context, caller *domain.User, original *domain.Task) (*domain.Task, error) {
	taskID, err := id.Generate("task")
	if err != nil {
		return nil, fmt.Errorf("generate task ID: %w", err)
	}

	now := time.Now()
	dup := &domain.Task{
		ID:          taskID,
		ProjectID:   original.ProjectID,
		StageID:     original.StageID,
		MilestoneID: original.MilestoneID,
		Name:        original.Name + " (Copy)",
		Description: original.Description,
		Priority:    original.Priority,
		Status:      domain.TaskStatusInProgress,
		Active:      true,
		CreatorID:   caller.ID,
		StartDate:   original.StartDate,
		DueDate:     original.DueDate,
		AssigneeIDs: original.AssigneeIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateTask(ctx, dup); err != nil {
		return nil, fmt.Errorf("duplicate task: %w", err)
	}
	return dup, nil
}

// Assign adds a single assignee. Unlike create-time assignee lists,
// assigning a non-member here is an explicit error.
func (s *TaskService) Assign(ctx context.Context, caller *domain.User, taskID, userID string) (*domain.Task, error) {
	task, _, err := s.authorizeTask(ctx, caller, taskID, policy.OpAssign)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if _, err := s.store.GetProjectMember(ctx, task.ProjectID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Forbidden("user must be a project member to be assigned")
		}
		return nil, fmt.Errorf("lookup membership: %w", err)
	}

	if task.IsAssignee(userID) {
		return task, nil
	}

	task.AssigneeIDs = append(task.AssigneeIDs, userID)
	task.Touch()
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("assign task: %w", err)
	}

	s.notifications.Dispatch(userID, domain.NotificationTypeTask,
		fmt.Sprintf("You've been assigned to task '%s'", task.Name),
		&domain.EntityRef{Type: domain.EntityTypeTask, ID: task.ID})

	return task, nil
}

// Unassign removes a single assignee. Removing someone who isn't
// assigned is a no-op.
func (s *TaskService) Unassign(ctx context.Context, caller *domain.User, taskID, userID string) (*domain.Task, error) {
	task, _, err := s.authorizeTask(ctx, caller, taskID, policy.OpAssign)
	if err != nil {
		return nil, err
	}

	if !task.IsAssignee(userID) {
		return task, nil
	}

	kept := make([]string, 0, len(task.AssigneeIDs)-1)
	for _, aid := range task.AssigneeIDs {
		if aid != userID {
			kept = append(kept, aid)
		}
	}
	task.AssigneeIDs = kept
	task.Touch()
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("unassign task: %w", err)
	}
	return task, nil
}

// Assignees returns the user accounts assigned to a task.
func (s *TaskService) Assignees(ctx context.Context, caller *domain.User, taskID string) ([]*domain.User, error) {
	task, _, err := s.authorizeTask(ctx, caller, taskID, policy.OpRead)
	if err != nil {
		return nil, err
	}

	users := make([]*domain.User, 0, len(task.AssigneeIDs))
	for _, aid := range task.AssigneeIDs {
		user, err := s.store.GetUser(ctx, aid)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get user: %w", err)
		}
		users = append(users, user)
	}
	return users, nil
}

// MessageCounts returns {task_id: comment count} for the given IDs.
// Every requested ID appears in the result, zero included.
func (s *TaskService) MessageCounts(ctx context.Context, caller *domain.User, taskIDs []string) (map[string]int, error) {
	counts, err := s.store.CountTaskMessages(ctx, taskIDs)
	if err != nil {
		return nil, fmt.Errorf("count task messages: %w", err)
	}

	result := make(map[string]int, len(taskIDs))
	for _, tid := range taskIDs {
		result[tid] = counts[tid]
	}
	return result, nil
}

// BulkDelete deletes each task the caller manages, bucketing the rest.
func (s *TaskService) BulkDelete(ctx context.Context, caller *domain.User, taskIDs []string) (*BulkResult, error) {
	return s.bulk(ctx, caller, taskIDs, policy.OpDelete, func(ctx context.Context, t *domain.Task) error {
		return s.store.DeleteTask(ctx, t.ID)
	})
}

// BulkArchive archives each task the caller manages.
func (s *TaskService) BulkArchive(ctx context.Context, caller *domain.User, taskIDs []string) (*BulkResult, error) {
	return s.bulk(ctx, caller, taskIDs, policy.OpArchive, func(ctx context.Context, t *domain.Task) error {
		t.Active = false
		t.Touch()
		return s.store.UpdateTask(ctx, t)
	})
}

// BulkDuplicate duplicates each task the caller manages.
func (s *TaskService) BulkDuplicate(ctx context.Context, caller *domain.User, taskIDs []string) (*BulkResult, error) {
	return s.bulk(ctx, caller, taskIDs, policy.OpDuplicate, func(ctx context.Context, t *domain.Task) error {
		_, err := s.duplicate(ctx, caller, t)
		return err
	})
}

func (s *TaskService) bulk(ctx context.Context, caller *domain.User, taskIDs []string, op policy.Operation, apply func(context.Context, *domain.Task) error) (*BulkResult, error) {
	result := &BulkResult{
		Succeeded:    []string{},
		Unauthorized: []string{},
		NotFound:     []string{},
	}

	for _, tid := range taskIDs {
		task, _, err := s.authorizeTask(ctx, caller, tid, op)
		if err != nil {
			var domainErr *domainerrors.Error
			switch {
			case errors.As(err, &domainErr) && domainErr.Code == domainerrors.CodeNotFound:
				result.NotFound = append(result.NotFound, tid)
			case errors.As(err, &domainErr) && domainErr.Code == domainerrors.CodeForbidden:
				result.Unauthorized = append(result.Unauthorized, tid)
			default:
				return nil, err
			}
			continue
		}

		if err := apply(ctx, task); err != nil {
			return nil, err
		}
		result.Succeeded = append(result.Succeeded, tid)
	}
	return result, nil
}

// authorizeTask loads a task and checks the caller's standing for op,
// folding in creator and assignee facts.
func (s *TaskService) authorizeTask(ctx context.Context, caller *domain.User, taskID string, op policy.Operation) (*domain.Task, *domain.Project, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, domainerrors.NotFound("task not found")
		}
		return nil, nil, fmt.Errorf("get task: %w", err)
	}

	project, err := s.authorizeProject(ctx, caller, task.ProjectID, op, policy.Input{
		Creator:  task.CreatorID == caller.ID,
		Assignee: task.IsAssignee(caller.ID),
	})
	if err != nil {
		return nil, nil, err
	}
	return task, project, nil
}

// authorizeProject loads the project and checks the task policy for op.
// Extra entity-level facts ride in on in.
func (s *TaskService) authorizeProject(ctx context.Context, caller *domain.User, projectID string, op policy.Operation, in policy.Input) (*domain.Project, error) {
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

	in.Rel = rel
	in.Admin = caller.IsAdmin()
	switch rel {
	case domain.RelationshipManager:
		in.Manager = true
	case domain.RelationshipOwner:
		// Ownership masks the membership row; look it up separately.
		in.Manager, err = hasManagerRow(ctx, s.store, caller.ID, project.ID)
		if err != nil {
			return nil, err
		}
	}
	decision := policy.Task(op, in)
	if !decision.Allowed {
		return nil, domainerrors.Forbidden("not authorized for this task").
			WithDetails(map[string]string{"reason": decision.Reason})
	}
	return project, nil
}

// checkStageInProject verifies the stage exists and belongs to the
// project. A stage from another project is a validation error, not a
// NotFound: the ID is real, it's just the wrong board.
func (s *TaskService) checkStageInProject(ctx context.Context, stageID, projectID string) error {
	stage, err := s.store.GetStage(ctx, stageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.Validation("stage does not exist")
		}
		return fmt.Errorf("get stage: %w", err)
	}
	if stage.ProjectID != projectID {
		return domainerrors.Validation("stage does not belong to this project")
	}
	return nil
}

func (s *TaskService) checkMilestoneInProject(ctx context.Context, milestoneID, projectID string) error {
	milestone, err := s.store.GetMilestone(ctx, milestoneID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.Validation("milestone does not exist")
		}
		return fmt.Errorf("get milestone: %w", err)
	}
	if milestone.ProjectID != projectID {
		return domainerrors.Validation("milestone does not belong to this project")
	}
	return nil
}

// filterToMembers drops requested assignees who are not members of the
// project. Silent filtering, not an error.
func (s *TaskService) filterToMembers(ctx context.Context, projectID string, userIDs []string) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	members := make([]string, 0, len(userIDs))
	seen := make(map[string]bool, len(userIDs))
	for _, uid := range userIDs {
		if seen[uid] {
			continue
		}
		seen[uid] = true

		_, err := s.store.GetProjectMember(ctx, projectID, uid)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lookup membership: %w", err)
		}
		members = append(members, uid)
	}
	return members, nil
}
