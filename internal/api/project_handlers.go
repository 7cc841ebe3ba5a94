package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/service"
	"github.com/blancapp/blanc-server/internal/store"
)

func (s *Server) registerProjectRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createProject",
		Method:        http.MethodPost,
		Path:          "/api/v1/projects",
		Summary:       "Create project",
		Description:   "Creates a project with its default stage and enrols the caller as manager",
		Tags:          []string{"Projects"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateProject)

	huma.Register(s.api, huma.Operation{
		OperationID: "listProjects",
		Method:      http.MethodGet,
		Path:        "/api/v1/projects",
		Summary:     "List projects",
		Description: "Returns the caller's projects, filtered and paginated",
		Tags:        []string{"Projects"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListProjects)

	huma.Register(s.api, huma.Operation{
		OperationID: "bulkDeleteProjects",
		Method:      http.MethodDelete,
		Path:        "/api/v1/projects/bulk",
		Summary:     "Bulk delete projects",
		Tags:        []string{"Projects"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleBulkDeleteProjects)

	huma.Register(s.api, huma.Operation{
		OperationID: "bulkArchiveProjects",
		Method:      http.MethodPut,
		Path:        "/api/v1/projects/bulk/archive",
		Summary:     "Bulk archive projects",
		Tags:        []string{"Projects"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleBulkArchiveProjects)

	huma.Register(s.api, huma.Operation{
		OperationID:   "bulkDuplicateProjects",
		Method:        http.MethodPost,
		Path:          "/api/v1/projects/bulk/duplicate",
		Summary:       "Bulk duplicate projects",
		Tags:          []string{"Projects"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleBulkDuplicateProjects)

	huma.Register(s.api, huma.Operation{
		OperationID: "getProject",
		Method:      http.MethodGet,
		Path:        "/api/v1/projects/{id}",
		Summary:     "Get project",
		Tags:        []string{"Projects"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetProject)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProject",
		Method:      http.MethodPut,
		Path:        "/api/v1/projects/{id}",
		Summary:     "Update project",
		Tags:        []string{"Projects"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateProject)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteProject",
		Method:      http.MethodDelete,
		Path:        "/api/v1/projects/{id}",
		Summary:     "Delete project",
		Tags:        []string{"Projects"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteProject)

	huma.Register(s.api, huma.Operation{
		OperationID: "archiveProject",
		Method:      http.MethodPut,
		Path:        "/api/v1/projects/{id}/archive",
		Summary:     "Archive project",
		Tags:        []string{"Projects"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleArchiveProject)

	huma.Register(s.api, huma.Operation{
		OperationID:   "duplicateProject",
		Method:        http.MethodPost,
		Path:          "/api/v1/projects/{id}/duplicate",
		Summary:       "Duplicate project",
		Description:   "Copies the project shell under a free name; stages, tasks and members are not copied",
		Tags:          []string{"Projects"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleDuplicateProject)

	huma.Register(s.api, huma.Operation{
		OperationID: "setProjectFavourite",
		Method:      http.MethodPut,
		Path:        "/api/v1/projects/{id}/favourite",
		Summary:     "Toggle project favourite",
		Description: "Any project member may flag a project as favourite",
		Tags:        []string{"Projects"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetProjectFavourite)

	huma.Register(s.api, huma.Operation{
		OperationID: "getProjectTasks",
		Method:      http.MethodGet,
		Path:        "/api/v1/projects/{id}/tasks",
		Summary:     "List project tasks",
		Tags:        []string{"Projects"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetProjectTasks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getProjectTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/projects/{id}/tags",
		Summary:     "List project tags",
		Tags:        []string{"Projects"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetProjectTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "getProjectMessages",
		Method:      http.MethodGet,
		Path:        "/api/v1/projects/{id}/messages",
		Summary:     "Get project message thread",
		Tags:        []string{"Projects"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetProjectMessages)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addProjectMember",
		Method:        http.MethodPost,
		Path:          "/api/v1/projects/{id}/members",
		Summary:       "Add project member",
		Tags:          []string{"Projects"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddProjectMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "listProjectMembers",
		Method:      http.MethodGet,
		Path:        "/api/v1/projects/{id}/members",
		Summary:     "List project members",
		Tags:        []string{"Projects"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListProjectMembers)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProjectMemberRole",
		Method:      http.MethodPut,
		Path:        "/api/v1/projects/{id}/members/{userID}",
		Summary:     "Change a member's role",
		Tags:        []string{"Projects"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateProjectMemberRole)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeProjectMember",
		Method:      http.MethodDelete,
		Path:        "/api/v1/projects/{id}/members/{userID}",
		Summary:     "Remove project member",
		Tags:        []string{"Projects"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveProjectMember)
}

// === DTOs ===

// CreateProjectRequest is the request body for creating a project.
type CreateProjectRequest struct {
	Name            string     `json:"name" validate:"required,min=1,max=255" doc:"Project name (globally unique)"`
	Description     string     `json:"description,omitempty" validate:"omitempty,max=4096" doc:"Project description"`
	Status          string     `json:"status,omitempty" validate:"omitempty,oneof=draft in_progress changes_requested approved cancelled done" doc:"Initial status (defaults to draft)"`
	IsFavourite     bool       `json:"is_favourite,omitempty" doc:"Favourite flag"`
	AllowMilestones bool       `json:"allow_milestones,omitempty" doc:"Enable milestones"`
	AllowTimesheets bool       `json:"allow_timesheets,omitempty" doc:"Enable timesheets"`
	StartDate       *time.Time `json:"start_date,omitempty" doc:"Planned start"`
	EndDate         *time.Time `json:"end_date,omitempty" doc:"Planned end"`
}

// CreateProjectInput wraps the create project request for Huma.
type CreateProjectInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateProjectRequest
}

// ProjectOutput wraps a single project for Huma.
type ProjectOutput struct {
	Body *domain.Project
}

// ListProjectsInput contains the project listing filters.
type ListProjectsInput struct {
	Authorization string     `header:"Authorization"`
	ManagerOnly   bool       `query:"manager_only" doc:"Only projects the caller manages"`
	MemberOnly    bool       `query:"member_only" doc:"Only projects the caller is a plain member of"`
	Favourite     bool       `query:"favourite" doc:"Only favourite projects"`
	Archived      *bool      `query:"archived" doc:"Filter by archived state"`
	Status        string     `query:"status" doc:"Filter by status"`
	Name          string     `query:"name" doc:"Substring name match"`
	Tags          string     `query:"tags" doc:"Comma-separated tag names"`
	StartAfter    *time.Time `query:"start_after" doc:"Projects starting after this time"`
	StartBefore   *time.Time `query:"start_before" doc:"Projects starting before this time"`
	Page          int        `query:"page" doc:"1-based page number"`
	Limit         int        `query:"limit" doc:"Items per page (max 100)"`
}

// ProjectPageOutput wraps a page of projects for Huma.
type ProjectPageOutput struct {
	Body *store.Page[*domain.Project]
}

// UpdateProjectRequest is the request body for project updates.
type UpdateProjectRequest struct {
	Name            *string    `json:"name,omitempty" validate:"omitempty,min=1,max=255" doc:"New name"`
	Description     *string    `json:"description,omitempty" validate:"omitempty,max=4096" doc:"New description"`
	Status          *string    `json:"status,omitempty" validate:"omitempty,oneof=draft in_progress changes_requested approved cancelled done" doc:"New status"`
	IsFavourite     *bool      `json:"is_favourite,omitempty" doc:"Favourite flag"`
	AllowMilestones *bool      `json:"allow_milestones,omitempty" doc:"Enable milestones"`
	AllowTimesheets *bool      `json:"allow_timesheets,omitempty" doc:"Enable timesheets"`
	StartDate       *time.Time `json:"start_date,omitempty" doc:"Planned start"`
	EndDate         *time.Time `json:"end_date,omitempty" doc:"Planned end"`
}

// UpdateProjectInput wraps the project update request for Huma.
type UpdateProjectInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Project ID"`
	Body          UpdateProjectRequest
}

// ProjectIDInput identifies a project by path parameter.
type ProjectIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Project ID"`
}

// BulkProjectsInput wraps a bulk project request for Huma.
type BulkProjectsInput struct {
	Authorization string `header:"Authorization"`
	Body          BulkRequest
}

// FavouriteRequest is the request body for the favourite toggle.
type FavouriteRequest struct {
	IsFavourite bool `json:"is_favourite" doc:"Desired favourite state"`
}

// FavouriteInput wraps the favourite toggle for Huma.
type FavouriteInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Project ID"`
	Body          FavouriteRequest
}

// TagsOutput wraps a list of tags for Huma.
type TagsOutput struct {
	Body []*domain.Tag
}

// MessagesOutput wraps a message thread for Huma.
type MessagesOutput struct {
	Body []*domain.Message
}

// AddMemberRequest is the request body for enrolling a member. Exactly
// one of user_id or invite_code identifies the user; invite-code
// additions always enrol as plain members.
type AddMemberRequest struct {
	UserID     string `json:"user_id,omitempty" validate:"omitempty" doc:"User to enrol"`
	InviteCode string `json:"invite_code,omitempty" validate:"omitempty" doc:"Invite code of the user to enrol"`
	Role       string `json:"role,omitempty" validate:"omitempty,oneof=manager member" doc:"Membership role (defaults to member, ignored with invite_code)"`
}

// AddMemberInput wraps the add member request for Huma.
type AddMemberInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Project ID"`
	Body          AddMemberRequest
}

// MemberOutput wraps a single membership for Huma.
type MemberOutput struct {
	Body *domain.ProjectMember
}

// MembersOutput wraps the membership roster for Huma.
type MembersOutput struct {
	Body []*domain.ProjectMember
}

// MemberRoleRequest is the request body for a role change.
type MemberRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=manager member" doc:"New membership role"`
}

// MemberRoleInput wraps the role change request for Huma.
type MemberRoleInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Project ID"`
	UserID        string `path:"userID" doc:"Member user ID"`
	Body          MemberRoleRequest
}

// MemberIDInput identifies a membership by project and user.
type MemberIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Project ID"`
	UserID        string `path:"userID" doc:"Member user ID"`
}

// === Handlers ===

func (s *Server) handleCreateProject(ctx context.Context, input *CreateProjectInput) (*ProjectOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	project, err := s.services.Project.Create(ctx, caller, service.CreateProjectRequest{
		Name:            input.Body.Name,
		Description:     input.Body.Description,
		Status:          input.Body.Status,
		IsFavourite:     input.Body.IsFavourite,
		AllowMilestones: input.Body.AllowMilestones,
		AllowTimesheets: input.Body.AllowTimesheets,
		StartDate:       input.Body.StartDate,
		EndDate:         input.Body.EndDate,
	})
	if err != nil {
		return nil, err
	}

	return &ProjectOutput{Body: project}, nil
}

func (s *Server) handleListProjects(ctx context.Context, input *ListProjectsInput) (*ProjectPageOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Project.List(ctx, caller, service.ListProjectsRequest{
		ManagerOnly: input.ManagerOnly,
		MemberOnly:  input.MemberOnly,
		Favourite:   input.Favourite,
		Archived:    input.Archived,
		Status:      input.Status,
		Name:        input.Name,
		Tags:        splitCSV(input.Tags),
		StartAfter:  input.StartAfter,
		StartBefore: input.StartBefore,
		Page:        input.Page,
		Limit:       input.Limit,
	})
	if err != nil {
		return nil, err
	}

	return &ProjectPageOutput{Body: page}, nil
}

func (s *Server) handleGetProject(ctx context.Context, input *ProjectIDInput) (*ProjectOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	project, err := s.services.Project.Get(ctx, caller, input.ID)
	if err != nil {
		return nil, err
	}

	return &ProjectOutput{Body: project}, nil
}

func (s *Server) handleUpdateProject(ctx context.Context, input *UpdateProjectInput) (*ProjectOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	project, err := s.services.Project.Update(ctx, caller, input.ID, service.UpdateProjectRequest{
		Name:            input.Body.Name,
		Description:     input.Body.Description,
		Status:          input.Body.Status,
		IsFavourite:     input.Body.IsFavourite,
		AllowMilestones: input.Body.AllowMilestones,
		AllowTimesheets: input.Body.AllowTimesheets,
		StartDate:       input.Body.StartDate,
		EndDate:         input.Body.EndDate,
	})
	if err != nil {
		return nil, err
	}

	return &ProjectOutput{Body: project}, nil
}

func (s *Server) handleDeleteProject(ctx context.Context, input *ProjectIDInput) (*MessageOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Project.Delete(ctx, caller, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Project deleted"}}, nil
}

func (s *Server) handleArchiveProject(ctx context.Context, input *ProjectIDInput) (*ProjectOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	project, err := s.services.Project.Archive(ctx, caller, input.ID)
	if err != nil {
		return nil, err
	}

	return &ProjectOutput{Body: project}, nil
}

func (s *Server) handleDuplicateProject(ctx context.Context, input *ProjectIDInput) (*ProjectOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	project, err := s.services.Project.Duplicate(ctx, caller, input.ID)
	if err != nil {
		return nil, err
	}

	return &ProjectOutput{Body: project}, nil
}

func (s *Server) handleSetProjectFavourite(ctx context.Context, input *FavouriteInput) (*ProjectOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	project, err := s.services.Project.SetFavourite(ctx, caller, input.ID, input.Body.IsFavourite)
	if err != nil {
		return nil, err
	}

	return &ProjectOutput{Body: project}, nil
}

func (s *Server) handleBulkDeleteProjects(ctx context.Context, input *BulkProjectsInput) (*BulkOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Project.BulkDelete(ctx, caller, input.Body.IDs)
	if err != nil {
		return nil, err
	}

	return mapBulk(result), nil
}

func (s *Server) handleBulkArchiveProjects(ctx context.Context, input *BulkProjectsInput) (*BulkOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Project.BulkArchive(ctx, caller, input.Body.IDs)
	if err != nil {
		return nil, err
	}

	return mapBulk(result), nil
}

func (s *Server) handleBulkDuplicateProjects(ctx context.Context, input *BulkProjectsInput) (*BulkOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Project.BulkDuplicate(ctx, caller, input.Body.IDs)
	if err != nil {
		return nil, err
	}

	return mapBulk(result), nil
}

func (s *Server) handleGetProjectTasks(ctx context.Context, input *ProjectIDInput) (*TaskPageOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Task.List(ctx, caller, service.ListTasksRequest{ProjectID: input.ID})
	if err != nil {
		return nil, err
	}

	return &TaskPageOutput{Body: page}, nil
}

func (s *Server) handleGetProjectTags(ctx context.Context, input *ProjectIDInput) (*TagsOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tags, err := s.services.Tag.ProjectTags(ctx, caller, input.ID)
	if err != nil {
		return nil, err
	}

	return &TagsOutput{Body: tags}, nil
}

func (s *Server) handleGetProjectMessages(ctx context.Context, input *ProjectIDInput) (*MessagesOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	thread, err := s.services.Message.Thread(ctx, caller, string(domain.EntityTypeProject), input.ID)
	if err != nil {
		return nil, err
	}

	return &MessagesOutput{Body: thread}, nil
}

func (s *Server) handleAddProjectMember(ctx context.Context, input *AddMemberInput) (*MemberOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	member, err := s.services.Project.AddMember(ctx, caller, input.ID, service.AddMemberRequest{
		UserID:     input.Body.UserID,
		InviteCode: input.Body.InviteCode,
		Role:       input.Body.Role,
	})
	if err != nil {
		return nil, err
	}

	return &MemberOutput{Body: member}, nil
}

func (s *Server) handleListProjectMembers(ctx context.Context, input *ProjectIDInput) (*MembersOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	members, err := s.services.Project.ListMembers(ctx, caller, input.ID)
	if err != nil {
		return nil, err
	}

	return &MembersOutput{Body: members}, nil
}

func (s *Server) handleUpdateProjectMemberRole(ctx context.Context, input *MemberRoleInput) (*MessageOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	err = s.services.Project.UpdateMemberRole(ctx, caller, input.ID, input.UserID, domain.MemberRole(input.Body.Role))
	if err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Member role updated"}}, nil
}

func (s *Server) handleRemoveProjectMember(ctx context.Context, input *MemberIDInput) (*MessageOutput, error) {
	caller, err := s.requireUser(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Project.RemoveMember(ctx, caller, input.ID, input.UserID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Member removed"}}, nil
}

// splitCSV splits a comma-separated query value, dropping empty parts.
func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
