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

// duplicateNameAttempts bounds the rename loop when duplicating into a
// taken name.
const duplicateNameAttempts = 5

// ProjectService manages project lifecycle and membership.
type ProjectService struct {
	store         store.Store
	notifications *NotificationService
	logger        *slog.Logger
}

// NewProjectService creates a new project service.
func NewProjectService(store store.Store, notifications *NotificationService, logger *slog.Logger) *ProjectService {
	return &ProjectService{
		store:         store,
		notifications: notifications,
		logger:        logger,
	}
}

// CreateProjectRequest contains the fields for a new project.
type CreateProjectRequest struct {
	Name            string     `json:"name" validate:"required,min=1,max=255"`
	Description     string     `json:"description" validate:"max=4096"`
	Status          string     `json:"status" validate:"omitempty,oneof=draft in_progress changes_requested approved cancelled done"`
	IsFavourite     bool       `json:"is_favourite"`
	AllowMilestones bool       `json:"allow_milestones"`
	AllowTimesheets bool       `json:"allow_timesheets"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
}

// UpdateProjectRequest carries partial project edits. Nil fields are
// left unchanged.
type UpdateProjectRequest struct {
	Name            *string    `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description     *string    `json:"description,omitempty" validate:"omitempty,max=4096"`
	Status          *string    `json:"status,omitempty" validate:"omitempty,oneof=draft in_progress changes_requested approved cancelled done"`
	IsFavourite     *bool      `json:"is_favourite,omitempty"`
	AllowMilestones *bool      `json:"allow_milestones,omitempty"`
	AllowTimesheets *bool      `json:"allow_timesheets,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
}

// ListProjectsRequest selects and pages a project listing.
type ListProjectsRequest struct {
	ManagerOnly  bool
	MemberOnly   bool
	Favourite    bool
	Archived     *bool
	Status       string
	Name         string
	Tags         []string
	StartAfter   *time.Time
	StartBefore  *time.Time
	Page         int
	Limit        int
}

// BulkResult buckets the outcome of a bulk operation per ID. Bulk
// operations are never atomic as a unit: each ID succeeds or fails on
// its own.
type BulkResult struct {
	Succeeded    []string `json:"succeeded"`
	Unauthorized []string `json:"unauthorized"`
	NotFound     []string `json:"not_found"`
}

// Create inserts a project with its default stage and enrols the caller
// as manager, all in one transaction.
func (s *ProjectService) Create(ctx context.Context, caller *domain.User, req CreateProjectRequest) (*domain.Project, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	status := domain.ProjectStatus(req.Status)
	if status == "" {
		status = domain.ProjectStatusDraft
	}

	projectID, err := id.Generate("proj")
	if err != nil {
		return nil, fmt.Errorf("generate project ID: %w", err)
	}

	now := time.Now()
	project := &domain.Project{
		ID:              projectID,
		Name:            req.Name,
		Description:     req.Description,
		OwnerID:         caller.ID,
		Status:          status,
		Active:          true,
		IsFavourite:     req.IsFavourite,
		AllowMilestones: req.AllowMilestones,
		AllowTimesheets: req.AllowTimesheets,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.createWithDefaults(ctx, project, caller.ID); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("project name already in use")
		}
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("Project created",
			"project_id", project.ID,
			"owner_id", caller.ID,
		)
	}
	return project, nil
}

// createWithDefaults builds the default stage and manager membership
// rows and hands the bundle to the store.
func (s *ProjectService) createWithDefaults(ctx context.Context, project *domain.Project, managerID string) error {
	stageID, err := id.Generate("stage")
	if err != nil {
		return fmt.Errorf("generate stage ID: %w", err)
	}
	memberID, err := id.Generate("pm")
	if err != nil {
		return fmt.Errorf("generate member ID: %w", err)
	}

	defaultStage := &domain.Stage{
		ID:        stageID,
		ProjectID: project.ID,
		Name:      domain.DefaultStageName,
		Sequence:  0,
		IsDefault: true,
	}
	manager := &domain.ProjectMember{
		ID:        memberID,
		ProjectID: project.ID,
		UserID:    managerID,
		Role:      domain.MemberRoleManager,
		JoinedAt:  project.CreatedAt,
	}

	return s.store.CreateProject(ctx, project, defaultStage, manager)
}

// Get fetches a project the caller can see.
func (s *ProjectService) Get(ctx context.Context, caller *domain.User, projectID string) (*domain.Project, error) {
	project, _, err := s.authorize(ctx, caller, projectID, policy.OpRead)
	return project, err
}

// authorize loads the project, resolves the caller's relationship and
// checks the policy for op. Shared by every project-scoped entrypoint.
func (s *ProjectService) authorize(ctx context.Context, caller *domain.User, projectID string, op policy.Operation) (*domain.Project, domain.Relationship, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.RelationshipNone, domainerrors.NotFound("project not found")
		}
		return nil, domain.RelationshipNone, fmt.Errorf("get project: %w", err)
	}

	rel, err := resolveRelationship(ctx, s.store, caller.ID, project)
	if err != nil {
		return nil, domain.RelationshipNone, err
	}

	decision := policy.Project(op, policy.Input{Rel: rel, Admin: caller.IsAdmin()})
	if !decision.Allowed {
		return nil, rel, domainerrors.Forbidden("not authorized for this project").
			WithDetails(map[string]string{"reason": decision.Reason})
	}
	return project, rel, nil
}

// List returns one page of projects visible to the caller.
func (s *ProjectService) List(ctx context.Context, caller *domain.User, req ListProjectsRequest) (*store.Page[*domain.Project], error) {
	filter := store.ProjectFilter{
		ViewerID:      caller.ID,
		FavouriteOnly: req.Favourite,
		Archived:      req.Archived,
		Status:        domain.ProjectStatus(req.Status),
		TagNames:      req.Tags,
		StartAfter:    req.StartAfter,
		StartBefore:   req.StartBefore,
		NameContains:  req.Name,
	}
	// manager_only wins when both flags are set; together they just mean
	// "anything I'm a member of", which is the default scope anyway.
	switch {
	case req.ManagerOnly && req.MemberOnly:
	case req.ManagerOnly:
		filter.Role = domain.MemberRoleManager
	case req.MemberOnly:
		filter.Role = domain.MemberRoleMember
	}

	pp := store.PageParams{Page: req.Page, Limit: req.Limit}
	page, err := s.store.ListProjects(ctx, filter, pp)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return page, nil
}

// Update applies partial edits to a project. Manager standing required.
func (s *ProjectService) Update(ctx context.Context, caller *domain.User, projectID string, req UpdateProjectRequest) (*domain.Project, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	project, _, err := s.authorize(ctx, caller, projectID, policy.OpUpdate)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Status != nil {
		project.Status = domain.ProjectStatus(*req.Status)
	}
	if req.IsFavourite != nil {
		project.IsFavourite = *req.IsFavourite
	}
	if req.AllowMilestones != nil {
		project.AllowMilestones = *req.AllowMilestones
	}
	if req.AllowTimesheets != nil {
		project.AllowTimesheets = *req.AllowTimesheets
	}
	if req.StartDate != nil {
		project.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		project.EndDate = req.EndDate
	}
	project.Touch()

	if err := s.store.UpdateProject(ctx, project); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("project name already in use")
		}
		return nil, fmt.Errorf("update project: %w", err)
	}
	return project, nil
}

// Delete removes a project and, by cascade, everything under it.
func (s *ProjectService) Delete(ctx context.Context, caller *domain.User, projectID string) error {
	if _, _, err := s.authorize(ctx, caller, projectID, policy.OpDelete); err != nil {
		return err
	}

	if err := s.store.DeleteProject(ctx, projectID); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Project deleted", "project_id", projectID, "user_id", caller.ID)
	}
	return nil
}

// Archive deactivates a project without deleting its data.
func (s *ProjectService) Archive(ctx context.Context, caller *domain.User, projectID string) (*domain.Project, error) {
	project, _, err := s.authorize(ctx, caller, projectID, policy.OpArchive)
	if err != nil {
		return nil, err
	}

	project.Active = false
	project.Touch()
	if err := s.store.UpdateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("archive project: %w", err)
	}
	return project, nil
}

// Duplicate copies a project under a "(Copy)" name. The copy starts as
// an active draft, never favourite, with the caller as owner and
// manager. Stages, tasks and members of the original are not copied.
func (s *ProjectService) Duplicate(ctx context.Context, caller *domain.User, projectID string) (*domain.Project, error) {
	original, _, err := s.authorize(ctx, caller, projectID, policy.OpDuplicate)
	if err != nil {
		return nil, err
	}
	return s.duplicate(ctx, caller, original)
}

func (s *ProjectService) duplicate(ctx context.Context, caller *domain.User, original *domain.Project) (*domain.Project, error) {
	now := time.Now()
	for attempt := range duplicateNameAttempts {
		projectID, err := id.Generate("proj")
		if err != nil {
			return nil, fmt.Errorf("generate project ID: %w", err)
		}

		copyName := original.Name + " (Copy)"
		if attempt > 0 {
			copyName = fmt.Sprintf("%s (Copy %d)", original.Name, attempt+1)
		}

		dup := &domain.Project{
			ID:              projectID,
			Name:            copyName,
			Description:     original.Description,
			OwnerID:         caller.ID,
			Status:          domain.ProjectStatusDraft,
			Active:          true,
			IsFavourite:     false,
			AllowMilestones: original.AllowMilestones,
			AllowTimesheets: original.AllowTimesheets,
			StartDate:       original.StartDate,
			EndDate:         original.EndDate,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		err = s.createWithDefaults(ctx, dup, caller.ID)
		if errors.Is(err, store.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return dup, nil
	}
	return nil, domainerrors.Conflict("could not find a free name for the copy")
}

// SetFavourite toggles the favourite flag. Any member may do this.
func (s *ProjectService) SetFavourite(ctx context.Context, caller *domain.User, projectID string, favourite bool) (*domain.Project, error) {
	project, _, err := s.authorize(ctx, caller, projectID, policy.OpRead)
	if err != nil {
		return nil, err
	}

	project.IsFavourite = favourite
	project.Touch()
	if err := s.store.UpdateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return project, nil
}

// BulkDelete deletes each project the caller manages, bucketing the
// rest.
func (s *ProjectService) BulkDelete(ctx context.Context, caller *domain.User, projectIDs []string) (*BulkResult, error) {
	return s.bulk(ctx, caller, projectIDs, policy.OpDelete, func(ctx context.Context, p *domain.Project) error {
		return s.store.DeleteProject(ctx, p.ID)
	})
}

// BulkArchive archives each project the caller manages.
func (s *ProjectService) BulkArchive(ctx context.Context, caller *domain.User, projectIDs []string) (*BulkResult, error) {
	return s.bulk(ctx, caller, projectIDs, policy.OpArchive, func(ctx context.Context, p *domain.Project) error {
		p.Active = false
		p.Touch()
		return s.store.UpdateProject(ctx, p)
	})
}

// BulkDuplicate duplicates each project the caller manages.
func (s *ProjectService) BulkDuplicate(ctx context.Context, caller *domain.User, projectIDs []string) (*BulkResult, error) {
	return s.bulk(ctx, caller, projectIDs, policy.OpDuplicate, func(ctx context.Context, p *domain.Project) error {
		_, err := s.duplicate(ctx, caller, p)
		return err
	})
}

// bulk runs op against every ID independently. One failing ID never
// rolls back the others.
func (s *ProjectService) bulk(ctx context.Context, caller *domain.User, projectIDs []string, op policy.Operation, apply func(context.Context, *domain.Project) error) (*BulkResult, error) {
	result := &BulkResult{
		Succeeded:    []string{},
		Unauthorized: []string{},
		NotFound:     []string{},
	}

	for _, pid := range projectIDs {
		project, _, err := s.authorize(ctx, caller, pid, op)
		if err != nil {
			var domainErr *domainerrors.Error
			switch {
			case errors.As(err, &domainErr) && domainErr.Code == domainerrors.CodeNotFound:
				result.NotFound = append(result.NotFound, pid)
			case errors.As(err, &domainErr) && domainErr.Code == domainerrors.CodeForbidden:
				result.Unauthorized = append(result.Unauthorized, pid)
			default:
				return nil, err
			}
			continue
		}

		if err := apply(ctx, project); err != nil {
			return nil, err
		}
		result.Succeeded = append(result.Succeeded, pid)
	}
	return result, nil
}

// AddMemberRequest enrols a user into a project, identified either by
// user ID or by their personal invite code.
type AddMemberRequest struct {
	UserID     string `json:"user_id" validate:"omitempty"`
	InviteCode string `json:"invite_code" validate:"omitempty"`
	Role       string `json:"role" validate:"omitempty,oneof=manager member"`
}

// AddMember enrols a user as a project member and notifies them. Users
// identified by invite code always join as plain members; an explicit
// role is only honoured for additions by user ID.
func (s *ProjectService) AddMember(ctx context.Context, caller *domain.User, projectID string, req AddMemberRequest) (*domain.ProjectMember, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}
	if (req.UserID == "") == (req.InviteCode == "") {
		return nil, domainerrors.Validation("exactly one of user_id or invite_code is required")
	}

	project, _, err := s.authorize(ctx, caller, projectID, policy.OpManageMembers)
	if err != nil {
		return nil, err
	}

	var invited *domain.User
	role := domain.MemberRole(req.Role)
	if req.InviteCode != "" {
		invited, err = s.store.GetUserByInviteCode(ctx, req.InviteCode)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, domainerrors.NotFound("invalid invite code")
			}
			return nil, fmt.Errorf("get user by invite code: %w", err)
		}
		role = domain.MemberRoleMember
	} else {
		invited, err = s.store.GetUser(ctx, req.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, domainerrors.NotFound("user not found")
			}
			return nil, fmt.Errorf("get user: %w", err)
		}
	}
	if role == "" {
		role = domain.MemberRoleMember
	}

	memberID, err := id.Generate("pm")
	if err != nil {
		return nil, fmt.Errorf("generate member ID: %w", err)
	}

	member := &domain.ProjectMember{
		ID:        memberID,
		ProjectID: projectID,
		UserID:    invited.ID,
		Role:      role,
		JoinedAt:  time.Now(),
	}
	if err := s.store.AddProjectMember(ctx, member); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("user is already a member of this project")
		}
		return nil, fmt.Errorf("add member: %w", err)
	}

	s.notifications.Dispatch(invited.ID, domain.NotificationTypeProject,
		fmt.Sprintf("You've been added to project '%s'", project.Name),
		&domain.EntityRef{Type: domain.EntityTypeProject, ID: projectID})

	return member, nil
}

// ListMembers returns the project's membership roster.
func (s *ProjectService) ListMembers(ctx context.Context, caller *domain.User, projectID string) ([]*domain.ProjectMember, error) {
	if _, _, err := s.authorize(ctx, caller, projectID, policy.OpRead); err != nil {
		return nil, err
	}

	members, err := s.store.ListProjectMembers(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// ensureNotLastManager rejects a demotion or removal that would leave
// the project roster without a manager.
func (s *ProjectService) ensureNotLastManager(ctx context.Context, projectID, userID string) error {
	member, err := s.store.GetProjectMember(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("member not found")
		}
		return fmt.Errorf("get member: %w", err)
	}
	if member.Role != domain.MemberRoleManager {
		return nil
	}

	members, err := s.store.ListProjectMembers(ctx, projectID)
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}
	managers := 0
	for _, m := range members {
		if m.Role == domain.MemberRoleManager {
			managers++
		}
	}
	if managers <= 1 {
		return domainerrors.Validation("a project must keep at least one manager")
	}
	return nil
}

// UpdateMemberRole changes a member's project role.
func (s *ProjectService) UpdateMemberRole(ctx context.Context, caller *domain.User, projectID, userID string, role domain.MemberRole) error {
	if !domain.ValidMemberRole(role) {
		return domainerrors.Validationf("invalid role %q", role)
	}

	if _, _, err := s.authorize(ctx, caller, projectID, policy.OpManageMembers); err != nil {
		return err
	}

	if role != domain.MemberRoleManager {
		if err := s.ensureNotLastManager(ctx, projectID, userID); err != nil {
			return err
		}
	}

	if err := s.store.UpdateProjectMemberRole(ctx, projectID, userID, role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("member not found")
		}
		return fmt.Errorf("update member role: %w", err)
	}
	return nil
}

// RemoveMember drops a user from the project roster.
func (s *ProjectService) RemoveMember(ctx context.Context, caller *domain.User, projectID, userID string) error {
	if _, _, err := s.authorize(ctx, caller, projectID, policy.OpManageMembers); err != nil {
		return err
	}

	if err := s.ensureNotLastManager(ctx, projectID, userID); err != nil {
		return err
	}

	if err := s.store.RemoveProjectMember(ctx, projectID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("member not found")
		}
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}
