package domain

import "time"

// ProjectStatus represents where a project sits in its lifecycle.
type ProjectStatus string

const (
	ProjectStatusDraft            ProjectStatus = "draft"
	ProjectStatusInProgress       ProjectStatus = "in_progress"
	ProjectStatusChangesRequested ProjectStatus = "changes_requested"
	ProjectStatusApproved         ProjectStatus = "approved"
	ProjectStatusCancelled        ProjectStatus = "cancelled"
	ProjectStatusDone             ProjectStatus = "done"
)

// ValidProjectStatus reports whether s is a recognized project status.
func ValidProjectStatus(s ProjectStatus) bool {
	switch s {
	case ProjectStatusDraft, ProjectStatusInProgress, ProjectStatusChangesRequested,
		ProjectStatusApproved, ProjectStatusCancelled, ProjectStatusDone:
		return true
	}
	return false
}

// Project is the top-level container for stages, tasks, milestones and tags.
type Project struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Description     string        `json:"description,omitempty"`
	OwnerID         string        `json:"owner_id,omitempty"` // Empty when the owner account was deleted
	Status          ProjectStatus `json:"status"`
	Active          bool          `json:"active"` // False = archived
	IsFavourite     bool          `json:"is_favourite"`
	AllowMilestones bool          `json:"allow_milestones"`
	AllowTimesheets bool          `json:"allow_timesheets"`
	StartDate       *time.Time    `json:"start_date,omitempty"`
	EndDate         *time.Time    `json:"end_date,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// IsArchived returns true if the project has been archived.
func (p *Project) IsArchived() bool {
	return !p.Active
}

// Touch updates the UpdatedAt timestamp.
func (p *Project) Touch() {
	p.UpdatedAt = time.Now()
}

// MemberRole is a user's role within a single project.
type MemberRole string

const (
	// MemberRoleManager can administer the project and its membership.
	MemberRoleManager MemberRole = "manager"
	// MemberRoleMember can view the project and work on its tasks.
	MemberRoleMember MemberRole = "member"
)

// ValidMemberRole reports whether r is a recognized project role.
func ValidMemberRole(r MemberRole) bool {
	return r == MemberRoleManager || r == MemberRoleMember
}

// ProjectMember links a user to a project with a project-scoped role.
type ProjectMember struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"project_id"`
	UserID    string     `json:"user_id"`
	Role      MemberRole `json:"role"`
	JoinedAt  time.Time  `json:"joined_at"`
}

// Relationship is the resolved standing of a user toward a project.
// It is derived, never stored: ownership wins over membership, and a
// membership row decides between manager and plain member.
type Relationship string

const (
	RelationshipOwner   Relationship = "owner"
	RelationshipManager Relationship = "manager"
	RelationshipMember  Relationship = "member"
	RelationshipNone    Relationship = "none"
)

// AtLeastManager returns true for relationships that carry manager powers.
func (r Relationship) AtLeastManager() bool {
	return r == RelationshipOwner || r == RelationshipManager
}

// IsMember returns true if the user belongs to the project in any capacity.
func (r Relationship) IsMember() bool {
	return r != RelationshipNone
}
