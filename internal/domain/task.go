package domain

import "time"

// TaskStatus represents where a task sits in its lifecycle. This is
// workflow state, independent of the kanban stage the task sits in.
type TaskStatus string

const (
	TaskStatusInProgress       TaskStatus = "in_progress"
	TaskStatusChangesRequested TaskStatus = "changes_requested"
	TaskStatusApproved         TaskStatus = "approved"
	TaskStatusCancelled        TaskStatus = "cancelled"
	TaskStatusDone             TaskStatus = "done"
)

// ValidTaskStatus reports whether s is a recognized task status.
func ValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusInProgress, TaskStatusChangesRequested, TaskStatusApproved,
		TaskStatusCancelled, TaskStatusDone:
		return true
	}
	return false
}

// Task priority bounds. Default sits in the middle.
const (
	TaskPriorityMin     = 1
	TaskPriorityMax     = 5
	TaskPriorityDefault = 3
)

// Task is a unit of work inside a project. It always sits in exactly one
// stage of its own project.
type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	StageID     string     `json:"stage_id"`
	MilestoneID string     `json:"milestone_id,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Priority    int        `json:"priority"`
	Status      TaskStatus `json:"status"`
	Active      bool       `json:"active"` // False = archived
	CreatorID   string     `json:"creator_id,omitempty"` // Empty when the creator account was deleted
	StartDate   *time.Time `json:"start_date,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// AssigneeIDs is loaded alongside the task row. Always project members.
	AssigneeIDs []string `json:"assignee_ids"`
}

// IsArchived returns true if the task has been archived.
func (t *Task) IsArchived() bool {
	return !t.Active
}

// IsOpen returns true while the task still needs work.
func (t *Task) IsOpen() bool {
	return t.Status != TaskStatusDone && t.Status != TaskStatusCancelled
}

// IsAssignee reports whether userID is assigned to the task.
func (t *Task) IsAssignee(userID string) bool {
	for _, id := range t.AssigneeIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Touch updates the UpdatedAt timestamp.
func (t *Task) Touch() {
	t.UpdatedAt = time.Now()
}

// SubTask is a simple checklist item under a task.
type SubTask struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Title     string    `json:"title"`
	IsDone    bool      `json:"is_done"`
	OwnerID   string    `json:"owner_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
