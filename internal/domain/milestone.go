package domain

import "time"

// Milestone is a named checkpoint within a project that tasks can point at.
// Only meaningful when the project allows milestones.
type Milestone struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"project_id"`
	Name      string     `json:"name"`
	DueDate   *time.Time `json:"due_date,omitempty"`
}
