package store

import (
	"time"

	"github.com/blancapp/blanc-server/internal/domain"
)

// ProjectFilter narrows project listings. ViewerID is required: listings
// only ever cover projects the viewer owns or belongs to.
type ProjectFilter struct {
	ViewerID string

	Role          domain.MemberRole // Restrict to projects where viewer holds this role
	FavouriteOnly bool
	Archived      *bool // nil = active only is NOT implied; nil means both
	Status        domain.ProjectStatus
	TagNames      []string // Projects carrying any of these tags
	StartAfter    *time.Time
	StartBefore   *time.Time
	NameContains  string
}

// TaskFilter narrows task listings. When ProjectID is empty the listing
// spans every project the viewer can see, so ViewerID must be set.
type TaskFilter struct {
	ViewerID  string
	ProjectID string

	OpenOnly   bool  // Exclude done and cancelled tasks
	Archived   *bool // nil means both
	CreatorID  string
	AssigneeID string
	Status     domain.TaskStatus
	Priority   int // 0 = any
	TagNames   []string
	DueBefore  *time.Time
	DueAfter   *time.Time

	OrderBy   string // One of: created_at, due_date, priority, name
	OrderDesc bool
}

// taskOrderColumns whitelists sortable columns. Anything else falls back
// to created_at.
var taskOrderColumns = map[string]string{
	"created_at": "t.created_at",
	"due_date":   "t.due_date",
	"priority":   "t.priority",
	"name":       "t.name",
}

// OrderColumn resolves the ORDER BY column for the filter. Never returns
// raw user input.
func (f TaskFilter) OrderColumn() string {
	if col, ok := taskOrderColumns[f.OrderBy]; ok {
		return col
	}
	return "t.created_at"
}
