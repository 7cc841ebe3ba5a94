package domain

import "time"

// NotificationType categorizes what a notification is about.
type NotificationType string

const (
	NotificationTypeProject NotificationType = "project"
	NotificationTypeTask    NotificationType = "task"
	NotificationTypeComment NotificationType = "comment"
)

// Notification is a per-user inbox entry. It optionally points at the
// entity that caused it so clients can deep-link.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Entity    *EntityRef       `json:"entity,omitempty"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}
