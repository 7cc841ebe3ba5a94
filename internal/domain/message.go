package domain

import "time"

// MessageType distinguishes human comments from system-generated entries.
type MessageType string

const (
	MessageTypeComment MessageType = "comment"
	MessageTypeSystem  MessageType = "system"
	MessageTypeAudit   MessageType = "audit"
)

// ValidMessageType reports whether t is a recognized message type.
func ValidMessageType(t MessageType) bool {
	return t == MessageTypeComment || t == MessageTypeSystem || t == MessageTypeAudit
}

// Message is a comment attached to a project or task. The thread an
// individual message belongs to is identified by its Target.
type Message struct {
	ID        string      `json:"id"`
	Target    EntityRef   `json:"target"`
	Type      MessageType `json:"message_type"`
	Content   string      `json:"content"`
	AuthorID  string      `json:"author_id,omitempty"` // Empty when the author account was deleted
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
