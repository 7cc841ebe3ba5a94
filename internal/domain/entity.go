package domain

import "fmt"

// EntityType identifies what kind of object a reference points at.
type EntityType string

const (
	EntityTypeProject EntityType = "project"
	EntityTypeTask    EntityType = "task"
)

// ParseEntityType validates a raw string coming off the wire.
func ParseEntityType(s string) (EntityType, error) {
	switch EntityType(s) {
	case EntityTypeProject:
		return EntityTypeProject, nil
	case EntityTypeTask:
		return EntityTypeTask, nil
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}

// EntityRef is a typed pointer to a project or task. Messages hang off
// one, and notifications may carry one for deep-linking.
type EntityRef struct {
	Type EntityType `json:"type"`
	ID   string     `json:"id"`
}
