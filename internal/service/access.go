package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/store"
)

// resolveRelationship determines the caller's standing toward a project.
// Ownership wins over any membership row; a membership row decides
// between manager and plain member. Resolved fresh for every decision,
// never cached.
func resolveRelationship(ctx context.Context, s store.Store, userID string, project *domain.Project) (domain.Relationship, error) {
	if project.OwnerID != "" && project.OwnerID == userID {
		return domain.RelationshipOwner, nil
	}

	member, err := s.GetProjectMember(ctx, project.ID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.RelationshipNone, nil
	}
	if err != nil {
		return domain.RelationshipNone, fmt.Errorf("lookup membership: %w", err)
	}

	if member.Role == domain.MemberRoleManager {
		return domain.RelationshipManager, nil
	}
	return domain.RelationshipMember, nil
}

// hasManagerRow reports whether the user holds a manager membership row
// on the project. Ownership is deliberately not consulted: the owner's
// row can be demoted or removed, and rules that demand a row must see
// the current state.
func hasManagerRow(ctx context.Context, s store.Store, userID, projectID string) (bool, error) {
	member, err := s.GetProjectMember(ctx, projectID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup membership: %w", err)
	}
	return member.Role == domain.MemberRoleManager, nil
}
