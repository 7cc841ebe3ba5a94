package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/store"
)

const memberColumns = `id, project_id, user_id, role, joined_at`

func scanMember(scanner interface{ Scan(dest ...any) error }) (*domain.ProjectMember, error) {
	var m domain.ProjectMember

	var joinedAt string

	err := scanner.Scan(
		&m.ID,
		&m.ProjectID,
		&m.UserID,
		&m.Role,
		&joinedAt,
	)
	if err != nil {
		return nil, err
	}

	m.JoinedAt, err = parseTime(joinedAt)
	if err != nil {
		return nil, err
	}

	return &m, nil
}

// AddProjectMember enrols a user in a project.
// Returns store.ErrAlreadyExists if they already belong, and
// store.ErrNotFound when the project or user is gone.
func (s *Store) AddProjectMember(ctx context.Context, m *domain.ProjectMember) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO project_members (id, project_id, user_id, role, joined_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.ID,
		m.ProjectID,
		m.UserID,
		string(m.Role),
		formatTime(m.JoinedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithMessage("user is already a project member").WithCause(err)
		}
		if isForeignKeyViolation(err) {
			return store.ErrNotFound.WithCause(err)
		}
		return fmt.Errorf("insert project member: %w", err)
	}
	return nil
}

// GetProjectMember retrieves a membership row, or store.ErrNotFound.
func (s *Store) GetProjectMember(ctx context.Context, projectID, userID string) (*domain.ProjectMember, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM project_members WHERE project_id = ? AND user_id = ?`,
		projectID, userID)

	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan project member: %w", err)
	}
	return m, nil
}

// ListProjectMembers returns all memberships for a project, managers first.
func (s *Store) ListProjectMembers(ctx context.Context, projectID string) ([]*domain.ProjectMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM project_members
		WHERE project_id = ?
		ORDER BY role = 'manager' DESC, joined_at`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query project members: %w", err)
	}
	defer rows.Close()

	var members []*domain.ProjectMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// UpdateProjectMemberRole changes a member's project role.
func (s *Store) UpdateProjectMemberRole(ctx context.Context, projectID, userID string, role domain.MemberRole) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE project_members SET role = ? WHERE project_id = ? AND user_id = ?`,
		string(role), projectID, userID)
	if err != nil {
		return fmt.Errorf("update member role: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// RemoveProjectMember drops a user from a project.
func (s *Store) RemoveProjectMember(ctx context.Context, projectID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM project_members WHERE project_id = ? AND user_id = ?`,
		projectID, userID)
	if err != nil {
		return fmt.Errorf("delete project member: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
