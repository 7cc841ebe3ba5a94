package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/store"
)

const milestoneColumns = `id, project_id, name, due_date`

func scanMilestone(scanner interface{ Scan(dest ...any) error }) (*domain.Milestone, error) {
	var m domain.Milestone

	var dueDate sql.NullString

	err := scanner.Scan(
		&m.ID,
		&m.ProjectID,
		&m.Name,
		&dueDate,
	)
	if err != nil {
		return nil, err
	}

	m.DueDate, err = parseNullableTime(dueDate)
	if err != nil {
		return nil, err
	}

	return &m, nil
}

// CreateMilestone inserts a new milestone.
func (s *Store) CreateMilestone(ctx context.Context, m *domain.Milestone) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO milestones (id, project_id, name, due_date)
		VALUES (?, ?, ?, ?)`,
		m.ID,
		m.ProjectID,
		m.Name,
		nullTimeString(m.DueDate),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrNotFound.WithCause(err)
		}
		return fmt.Errorf("insert milestone: %w", err)
	}
	return nil
}

// GetMilestone retrieves a milestone by ID.
func (s *Store) GetMilestone(ctx context.Context, id string) (*domain.Milestone, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+milestoneColumns+` FROM milestones WHERE id = ?`, id)

	m, err := scanMilestone(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan milestone: %w", err)
	}
	return m, nil
}

// ListProjectMilestones returns a project's milestones by due date, with
// undated ones last.
func (s *Store) ListProjectMilestones(ctx context.Context, projectID string) ([]*domain.Milestone, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+milestoneColumns+` FROM milestones
		WHERE project_id = ?
		ORDER BY due_date IS NULL, due_date, name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query milestones: %w", err)
	}
	defer rows.Close()

	var milestones []*domain.Milestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, fmt.Errorf("scan milestone: %w", err)
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}

// DeleteMilestone removes a milestone. Tasks pointing at it fall back to
// no milestone via ON DELETE SET NULL.
func (s *Store) DeleteMilestone(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM milestones WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete milestone: %w", err)
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
