package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/store"
)

// tagColumns is the ordered list of columns selected in tag queries.
// Must match the scan order in scanTag.
const tagColumns = `id, name, color`

func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var t domain.Tag

	err := scanner.Scan(
		&t.ID,
		&t.Name,
		&t.Color,
	)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// CreateTag inserts a new tag.
// Returns store.ErrAlreadyExists on duplicate name.
func (s *Store) CreateTag(ctx context.Context, t *domain.Tag) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (id, name, color)
		VALUES (?, ?, ?)`,
		t.ID,
		t.Name,
		t.Color,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithMessage("tag name already in use").WithCause(err)
		}
		return fmt.Errorf("insert tag: %w", err)
	}
	return nil
}

// GetTag retrieves a tag by ID.
func (s *Store) GetTag(ctx context.Context, id string) (*domain.Tag, error) {
	return s.getTagWhere(ctx, "id = ?", id)
}

// GetTagByName retrieves a tag by its unique name.
func (s *Store) GetTagByName(ctx context.Context, name string) (*domain.Tag, error) {
	return s.getTagWhere(ctx, "name = ?", name)
}

func (s *Store) getTagWhere(ctx context.Context, where string, arg any) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE `+where, arg)

	t, err := scanTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan tag: %w", err)
	}
	return t, nil
}

// ListTags returns all tags ordered by name.
func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	return collectTags(rows)
}

// UpdateTag rewrites a tag row.
func (s *Store) UpdateTag(ctx context.Context, t *domain.Tag) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tags SET name = ?, color = ? WHERE id = ?`,
		t.Name, t.Color, t.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithMessage("tag name already in use").WithCause(err)
		}
		return fmt.Errorf("update tag: %w", err)
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

// DeleteTag removes a tag and, by cascade, all its attachments.
func (s *Store) DeleteTag(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
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

// TagProject attaches a tag to a project. Idempotent.
func (s *Store) TagProject(ctx context.Context, tagID, projectID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO project_tags (project_id, tag_id)
		VALUES (?, ?)`, projectID, tagID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrNotFound.WithCause(err)
		}
		return fmt.Errorf("tag project: %w", err)
	}
	return nil
}

// UntagProject detaches a tag from a project. Idempotent.
func (s *Store) UntagProject(ctx context.Context, tagID, projectID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM project_tags WHERE project_id = ? AND tag_id = ?`,
		projectID, tagID)
	if err != nil {
		return fmt.Errorf("untag project: %w", err)
	}
	return nil
}

// ListProjectTags returns a project's tags ordered by name.
func (s *Store) ListProjectTags(ctx context.Context, projectID string) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+tagColumns+` FROM tags
		JOIN project_tags pt ON pt.tag_id = tags.id
		WHERE pt.project_id = ?
		ORDER BY name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query project tags: %w", err)
	}
	defer rows.Close()

	return collectTags(rows)
}

// TagTask attaches a tag to a task. Idempotent.
func (s *Store) TagTask(ctx context.Context, tagID, taskID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO task_tags (task_id, tag_id)
		VALUES (?, ?)`, taskID, tagID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrNotFound.WithCause(err)
		}
		return fmt.Errorf("tag task: %w", err)
	}
	return nil
}

// UntagTask detaches a tag from a task. Idempotent.
func (s *Store) UntagTask(ctx context.Context, tagID, taskID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM task_tags WHERE task_id = ? AND tag_id = ?`,
		taskID, tagID)
	if err != nil {
		return fmt.Errorf("untag task: %w", err)
	}
	return nil
}

// ListTaskTags returns a task's tags ordered by name.
func (s *Store) ListTaskTags(ctx context.Context, taskID string) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+tagColumns+` FROM tags
		JOIN task_tags tt ON tt.tag_id = tags.id
		WHERE tt.task_id = ?
		ORDER BY name`, taskID)
	if err != nil {
		return nil, fmt.Errorf("query task tags: %w", err)
	}
	defer rows.Close()

	return collectTags(rows)
}

func collectTags(rows *sql.Rows) ([]*domain.Tag, error) {
	var tags []*domain.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
