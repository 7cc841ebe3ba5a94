package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/store"
)

const subTaskColumns = `id, task_id, title, is_done, owner_id, created_at, updated_at`

func scanSubTask(scanner interface{ Scan(dest ...any) error }) (*domain.SubTask, error) {
	var st domain.SubTask

	var (
		isDone    int
		ownerID   sql.NullString
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&st.ID,
		&st.TaskID,
		&st.Title,
		&isDone,
		&ownerID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	st.IsDone = isDone != 0
	st.OwnerID = ownerID.String

	if st.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if st.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &st, nil
}

// CreateSubTask inserts a new subtask.
func (s *Store) CreateSubTask(ctx context.Context, st *domain.SubTask) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subtasks (id, task_id, title, is_done, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		st.ID,
		st.TaskID,
		st.Title,
		boolToInt(st.IsDone),
		nullString(st.OwnerID),
		formatTime(st.CreatedAt),
		formatTime(st.UpdatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrNotFound.WithMessage("task not found").WithCause(err)
		}
		return fmt.Errorf("insert subtask: %w", err)
	}
	return nil
}

// GetSubTask retrieves a subtask by ID.
func (s *Store) GetSubTask(ctx context.Context, id string) (*domain.SubTask, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+subTaskColumns+` FROM subtasks WHERE id = ?`, id)

	st, err := scanSubTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan subtask: %w", err)
	}
	return st, nil
}

// ListTaskSubTasks returns a task's subtasks in creation order.
func (s *Store) ListTaskSubTasks(ctx context.Context, taskID string) ([]*domain.SubTask, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+subTaskColumns+` FROM subtasks
		WHERE task_id = ?
		ORDER BY created_at, id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("query subtasks: %w", err)
	}
	defer rows.Close()

	var subtasks []*domain.SubTask
	for rows.Next() {
		st, err := scanSubTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subtask: %w", err)
		}
		subtasks = append(subtasks, st)
	}
	return subtasks, rows.Err()
}

// UpdateSubTask rewrites a subtask row.
func (s *Store) UpdateSubTask(ctx context.Context, st *domain.SubTask) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE subtasks SET title = ?, is_done = ?, updated_at = ? WHERE id = ?`,
		st.Title,
		boolToInt(st.IsDone),
		formatTime(st.UpdatedAt),
		st.ID,
	)
	if err != nil {
		return fmt.Errorf("update subtask: %w", err)
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

// DeleteSubTask removes a subtask.
func (s *Store) DeleteSubTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM subtasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete subtask: %w", err)
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
