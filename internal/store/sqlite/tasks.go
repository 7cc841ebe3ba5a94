package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/store"
)

const taskColumns = `t.id, t.project_id, t.stage_id, t.milestone_id, t.name, t.description, t.priority, t.status, t.active, t.creator_id, t.start_date, t.due_date, t.created_at, t.updated_at`

func scanTask(scanner interface{ Scan(dest ...any) error }) (*domain.Task, error) {
	var t domain.Task

	var (
		milestoneID sql.NullString
		active      int
		creatorID   sql.NullString
		startDate   sql.NullString
		dueDate     sql.NullString
		createdAt   string
		updatedAt   string
	)

	err := scanner.Scan(
		&t.ID,
		&t.ProjectID,
		&t.StageID,
		&milestoneID,
		&t.Name,
		&t.Description,
		&t.Priority,
		&t.Status,
		&active,
		&creatorID,
		&startDate,
		&dueDate,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.MilestoneID = milestoneID.String
	t.Active = active != 0
	t.CreatorID = creatorID.String

	if t.StartDate, err = parseNullableTime(startDate); err != nil {
		return nil, err
	}
	if t.DueDate, err = parseNullableTime(dueDate); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &t, nil
}

// CreateTask inserts the task and its assignee rows in one transaction.
func (s *Store) CreateTask(ctx context.Context, t *domain.Task) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks (id, project_id, stage_id, milestone_id, name, description, priority, status, active, creator_id, start_date, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.ProjectID,
		t.StageID,
		nullString(t.MilestoneID),
		t.Name,
		t.Description,
		t.Priority,
		string(t.Status),
		boolToInt(t.Active),
		nullString(t.CreatorID),
		nullTimeString(t.StartDate),
		nullTimeString(t.DueDate),
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrInvalidInput.WithMessage("stage, milestone, or project does not exist").WithCause(err)
		}
		return fmt.Errorf("insert task: %w", err)
	}

	if err := insertAssignees(ctx, tx, t.ID, t.AssigneeIDs); err != nil {
		return err
	}

	return tx.Commit()
}

func insertAssignees(ctx context.Context, tx *sql.Tx, taskID string, userIDs []string) error {
	for _, userID := range userIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO task_assignees (task_id, user_id)
			VALUES (?, ?)`, taskID, userID)
		if err != nil {
			return fmt.Errorf("insert assignee: %w", err)
		}
	}
	return nil
}

// GetTask retrieves a task by ID, with its assignees loaded.
func (s *Store) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks t WHERE t.id = ?`, id)

	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}

	assignees, err := s.loadAssignees(ctx, []string{t.ID})
	if err != nil {
		return nil, err
	}
	t.AssigneeIDs = assignees[t.ID]
	if t.AssigneeIDs == nil {
		t.AssigneeIDs = []string{}
	}

	return t, nil
}

// UpdateTask rewrites the task row and replaces its assignee set in one
// transaction.
func (s *Store) UpdateTask(ctx context.Context, t *domain.Task) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `
		UPDATE tasks
		SET stage_id = ?, milestone_id = ?, name = ?, description = ?, priority = ?, status = ?, active = ?, start_date = ?, due_date = ?, updated_at = ?
		WHERE id = ?`,
		t.StageID,
		nullString(t.MilestoneID),
		t.Name,
		t.Description,
		t.Priority,
		string(t.Status),
		boolToInt(t.Active),
		nullTimeString(t.StartDate),
		nullTimeString(t.DueDate),
		formatTime(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrInvalidInput.WithMessage("stage or milestone does not exist").WithCause(err)
		}
		return fmt.Errorf("update task: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM task_assignees WHERE task_id = ?`, t.ID); err != nil {
		return fmt.Errorf("clear assignees: %w", err)
	}
	if err := insertAssignees(ctx, tx, t.ID, t.AssigneeIDs); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteTask removes a task. Assignee rows, tag links, subtasks and
// messages hanging off it are cleaned up by cascade.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
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

// ListTasks returns one page of tasks matching the filter. Without a
// project scope the listing covers every project the viewer can see.
func (s *Store) ListTasks(ctx context.Context, f store.TaskFilter, pp store.PageParams) (*store.Page[*domain.Task], error) {
	pp.Validate()

	var where []string
	var args []any

	if f.ProjectID != "" {
		where = append(where, "t.project_id = ?")
		args = append(args, f.ProjectID)
	} else {
		where = append(where, `t.project_id IN (
			SELECT p.id FROM projects p
			LEFT JOIN project_members pm ON pm.project_id = p.id AND pm.user_id = ?
			WHERE p.owner_id = ? OR pm.user_id IS NOT NULL)`)
		args = append(args, f.ViewerID, f.ViewerID)
	}

	if f.OpenOnly {
		where = append(where, "t.status NOT IN ('done', 'cancelled')")
	}
	if f.Archived != nil {
		where = append(where, "t.active = ?")
		args = append(args, boolToInt(!*f.Archived))
	}
	if f.Status != "" {
		where = append(where, "t.status = ?")
		args = append(args, string(f.Status))
	}
	if f.Priority > 0 {
		where = append(where, "t.priority = ?")
		args = append(args, f.Priority)
	}
	if f.CreatorID != "" {
		where = append(where, "t.creator_id = ?")
		args = append(args, f.CreatorID)
	}
	if f.AssigneeID != "" {
		where = append(where, `t.id IN (
			SELECT ta.task_id FROM task_assignees ta WHERE ta.user_id = ?)`)
		args = append(args, f.AssigneeID)
	}
	if f.DueBefore != nil {
		where = append(where, "t.due_date <= ?")
		args = append(args, formatTime(*f.DueBefore))
	}
	if f.DueAfter != nil {
		where = append(where, "t.due_date >= ?")
		args = append(args, formatTime(*f.DueAfter))
	}
	if len(f.TagNames) > 0 {
		where = append(where, `t.id IN (
			SELECT tt.task_id FROM task_tags tt
			JOIN tags tg ON tg.id = tt.tag_id
			WHERE tg.name IN (`+placeholders(len(f.TagNames))+`))`)
		for _, name := range f.TagNames {
			args = append(args, name)
		}
	}

	clause := joinWhere(where)

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks t`+clause, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}

	direction := "ASC"
	if f.OrderDesc {
		direction = "DESC"
	}

	queryArgs := append(append([]any{}, args...), pp.Limit, pp.Offset())
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks t`+clause+`
		ORDER BY `+f.OrderColumn()+` `+direction+`, t.id
		LIMIT ? OFFSET ?`, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	var taskIDs []string
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
		taskIDs = append(taskIDs, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	assignees, err := s.loadAssignees(ctx, taskIDs)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		t.AssigneeIDs = assignees[t.ID]
		if t.AssigneeIDs == nil {
			t.AssigneeIDs = []string{}
		}
	}

	return store.NewPage(tasks, total, pp), nil
}

// loadAssignees fetches assignee IDs for a batch of tasks.
func (s *Store) loadAssignees(ctx context.Context, taskIDs []string) (map[string][]string, error) {
	if len(taskIDs) == 0 {
		return map[string][]string{}, nil
	}

	args := make([]any, len(taskIDs))
	for i, id := range taskIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT task_id, user_id FROM task_assignees
		WHERE task_id IN (`+placeholders(len(taskIDs))+`)
		ORDER BY user_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query assignees: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]string)
	for rows.Next() {
		var taskID, userID string
		if err := rows.Scan(&taskID, &userID); err != nil {
			return nil, fmt.Errorf("scan assignee: %w", err)
		}
		result[taskID] = append(result[taskID], userID)
	}
	return result, rows.Err()
}
