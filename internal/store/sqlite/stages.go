package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/store"
)

const stageColumns = `id, project_id, name, sequence, is_default`

func scanStage(scanner interface{ Scan(dest ...any) error }) (*domain.Stage, error) {
	var st domain.Stage

	var isDefault int

	err := scanner.Scan(
		&st.ID,
		&st.ProjectID,
		&st.Name,
		&st.Sequence,
		&isDefault,
	)
	if err != nil {
		return nil, err
	}

	st.IsDefault = isDefault != 0
	return &st, nil
}

// CreateStage inserts a new stage.
func (s *Store) CreateStage(ctx context.Context, st *domain.Stage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stages (id, project_id, name, sequence, is_default)
		VALUES (?, ?, ?, ?, ?)`,
		st.ID,
		st.ProjectID,
		st.Name,
		st.Sequence,
		boolToInt(st.IsDefault),
	)
	if err != nil {
		if isUniqueViolation(err) {
			// The partial unique index on is_default fired.
			return store.ErrAlreadyExists.WithMessage("project already has a default stage").WithCause(err)
		}
		if isForeignKeyViolation(err) {
			return store.ErrNotFound.WithCause(err)
		}
		return fmt.Errorf("insert stage: %w", err)
	}
	return nil
}

// GetStage retrieves a stage by ID.
func (s *Store) GetStage(ctx context.Context, id string) (*domain.Stage, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+stageColumns+` FROM stages WHERE id = ?`, id)

	st, err := scanStage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan stage: %w", err)
	}
	return st, nil
}

// GetDefaultStage retrieves the project's default stage.
func (s *Store) GetDefaultStage(ctx context.Context, projectID string) (*domain.Stage, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+stageColumns+` FROM stages WHERE project_id = ? AND is_default = 1`, projectID)

	st, err := scanStage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan stage: %w", err)
	}
	return st, nil
}

// ListProjectStages returns a project's stages in board order.
func (s *Store) ListProjectStages(ctx context.Context, projectID string) ([]*domain.Stage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+stageColumns+` FROM stages
		WHERE project_id = ?
		ORDER BY sequence, name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query stages: %w", err)
	}
	defer rows.Close()

	var stages []*domain.Stage
	for rows.Next() {
		st, err := scanStage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		stages = append(stages, st)
	}
	return stages, rows.Err()
}

// UpdateStage renames or reorders a stage. The default flag is immutable
// here; it is only ever set when the stage is created with its project.
func (s *Store) UpdateStage(ctx context.Context, st *domain.Stage) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE stages SET name = ?, sequence = ? WHERE id = ?`,
		st.Name, st.Sequence, st.ID)
	if err != nil {
		return fmt.Errorf("update stage: %w", err)
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

// DeleteStage removes a non-default stage and moves its tasks to the
// project's default stage, all in one transaction. Returns how many
// tasks moved.
func (s *Store) DeleteStage(ctx context.Context, id string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	row := tx.QueryRowContext(ctx,
		`SELECT `+stageColumns+` FROM stages WHERE id = ?`, id)
	st, err := scanStage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, store.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("scan stage: %w", err)
	}

	if st.IsDefault {
		return 0, store.ErrInvalidInput.WithMessage("cannot delete the default stage")
	}

	var defaultID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM stages WHERE project_id = ? AND is_default = 1`, st.ProjectID).
		Scan(&defaultID)
	if err != nil {
		return 0, fmt.Errorf("find default stage: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE tasks SET stage_id = ? WHERE stage_id = ?`, defaultID, id)
	if err != nil {
		return 0, fmt.Errorf("reassign tasks: %w", err)
	}
	moved, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM stages WHERE id = ?`, id); err != nil {
		return 0, fmt.Errorf("delete stage: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return int(moved), nil
}
