package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/store"
)

// projectColumns is the ordered list of columns selected in project
// queries. Must match the scan order in scanProject. The p. alias is
// required because listings join against project_members.
const projectColumns = `p.id, p.name, p.description, p.owner_id, p.status, p.active, p.is_favourite, p.allow_milestones, p.allow_timesheets, p.start_date, p.end_date, p.created_at, p.updated_at`

func scanProject(scanner interface{ Scan(dest ...any) error }) (*domain.Project, error) {
	var p domain.Project

	var (
		ownerID         sql.NullString
		active          int
		isFavourite     int
		allowMilestones int
		allowTimesheets int
		startDate       sql.NullString
		endDate         sql.NullString
		createdAt       string
		updatedAt       string
	)

	err := scanner.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&ownerID,
		&p.Status,
		&active,
		&isFavourite,
		&allowMilestones,
		&allowTimesheets,
		&startDate,
		&endDate,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.OwnerID = ownerID.String
	p.Active = active != 0
	p.IsFavourite = isFavourite != 0
	p.AllowMilestones = allowMilestones != 0
	p.AllowTimesheets = allowTimesheets != 0

	if p.StartDate, err = parseNullableTime(startDate); err != nil {
		return nil, err
	}
	if p.EndDate, err = parseNullableTime(endDate); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &p, nil
}

// CreateProject inserts the project, its default stage and the creator's
// manager membership in one transaction, so a project is never visible
// without them.
func (s *Store) CreateProject(ctx context.Context, p *domain.Project, defaultStage *domain.Stage, manager *domain.ProjectMember) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, owner_id, status, active, is_favourite, allow_milestones, allow_timesheets, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.Name,
		p.Description,
		nullString(p.OwnerID),
		string(p.Status),
		boolToInt(p.Active),
		boolToInt(p.IsFavourite),
		boolToInt(p.AllowMilestones),
		boolToInt(p.AllowTimesheets),
		nullTimeString(p.StartDate),
		nullTimeString(p.EndDate),
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithMessage("project name already in use").WithCause(err)
		}
		return fmt.Errorf("insert project: %w", err)
	}

	if defaultStage != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO stages (id, project_id, name, sequence, is_default)
			VALUES (?, ?, ?, ?, 1)`,
			defaultStage.ID,
			defaultStage.ProjectID,
			defaultStage.Name,
			defaultStage.Sequence,
		)
		if err != nil {
			return fmt.Errorf("insert default stage: %w", err)
		}
	}

	if manager != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO project_members (id, project_id, user_id, role, joined_at)
			VALUES (?, ?, ?, ?, ?)`,
			manager.ID,
			manager.ProjectID,
			manager.UserID,
			string(manager.Role),
			formatTime(manager.JoinedAt),
		)
		if err != nil {
			return fmt.Errorf("insert manager membership: %w", err)
		}
	}

	return tx.Commit()
}

// GetProject retrieves a project by ID.
func (s *Store) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects p WHERE p.id = ?`, id)

	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan project: %w", err)
	}
	return p, nil
}

// UpdateProject rewrites a project row.
func (s *Store) UpdateProject(ctx context.Context, p *domain.Project) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET name = ?, description = ?, owner_id = ?, status = ?, active = ?, is_favourite = ?, allow_milestones = ?, allow_timesheets = ?, start_date = ?, end_date = ?, updated_at = ?
		WHERE id = ?`,
		p.Name,
		p.Description,
		nullString(p.OwnerID),
		string(p.Status),
		boolToInt(p.Active),
		boolToInt(p.IsFavourite),
		boolToInt(p.AllowMilestones),
		boolToInt(p.AllowTimesheets),
		nullTimeString(p.StartDate),
		nullTimeString(p.EndDate),
		formatTime(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithMessage("project name already in use").WithCause(err)
		}
		return fmt.Errorf("update project: %w", err)
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

// DeleteProject removes a project. Stages, memberships, tasks, milestones
// and tag links cascade away with it.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
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

// ListProjects returns one page of projects visible to the viewer,
// newest first. Visibility means ownership or membership.
func (s *Store) ListProjects(ctx context.Context, f store.ProjectFilter, pp store.PageParams) (*store.Page[*domain.Project], error) {
	pp.Validate()

	where := []string{"(p.owner_id = ? OR pm.user_id IS NOT NULL)"}
	args := []any{f.ViewerID}

	if f.Role != "" {
		// Role filtering only looks at the membership row; owners
		// without one are excluded on purpose.
		where = []string{"pm.user_id IS NOT NULL", "pm.role = ?"}
		args = []any{string(f.Role)}
	}
	if f.FavouriteOnly {
		where = append(where, "p.is_favourite = 1")
	}
	if f.Archived != nil {
		where = append(where, "p.active = ?")
		args = append(args, boolToInt(!*f.Archived))
	}
	if f.Status != "" {
		where = append(where, "p.status = ?")
		args = append(args, string(f.Status))
	}
	if f.NameContains != "" {
		where = append(where, "p.name LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(f.NameContains)+"%")
	}
	if f.StartAfter != nil {
		where = append(where, "p.start_date >= ?")
		args = append(args, formatTime(*f.StartAfter))
	}
	if f.StartBefore != nil {
		where = append(where, "p.start_date <= ?")
		args = append(args, formatTime(*f.StartBefore))
	}
	if len(f.TagNames) > 0 {
		where = append(where, `p.id IN (
			SELECT pt.project_id FROM project_tags pt
			JOIN tags tg ON tg.id = pt.tag_id
			WHERE tg.name IN (`+placeholders(len(f.TagNames))+`))`)
		for _, name := range f.TagNames {
			args = append(args, name)
		}
	}

	from := `FROM projects p
		LEFT JOIN project_members pm ON pm.project_id = p.id AND pm.user_id = ?`
	fromArgs := []any{f.ViewerID}

	clause := joinWhere(where)

	var total int
	countArgs := append(append([]any{}, fromArgs...), args...)
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) `+from+clause, countArgs...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}

	queryArgs := append(countArgs, pp.Limit, pp.Offset())
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectColumns+` `+from+clause+`
		ORDER BY p.created_at DESC, p.id
		LIMIT ? OFFSET ?`, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return store.NewPage(projects, total, pp), nil
}
