package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/store"
)

// CreateRole inserts a role into the registry. Re-seeding an existing
// name is a no-op.
func (s *Store) CreateRole(ctx context.Context, r *domain.RoleRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO roles (id, name)
		VALUES (?, ?)`, r.ID, r.Name)
	if err != nil {
		return fmt.Errorf("insert role: %w", err)
	}
	return nil
}

// GetRoleByName looks a role up by its unique name.
func (s *Store) GetRoleByName(ctx context.Context, name string) (*domain.RoleRecord, error) {
	var r domain.RoleRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM roles WHERE name = ?`, name).Scan(&r.ID, &r.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan role: %w", err)
	}
	return &r, nil
}

// ListRoles returns the registry ordered by name.
func (s *Store) ListRoles(ctx context.Context) ([]*domain.RoleRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	var roles []*domain.RoleRecord
	for rows.Next() {
		var r domain.RoleRecord
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, &r)
	}
	return roles, rows.Err()
}
