package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/store"
)

const refreshTokenColumns = `id, user_id, token_hash, expires_at, revoked, created_at`

func scanRefreshToken(scanner interface{ Scan(dest ...any) error }) (*domain.RefreshToken, error) {
	var t domain.RefreshToken

	var (
		revoked   int
		expiresAt string
		createdAt string
	)

	err := scanner.Scan(
		&t.ID,
		&t.UserID,
		&t.TokenHash,
		&expiresAt,
		&revoked,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	t.Revoked = revoked != 0

	t.ExpiresAt, err = parseTime(expiresAt)
	if err != nil {
		return nil, err
	}
	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// CreateRefreshToken inserts a new refresh token record.
func (s *Store) CreateRefreshToken(ctx context.Context, t *domain.RefreshToken) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.UserID,
		t.TokenHash,
		formatTime(t.ExpiresAt),
		boolToInt(t.Revoked),
		formatTime(t.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithCause(err)
		}
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// GetRefreshTokenByHash looks a token up by its stored hash.
func (s *Store) GetRefreshTokenByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+refreshTokenColumns+` FROM refresh_tokens WHERE token_hash = ?`, hash)

	t, err := scanRefreshToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan refresh token: %w", err)
	}
	return t, nil
}

// RevokeRefreshToken marks a token revoked. Idempotent on already-revoked
// tokens; unknown IDs return store.ErrNotFound.
func (s *Store) RevokeRefreshToken(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
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

// DeleteExpiredRefreshTokens removes tokens past their expiry, returning
// how many were deleted.
func (s *Store) DeleteExpiredRefreshTokens(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < ?`, formatTime(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}
