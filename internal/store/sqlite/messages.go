package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/blancapp/blanc-server/internal/domain"
	"github.com/blancapp/blanc-server/internal/store"
)

const messageColumns = `id, object_type, object_id, message_type, content, author_id, created_at, updated_at`

func scanMessage(scanner interface{ Scan(dest ...any) error }) (*domain.Message, error) {
	var m domain.Message

	var (
		authorID  sql.NullString
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&m.ID,
		&m.Target.Type,
		&m.Target.ID,
		&m.Type,
		&m.Content,
		&authorID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.AuthorID = authorID.String

	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if m.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &m, nil
}

// CreateMessage inserts a new message.
func (s *Store) CreateMessage(ctx context.Context, m *domain.Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, object_type, object_id, message_type, content, author_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID,
		string(m.Target.Type),
		m.Target.ID,
		string(m.Type),
		m.Content,
		nullString(m.AuthorID),
		formatTime(m.CreatedAt),
		formatTime(m.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// GetMessage retrieves a message by ID.
func (s *Store) GetMessage(ctx context.Context, id string) (*domain.Message, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = ?`, id)

	m, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan message: %w", err)
	}
	return m, nil
}

// ListMessages returns the thread for a target, oldest first.
func (s *Store) ListMessages(ctx context.Context, target domain.EntityRef) ([]*domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages
		WHERE object_type = ? AND object_id = ?
		ORDER BY created_at, id`,
		string(target.Type), target.ID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// UpdateMessage rewrites a message's content.
func (s *Store) UpdateMessage(ctx context.Context, m *domain.Message) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE messages SET content = ?, updated_at = ? WHERE id = ?`,
		m.Content, formatTime(m.UpdatedAt), m.ID)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
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

// DeleteMessage removes a message.
func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
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

// CountTaskMessages returns per-task comment counts. Tasks without
// messages simply don't appear in the map.
func (s *Store) CountTaskMessages(ctx context.Context, taskIDs []string) (map[string]int, error) {
	if len(taskIDs) == 0 {
		return map[string]int{}, nil
	}

	args := make([]any, 0, len(taskIDs)+1)
	args = append(args, string(domain.EntityTypeTask))
	for _, id := range taskIDs {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT object_id, COUNT(*) FROM messages
		WHERE object_type = ? AND object_id IN (`+placeholders(len(taskIDs))+`)
		GROUP BY object_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("count task messages: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
