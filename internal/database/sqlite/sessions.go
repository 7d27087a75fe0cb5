package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/skinstric/internal/web/middleware"
)

// SessionRepository stores visitor sessions next to the KV entries.
// Timestamps are kept as unix milliseconds.
type SessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionRepository shares the KV's database handle.
func NewSessionRepository(kv *KV) *SessionRepository {
	return &SessionRepository{db: kv.db, now: time.Now}
}

// Save stores a session in the database
func (r *SessionRepository) Save(ctx context.Context, id string, createdAt, expiresAt time.Time) error {
	query := `
		INSERT INTO sessions (id, created_at, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET created_at = excluded.created_at, expires_at = excluded.expires_at`
	if _, err := r.db.ExecContext(ctx, query, id, createdAt.UnixMilli(), expiresAt.UnixMilli()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID, returns nil if not found or expired
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*middleware.StoredSession, error) {
	var createdAt, expiresAt int64
	err := r.db.QueryRowContext(ctx,
		"SELECT created_at, expires_at FROM sessions WHERE id = ? AND expires_at > ?",
		sessionID, r.now().UnixMilli(),
	).Scan(&createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &middleware.StoredSession{
		ID:        sessionID,
		CreatedAt: time.UnixMilli(createdAt),
		ExpiresAt: time.UnixMilli(expiresAt),
	}, nil
}

// Delete removes a session from the database
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes all expired sessions and returns their IDs
func (r *SessionRepository) DeleteExpired(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "DELETE FROM sessions WHERE expires_at <= ? RETURNING id", r.now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("delete expired sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expired session: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired sessions: %w", err)
	}
	return ids, nil
}
