package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chessmeet/chessmeet/internal/apperror"
	"github.com/chessmeet/chessmeet/internal/model"
)

// CreateSession stores a freshly issued session token.
func (db *DB) CreateSession(ctx context.Context, s *model.Session) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO user_sessions (session_token, user_id, expires_at, created_at)
		 VALUES (?, ?, ?, ?)`,
		s.Token, s.UserID, s.ExpiresAt.UTC(), s.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting session for %s: %w", s.UserID, err)
	}
	return nil
}

// GetSession returns the stored session regardless of expiry; deciding
// whether it is still valid is the caller's job.
func (db *DB) GetSession(ctx context.Context, token string) (*model.Session, error) {
	var s model.Session
	err := db.conn.QueryRowContext(ctx,
		`SELECT session_token, user_id, expires_at, created_at
		 FROM user_sessions WHERE session_token = ?`, token,
	).Scan(&s.Token, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundMessage("session not found")
		}
		return nil, fmt.Errorf("sqlite: getting session: %w", err)
	}
	return &s, nil
}

func (db *DB) DeleteSession(ctx context.Context, token string) error {
	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM user_sessions WHERE session_token = ?`, token); err != nil {
		return fmt.Errorf("sqlite: deleting session: %w", err)
	}
	return nil
}
