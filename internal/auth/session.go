package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chessmeet/chessmeet/internal/apperror"
	"github.com/chessmeet/chessmeet/internal/model"
	"github.com/chessmeet/chessmeet/internal/repository"
)

// DefaultSessionTTL is how long a freshly issued session stays valid.
const DefaultSessionTTL = 7 * 24 * time.Hour

// sessionStore is the slice of the storage port the manager needs.
type sessionStore interface {
	repository.SessionRepository
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// SessionManager issues, resolves and revokes opaque session tokens.
//
// Tokens are random strings stored server-side, not signed claims: logout
// deletes the row and the token is dead immediately. Expired rows are left
// in place and simply rejected on read.
type SessionManager struct {
	store  sessionStore
	ttl    time.Duration
	now    repository.Clock
	logger *slog.Logger
}

func NewSessionManager(store sessionStore, ttl time.Duration, logger *slog.Logger) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{
		store:  store,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// WithClock replaces the time source. Tests use it to pin "now".
func (m *SessionManager) WithClock(now repository.Clock) *SessionManager {
	m.now = now
	return m
}

// TTL is the lifetime applied to new sessions (also the cookie max-age).
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Create issues a new session for userID and returns it.
func (m *SessionManager) Create(ctx context.Context, userID string) (*model.Session, error) {
	token, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	now := m.now()
	s := &model.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}
	if err := m.store.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("auth: creating session: %w", err)
	}

	m.logger.Info("session created", "user_id", userID, "expires_at", s.ExpiresAt)
	return s, nil
}

// Resolve returns the user behind token. Missing, expired and orphaned
// sessions all yield the same Unauthenticated error.
func (m *SessionManager) Resolve(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, apperror.Unauthenticated("Not authenticated")
	}

	s, err := m.store.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthenticated("Invalid session")
		}
		return nil, fmt.Errorf("auth: loading session: %w", err)
	}

	if !s.ValidAt(m.now()) {
		return nil, apperror.Unauthenticated("Session expired")
	}

	user, err := m.store.GetUserByID(ctx, s.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthenticated("User not found")
		}
		return nil, fmt.Errorf("auth: loading session user: %w", err)
	}
	return user, nil
}

// ResolveOptional is Resolve for routes where identity is only context.
// Any failure, including a store error, yields nil.
func (m *SessionManager) ResolveOptional(ctx context.Context, token string) *model.User {
	if token == "" {
		return nil
	}
	user, err := m.Resolve(ctx, token)
	if err != nil {
		if !errors.Is(err, apperror.ErrUnauthenticated) {
			m.logger.Error("optional session lookup failed", "error", err)
		}
		return nil
	}
	return user
}

// Revoke deletes token. Unknown or empty tokens are not an error.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.store.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("auth: revoking session: %w", err)
	}
	return nil
}

// newSessionToken returns "session_" followed by 32 random bytes in
// unpadded base64url (43 characters).
func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: generating session token: %w", err)
	}
	return "session_" + base64.RawURLEncoding.EncodeToString(buf), nil
}
