package auth

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chessmeet/chessmeet/internal/apperror"
	"github.com/chessmeet/chessmeet/internal/model"
	"github.com/chessmeet/chessmeet/internal/repository/sqlite"
)

// =========================================================================
// HELPERS
// =========================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// fakeClock is a settable time source.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(t *testing.T) (*SessionManager, *sqlite.DB, *fakeClock, *model.User) {
	t.Helper()
	store := newTestStore(t)
	clock := &fakeClock{t: time.Date(2030, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := NewSessionManager(store, 7*24*time.Hour, discardLogger()).WithClock(clock.Now)

	u := &model.User{Email: "ana@example.com", Name: "Ana"}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return m, store, clock, u
}

// =========================================================================
// Create / Resolve
// =========================================================================

func TestCreate_TokenFormat(t *testing.T) {
	m, _, clock, u := newTestManager(t)

	s, err := m.Create(context.Background(), u.ID)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(s.Token, "session_"), "token %q", s.Token)
	assert.Len(t, strings.TrimPrefix(s.Token, "session_"), 43)
	assert.Equal(t, clock.Now().Add(7*24*time.Hour), s.ExpiresAt)

	other, err := m.Create(context.Background(), u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, s.Token, other.Token, "tokens must be unique")
}

func TestResolve(t *testing.T) {
	m, _, _, u := newTestManager(t)
	ctx := context.Background()

	s, err := m.Create(ctx, u.ID)
	require.NoError(t, err)

	got, err := m.Resolve(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "ana@example.com", got.Email)
}

func TestResolve_Unauthenticated(t *testing.T) {
	m, store, _, _ := newTestManager(t)
	ctx := context.Background()

	// A session whose user row is gone.
	require.NoError(t, store.CreateSession(ctx, &model.Session{
		Token: "session_orphan", UserID: "user_gone",
		ExpiresAt: time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}))

	for _, token := range []string{"", "session_unknown", "session_orphan"} {
		_, err := m.Resolve(ctx, token)
		assert.ErrorIs(t, err, apperror.ErrUnauthenticated, "token %q", token)
	}
}

// A session is accepted strictly before expires_at and rejected at it.
func TestResolve_ExpiryBoundary(t *testing.T) {
	m, _, clock, u := newTestManager(t)
	ctx := context.Background()

	s, err := m.Create(ctx, u.ID)
	require.NoError(t, err)

	clock.Advance(7*24*time.Hour - time.Nanosecond)
	_, err = m.Resolve(ctx, s.Token)
	assert.NoError(t, err, "one tick before expiry must still be valid")

	clock.Advance(time.Nanosecond)
	_, err = m.Resolve(ctx, s.Token)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated, "exactly at expiry must be rejected")

	clock.Advance(time.Hour)
	_, err = m.Resolve(ctx, s.Token)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestResolveOptional(t *testing.T) {
	m, _, _, u := newTestManager(t)
	ctx := context.Background()

	s, err := m.Create(ctx, u.ID)
	require.NoError(t, err)

	assert.NotNil(t, m.ResolveOptional(ctx, s.Token))
	assert.Nil(t, m.ResolveOptional(ctx, ""))
	assert.Nil(t, m.ResolveOptional(ctx, "session_nope"))
}

// =========================================================================
// Revoke
// =========================================================================

func TestRevoke(t *testing.T) {
	m, _, _, u := newTestManager(t)
	ctx := context.Background()

	first, err := m.Create(ctx, u.ID)
	require.NoError(t, err)
	second, err := m.Create(ctx, u.ID)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, first.Token))
	_, err = m.Resolve(ctx, first.Token)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	_, err = m.Resolve(ctx, second.Token)
	assert.NoError(t, err, "other sessions of the same user survive")

	assert.NoError(t, m.Revoke(ctx, first.Token), "revoke is idempotent")
	assert.NoError(t, m.Revoke(ctx, ""))
}
