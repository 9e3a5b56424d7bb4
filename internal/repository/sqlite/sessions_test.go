package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chessmeet/chessmeet/internal/apperror"
	"github.com/chessmeet/chessmeet/internal/model"
)

func TestSessionLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "ana@example.com", model.UserTypeUser)

	now := time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)
	s := &model.Session{
		Token:     "session_abc",
		UserID:    u.ID,
		ExpiresAt: now.Add(7 * 24 * time.Hour),
		CreatedAt: now,
	}
	if err := db.CreateSession(ctx, s); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	got, err := db.GetSession(ctx, "session_abc")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.UserID != u.ID {
		t.Errorf("UserID = %q, want %q", got.UserID, u.ID)
	}
	if !got.ExpiresAt.Equal(s.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, s.ExpiresAt)
	}

	if err := db.DeleteSession(ctx, "session_abc"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := db.GetSession(ctx, "session_abc"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetSession() after delete error = %v, want ErrNotFound", err)
	}

	// Deleting again is not an error.
	if err := db.DeleteSession(ctx, "session_abc"); err != nil {
		t.Errorf("second DeleteSession() error = %v", err)
	}
}

func TestSessions_MultiplePerUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "ana@example.com", model.UserTypeUser)

	now := time.Now().UTC()
	for _, tok := range []string{"session_one", "session_two"} {
		if err := db.CreateSession(ctx, &model.Session{Token: tok, UserID: u.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now}); err != nil {
			t.Fatalf("CreateSession(%s) error = %v", tok, err)
		}
	}

	if err := db.DeleteSession(ctx, "session_one"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetSession(ctx, "session_two"); err != nil {
		t.Errorf("revoking one session must not affect another: %v", err)
	}
}
