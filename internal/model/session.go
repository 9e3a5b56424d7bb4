package model

import "time"

// Session is an opaque bearer credential bound to one user.
// A user may hold any number of concurrent sessions (one per login).
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ValidAt reports whether the session is still usable at instant now.
// The session stops being valid AT ExpiresAt, not one tick after it: a
// token is accepted until its expiry instant and rejected at it. The older
// server accepted a token whose expiry equalled "now"; that equality case
// is deliberately rejected here and session_test.go pins the boundary.
func (s *Session) ValidAt(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
