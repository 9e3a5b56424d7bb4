// Package repository declares the storage port used by the services.
//
// Every interface is implemented by *sqlite.DB. Operations that must stay
// consistent under concurrent requests (joining/leaving an event, deleting an
// event with its attendance, unique memberships) are single methods here so
// the implementation can run them atomically; services never compose them
// out of separate read and write calls.
package repository

import (
	"context"
	"time"

	"github.com/chessmeet/chessmeet/internal/model"
)

// Caps applied by list queries.
const (
	MaxEventList      = 100
	MaxClubList       = 100
	MaxMemberList     = 100
	MaxAttendeeList   = 100
	MaxPostList       = 50
	ClubUpcomingLimit = 20
)

type UserRepository interface {
	// CreateUser inserts u, assigning ID and CreatedAt. A duplicate email
	// yields apperror.DuplicateEmail.
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.User, error)
	SetPicture(ctx context.Context, id, picture string) error
	// SetChessAccount stores (or, with a nil username, clears) the
	// username/rating pair for one platform.
	SetChessAccount(ctx context.Context, id string, platform model.Platform, username *string, rating *int) error
	ListClubs(ctx context.Context, city string) ([]model.ClubSummary, error)
}

type SessionRepository interface {
	CreateSession(ctx context.Context, s *model.Session) error
	GetSession(ctx context.Context, token string) (*model.Session, error)
	// DeleteSession is idempotent: an unknown token is not an error.
	DeleteSession(ctx context.Context, token string) error
}

// EventFilter gathers the listEvents filters. Zero values are ignored.
type EventFilter struct {
	// City is matched case-insensitively as a substring.
	City       string
	SkillLevel model.SkillLevel
	EventType  model.EventType
	// DateFrom (inclusive) and DateTo (exclusive) are YYYY-MM-DD strings.
	DateFrom string
	DateTo   string
	// OrganizerID restricts to one organizer.
	OrganizerID string
	Limit       int
}

type EventRepository interface {
	CreateEvent(ctx context.Context, e *model.Event) error
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]model.Event, error)
	// ListJoinedEvents returns the events referenced by userID's attendance.
	ListJoinedEvents(ctx context.Context, userID string, limit int) ([]model.Event, error)
	// DeleteEvent removes the event and every attendance row for it in one
	// transaction.
	DeleteEvent(ctx context.Context, id string) error

	// JoinEvent creates the attendance row and increments seats_taken in one
	// transaction. The increment is conditional on seats_taken < max_seats.
	// Errors: NotFound, EventFull, AlreadyJoined (checked in that order).
	JoinEvent(ctx context.Context, a *model.Attendance) error
	// LeaveEvent deletes the attendance row and decrements seats_taken,
	// clamped at zero. clamped is true when the counter was already zero.
	// Returns NotFound if there is no row for the pair.
	LeaveEvent(ctx context.Context, userID, eventID string) (clamped bool, err error)
	GetAttendance(ctx context.Context, userID, eventID string) (*model.Attendance, error)
	ListAttendees(ctx context.Context, eventID string, limit int) ([]model.Attendance, error)
	CountEvents(ctx context.Context) (int, error)
}

type ClubRepository interface {
	// AddMember inserts m unless (ClubID, UserID) already exists, in which
	// case it returns apperror.AlreadyMember.
	AddMember(ctx context.Context, m *model.ClubMember) error
	// RemoveMember deletes the member only if it belongs to clubID.
	RemoveMember(ctx context.Context, clubID, memberID string) error
	ListMembers(ctx context.Context, clubID string, limit int) ([]model.ClubMember, error)
}

type PostRepository interface {
	CreatePost(ctx context.Context, p *model.Post) error
	// ListPosts returns newest first; an empty authorID means every author.
	ListPosts(ctx context.Context, authorID string, limit int) ([]model.Post, error)
}

// Store is the full storage port.
type Store interface {
	UserRepository
	SessionRepository
	EventRepository
	ClubRepository
	PostRepository
	Ping(ctx context.Context) error
}

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time
