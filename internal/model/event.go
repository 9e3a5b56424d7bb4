package model

import "time"

// EventType is the kind of gathering.
type EventType string

const (
	EventTorneo        EventType = "torneo"
	EventCasual        EventType = "casual"
	EventEntrenamiento EventType = "entrenamiento"
	EventClub          EventType = "club"
)

// Valid reports whether t is one of the known event kinds.
func (t EventType) Valid() bool {
	switch t {
	case EventTorneo, EventCasual, EventEntrenamiento, EventClub:
		return true
	}
	return false
}

// DefaultEventImage is used when an event is created without an image.
const DefaultEventImage = "https://images.unsplash.com/photo-1743686749360-712a3bfb19f0?w=800"

// Event is a gathering organised by a user or club.
//
// OrganizerName/OrganizerType are snapshots taken at creation time and are
// never refreshed when the organizer edits their profile.
//
// Invariant: 0 <= SeatsTaken <= MaxSeats.
type Event struct {
	ID            string     `json:"event_id"`
	OrganizerID   string     `json:"organizer_id"`
	OrganizerName string     `json:"organizer_name"`
	OrganizerType UserType   `json:"organizer_type"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	City          string     `json:"city"`
	Address       string     `json:"address"`
	Date          string     `json:"date"` // YYYY-MM-DD, compared lexicographically
	Time          string     `json:"time"`
	EventType     EventType  `json:"event_type"`
	SkillLevel    SkillLevel `json:"skill_level"`
	MaxSeats      int        `json:"max_seats"`
	SeatsTaken    int        `json:"seats_taken"`
	ImageURL      string     `json:"image_url"`
	CreatedAt     time.Time  `json:"created_at"`
}

// IsFull returns true when no seats remain.
func (e *Event) IsFull() bool {
	return e.SeatsTaken >= e.MaxSeats
}

// SeatsLeft returns the number of available seats (never negative).
func (e *Event) SeatsLeft() int {
	if left := e.MaxSeats - e.SeatsTaken; left > 0 {
		return left
	}
	return 0
}

// EventDetail is an event plus the viewer-relative join flag and attendees.
type EventDetail struct {
	Event
	UserJoined bool         `json:"user_joined"`
	Attendees  []Attendance `json:"attendees"`
}

// MyEvents groups the events a user organises and the ones they joined.
type MyEvents struct {
	Organized []Event `json:"organized"`
	Joined    []Event `json:"joined"`
}

// AttendanceStatus is the state of an Attendance row.
type AttendanceStatus string

const (
	AttendanceJoined AttendanceStatus = "joined"
	// AttendancePending exists in the stored schema but nothing transitions
	// into it: joins are immediate.
	AttendancePending AttendanceStatus = "pending"
)

// Attendance records that a user holds a seat at an event.
// At most one row exists per (UserID, EventID).
type Attendance struct {
	ID        string           `json:"attendance_id"`
	UserID    string           `json:"user_id"`
	UserName  string           `json:"user_name"`
	EventID   string           `json:"event_id"`
	Status    AttendanceStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}
