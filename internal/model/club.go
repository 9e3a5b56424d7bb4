package model

import "time"

// ClubMember links a player to a club roster.
// At most one row exists per (ClubID, UserID); ClubID always references a
// user whose UserType is club.
type ClubMember struct {
	ID         string     `json:"member_id"`
	ClubID     string     `json:"club_id"`
	UserID     string     `json:"user_id"`
	UserName   string     `json:"user_name"`
	UserEmail  string     `json:"user_email"`
	SkillLevel SkillLevel `json:"skill_level"`
	JoinedAt   time.Time  `json:"joined_at"`
}

// ClubSummary is a club profile annotated with live counters.
type ClubSummary struct {
	User
	MemberCount int `json:"member_count"`
	EventCount  int `json:"event_count"`
}

// ClubDetail is a club profile with its roster and upcoming events.
type ClubDetail struct {
	User
	Members     []ClubMember `json:"members"`
	Events      []Event      `json:"events"`
	MemberCount int          `json:"member_count"`
	EventCount  int          `json:"event_count"`
}
