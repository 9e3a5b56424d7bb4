// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data. They are similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
//
// JSON field names are snake_case to stay wire-compatible with the existing web client.
package model

import "time"

// UserType classifies an account. Clubs are ordinary accounts with extra
// rights over their own membership roster.
type UserType string

const (
	UserTypeUser UserType = "user"
	UserTypeClub UserType = "club"
)

// Valid reports whether t is one of the known account types.
func (t UserType) Valid() bool {
	return t == UserTypeUser || t == UserTypeClub
}

// SkillLevel is the skill tier of a player or the target level of an event.
type SkillLevel string

const (
	SkillPrincipiante SkillLevel = "principiante"
	SkillMedio        SkillLevel = "medio"
	SkillAvanzado     SkillLevel = "avanzado"
)

// Valid reports whether s is one of the three tiers.
func (s SkillLevel) Valid() bool {
	switch s {
	case SkillPrincipiante, SkillMedio, SkillAvanzado:
		return true
	}
	return false
}

// User represents a registered account (player or club).
//
// WHY POINTERS FOR OPTIONAL FIELDS?
// The profile fields and the chess-account pairs are all optional. A nil
// pointer serialises as JSON null and maps to SQL NULL, which keeps "unset"
// distinct from "set to empty string".
//
// PasswordHash is tagged json:"-" so it can never leak through an API
// response. OAuth-created accounts have no digest at all (nil).
type User struct {
	ID           string      `json:"user_id"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	PasswordHash *string     `json:"-"`
	UserType     UserType    `json:"user_type"`
	SkillLevel   *SkillLevel `json:"skill_level"`
	City         *string     `json:"city"`
	Bio          *string     `json:"bio"`
	Picture      *string     `json:"picture"`

	ChessComUsername *string `json:"chess_com_username"`
	ChessComRating   *int    `json:"chess_com_rating"`
	LichessUsername  *string `json:"lichess_username"`
	LichessRating    *int    `json:"lichess_rating"`

	CreatedAt time.Time `json:"created_at"`
}

// IsClub reports whether the account acts as a club.
func (u *User) IsClub() bool {
	return u.UserType == UserTypeClub
}

// HasLinkedAccounts reports whether at least one chess platform is linked.
func (u *User) HasLinkedAccounts() bool {
	return u.ChessComUsername != nil || u.LichessUsername != nil
}

// ProfileUpdate is the explicit field-by-field merge for PUT /users/me.
// A nil field means "leave unchanged"; a non-nil pointer to "" clears nothing
// special, it sets the empty string.
type ProfileUpdate struct {
	Name       *string
	SkillLevel *SkillLevel
	City       *string
	Bio        *string
	Picture    *string
}

// IsEmpty reports whether no field was provided.
func (p ProfileUpdate) IsEmpty() bool {
	return p.Name == nil && p.SkillLevel == nil && p.City == nil && p.Bio == nil && p.Picture == nil
}

// Apply merges the provided fields into u.
func (p ProfileUpdate) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.SkillLevel != nil {
		u.SkillLevel = p.SkillLevel
	}
	if p.City != nil {
		u.City = p.City
	}
	if p.Bio != nil {
		u.Bio = p.Bio
	}
	if p.Picture != nil {
		u.Picture = p.Picture
	}
}
