package model

import "time"

// Post is an append-only entry in the social feed.
type Post struct {
	ID        string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	UserType  UserType  `json:"user_type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
