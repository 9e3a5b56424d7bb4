package model

// Platform identifies an external chess rating provider.
type Platform string

const (
	PlatformChessCom Platform = "chess_com"
	PlatformLichess  Platform = "lichess"
)

// Valid reports whether p is a supported provider.
func (p Platform) Valid() bool {
	return p == PlatformChessCom || p == PlatformLichess
}

// RatingInfo is the normalised view of a player's ratings on one platform.
type RatingInfo struct {
	Platform     Platform   `json:"platform"`
	Username     string     `json:"username"`
	RapidRating  *int       `json:"rapid_rating"`
	BlitzRating  *int       `json:"blitz_rating"`
	BulletRating *int       `json:"bullet_rating"`
	BestRating   *int       `json:"best_rating"`
	SkillLevel   SkillLevel `json:"skill_level"`
}

// RefreshResult is the per-platform outcome of a rating refresh. Exactly one
// of Rating and Error is set.
type RefreshResult struct {
	Platform Platform    `json:"platform"`
	Username string      `json:"username"`
	Rating   *RatingInfo `json:"rating,omitempty"`
	Error    string      `json:"error,omitempty"`
}
