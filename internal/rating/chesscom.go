package rating

import (
	"context"
	"net/http"
	"strings"

	"github.com/chessmeet/chessmeet/internal/model"
)

// ChessCom reads the public Chess.com stats endpoint:
//
//	GET {base}/pub/player/{username}/stats
type ChessCom struct {
	baseURL string
	client  *http.Client
}

func NewChessCom(baseURL string, client *http.Client) *ChessCom {
	return &ChessCom{baseURL: baseURL, client: client}
}

func (c *ChessCom) Platform() model.Platform { return model.PlatformChessCom }

type chessComStats struct {
	Rapid  *chessComMode `json:"chess_rapid"`
	Blitz  *chessComMode `json:"chess_blitz"`
	Bullet *chessComMode `json:"chess_bullet"`
}

type chessComMode struct {
	Last struct {
		Rating *int `json:"rating"`
	} `json:"last"`
}

func (m *chessComMode) rating() *int {
	if m == nil {
		return nil
	}
	return m.Last.Rating
}

func (c *ChessCom) Fetch(ctx context.Context, username string) (Ratings, error) {
	// Chess.com usernames are case-insensitive and served lowercase.
	u, err := joinPath(c.baseURL, "pub", "player", strings.ToLower(username), "stats")
	if err != nil {
		return Ratings{}, err
	}

	var stats chessComStats
	if err := getJSON(ctx, c.client, c.Platform(), username, u, &stats); err != nil {
		return Ratings{}, err
	}
	return Ratings{
		Rapid:  stats.Rapid.rating(),
		Blitz:  stats.Blitz.rating(),
		Bullet: stats.Bullet.rating(),
	}, nil
}
