package rating

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/chessmeet/chessmeet/internal/apperror"
	"github.com/chessmeet/chessmeet/internal/model"
)

// Lichess reads the public user endpoint:
//
//	GET {base}/api/user/{username}
type Lichess struct {
	baseURL string
	client  *http.Client
}

func NewLichess(baseURL string, client *http.Client) *Lichess {
	return &Lichess{baseURL: baseURL, client: client}
}

// NewLichessClient returns the HTTP client for Lichess calls. With a
// personal API token every request carries it as a bearer token, which
// raises the per-IP rate limit Lichess applies to anonymous callers.
func NewLichessClient(token string, timeout time.Duration) *http.Client {
	if token == "" {
		return &http.Client{Timeout: timeout}
	}
	client := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	client.Timeout = timeout
	return client
}

func (l *Lichess) Platform() model.Platform { return model.PlatformLichess }

type lichessUser struct {
	Disabled bool `json:"disabled"`
	Perfs    struct {
		Rapid  *lichessPerf `json:"rapid"`
		Blitz  *lichessPerf `json:"blitz"`
		Bullet *lichessPerf `json:"bullet"`
	} `json:"perfs"`
}

type lichessPerf struct {
	Rating *int `json:"rating"`
}

func (p *lichessPerf) rating() *int {
	if p == nil {
		return nil
	}
	return p.Rating
}

func (l *Lichess) Fetch(ctx context.Context, username string) (Ratings, error) {
	u, err := joinPath(l.baseURL, "api", "user", username)
	if err != nil {
		return Ratings{}, err
	}

	var user lichessUser
	if err := getJSON(ctx, l.client, l.Platform(), username, u, &user); err != nil {
		return Ratings{}, err
	}
	// Closed accounts still answer 200, with no perfs.
	if user.Disabled {
		return Ratings{}, apperror.ProviderNotFound(string(l.Platform()), username)
	}
	return Ratings{
		Rapid:  user.Perfs.Rapid.rating(),
		Blitz:  user.Perfs.Blitz.rating(),
		Bullet: user.Perfs.Bullet.rating(),
	}, nil
}
