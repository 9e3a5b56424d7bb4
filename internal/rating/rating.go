// Package rating looks up a player's current ratings on external chess
// sites and normalises them into a skill tier.
//
// Lookups are pass-through: nothing is cached and every call hits the
// provider. A username the provider does not know is ProviderNotFound (404);
// any other failure is ProviderError (502).
package rating

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/chessmeet/chessmeet/internal/apperror"
	"github.com/chessmeet/chessmeet/internal/model"
)

// userAgent is sent on every outbound call. Chess.com rejects anonymous
// clients.
const userAgent = "chessmeet/1.0 (+https://github.com/chessmeet/chessmeet)"

// usernamePattern is the alphabet both sites allow in a username. Anything
// else is rejected before a request is built, so a username can never
// change the path or query of the outbound URL.
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{2,30}$`)

// Ratings are the raw per-time-control numbers from one provider. A nil
// field means the player has no rating in that time control.
type Ratings struct {
	Rapid  *int
	Blitz  *int
	Bullet *int
}

// Provider is one external rating source.
type Provider interface {
	Platform() model.Platform
	Fetch(ctx context.Context, username string) (Ratings, error)
}

// Adapter routes lookups to the provider for each platform.
type Adapter struct {
	providers map[model.Platform]Provider
}

func NewAdapter(providers ...Provider) *Adapter {
	a := &Adapter{providers: make(map[model.Platform]Provider, len(providers))}
	for _, p := range providers {
		a.providers[p.Platform()] = p
	}
	return a
}

// Lookup fetches username on platform and returns the normalised view.
func (a *Adapter) Lookup(ctx context.Context, platform model.Platform, username string) (*model.RatingInfo, error) {
	p, ok := a.providers[platform]
	if !ok {
		return nil, apperror.ValidationFailed("platform", fmt.Sprintf("Invalid platform: %s", platform))
	}
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if !usernamePattern.MatchString(username) {
		return nil, apperror.ValidationFailed("username", fmt.Sprintf("Invalid %s username", platform))
	}

	r, err := p.Fetch(ctx, username)
	if err != nil {
		return nil, err
	}
	info := Normalize(platform, username, r)
	return &info, nil
}

// getJSON GETs u and decodes the body into dst, translating a 404 into
// ProviderNotFound.
func getJSON(ctx context.Context, client *http.Client, platform model.Platform, username, u string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return apperror.ProviderError(string(platform), err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return apperror.ProviderError(string(platform), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperror.ProviderNotFound(string(platform), username)
	case resp.StatusCode != http.StatusOK:
		return apperror.ProviderError(string(platform), fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return apperror.ProviderError(string(platform), fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// joinPath escapes each segment and appends it to base. url.JoinPath
// expects already-escaped input, so a raw "/" or ".." would otherwise
// reach the path.
func joinPath(base string, segments ...string) (string, error) {
	escaped := make([]string, len(segments))
	for i, seg := range segments {
		if seg == "." || seg == ".." {
			escaped[i] = strings.ReplaceAll(seg, ".", "%2E")
			continue
		}
		escaped[i] = url.PathEscape(seg)
	}
	u, err := url.JoinPath(base, escaped...)
	if err != nil {
		return "", fmt.Errorf("rating: building url: %w", err)
	}
	return u, nil
}
