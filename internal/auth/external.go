package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/chessmeet/chessmeet/internal/apperror"
)

// ExternalSessionURL is the one OAuth session-data endpoint this service
// trusts. It is not configurable and has no fallback.
const ExternalSessionURL = "https://demobackend.emergentagent.com/auth/v1/env/oauth/session-data"

// ExternalIdentity is the profile returned for a completed OAuth login.
type ExternalIdentity struct {
	Email   string  `json:"email"`
	Name    string  `json:"name"`
	Picture *string `json:"picture"`
}

// ExternalSessionClient trades an external session id for the identity it
// belongs to.
type ExternalSessionClient struct {
	url    string
	client *http.Client
}

// NewExternalSessionClient targets ExternalSessionURL.
func NewExternalSessionClient(timeout time.Duration) *ExternalSessionClient {
	return newExternalSessionClient(ExternalSessionURL, &http.Client{Timeout: timeout})
}

// newExternalSessionClient lets tests point the client at an httptest server.
func newExternalSessionClient(url string, client *http.Client) *ExternalSessionClient {
	return &ExternalSessionClient{url: url, client: client}
}

// Fetch calls the session-data endpoint with the id in X-Session-ID.
// Any non-200 answer means the id is not valid.
func (c *ExternalSessionClient) Fetch(ctx context.Context, sessionID string) (*ExternalIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building session-data request: %w", err)
	}
	req.Header.Set("X-Session-ID", sessionID)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperror.ProviderError("oauth session service", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperror.InvalidExternalSession()
	}

	var identity ExternalIdentity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, apperror.ProviderError("oauth session service", fmt.Errorf("decoding response: %w", err))
	}
	if identity.Email == "" {
		return nil, apperror.InvalidExternalSession()
	}
	if identity.Picture != nil && *identity.Picture == "" {
		identity.Picture = nil
	}
	return &identity, nil
}
