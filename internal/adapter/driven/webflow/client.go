// Package webflow is a minimal client for the site builder's Data API,
// used to verify manually supplied workspace tokens before they are stored.
package webflow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mfreeland/deploybridge/internal/domain/model"
)

const defaultBaseURL = "https://api.webflow.com"

// AuthorizedUser identifies the account a workspace token acts as.
type AuthorizedUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Client calls the builder's API with a workspace token. Unlike the OAuth
// provider there is no token exchange; tokens are issued manually in the
// builder's dashboard and submitted by the user.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

// NewClient creates a client for the given workspace token.
func NewClient(token string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: defaultBaseURL,
		token:   token,
	}
}

// NewClientWithHTTPClient creates a Client against a custom http.Client and
// base URL. Intended for tests injecting an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, token string) *Client {
	return &Client{http: httpClient, baseURL: baseURL, token: token}
}

// AuthorizedBy returns the user the token is authorized as. A 401/403 means
// the token is invalid or revoked and surfaces as an AuthenticationError.
func (c *Client) AuthorizedBy(ctx context.Context) (*AuthorizedUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/token/authorized_by", nil)
	if err != nil {
		return nil, fmt.Errorf("build authorized_by request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch authorized_by: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &model.AuthenticationError{
			Provider: model.ProviderWebflow,
			Message:  "workspace token is invalid or revoked",
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &model.RateLimitError{Provider: model.ProviderWebflow}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		var env struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&env)
		if env.Message == "" {
			env.Message = http.StatusText(resp.StatusCode)
		}
		return nil, &model.ProviderError{
			Provider: model.ProviderWebflow,
			Code:     env.Code,
			Message:  env.Message,
			Status:   resp.StatusCode,
		}
	}

	var user AuthorizedUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode authorized_by response: %w", err)
	}
	return &user, nil
}
