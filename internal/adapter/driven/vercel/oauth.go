package vercel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mfreeland/deploybridge/internal/domain/model"
)

// AuthorizationURL builds the consent URL for one authorization attempt.
// With an integration slug configured, Vercel uses the installation flow:
// a clean URL with no query parameters, state carried by the caller's
// cookie. Otherwise the classic OAuth query-string shape is used.
func (c *Client) AuthorizationURL(state string) string {
	if c.cfg.IntegrationSlug != "" {
		return "https://vercel.com/integrations/" + c.cfg.IntegrationSlug + "/new"
	}

	authorize := c.cfg.AuthorizeURL
	if authorize == "" {
		authorize = defaultAuthorizeURL
	}

	query := url.Values{
		"response_type": {"code"},
		"client_id":     {c.cfg.ClientID},
		"redirect_uri":  {c.cfg.RedirectURI},
		"state":         {state},
		"scope":         {"user"},
	}
	return authorize + "?" + query.Encode()
}

// ExchangeCode swaps an authorization code for an access token. The token
// endpoint's failure modes are narrower than the general API's, so any
// non-2xx is an AuthenticationError; no finer classification is attempted.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*model.OAuthToken, error) {
	form := url.Values{
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"code":          {code},
		"redirect_uri":  {c.cfg.RedirectURI},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v2/oauth/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	defer resp.Body.Close()

	c.recordRateLimit(resp.Header)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &model.AuthenticationError{
			Provider: model.ProviderVercel,
			Message:  "authorization code exchange failed",
		}
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}

	return &model.OAuthToken{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		TeamID:      tok.TeamID,
	}, nil
}

// RefreshToken is unsupported: Vercel access tokens are long-lived and the
// platform exposes no refresh grant. Failing explicitly beats a silent no-op.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*model.OAuthToken, error) {
	return nil, &model.ProviderError{
		Provider: model.ProviderVercel,
		Code:     model.ErrCodeNotSupported,
		Message:  "token refresh is not supported",
	}
}
