package vercel_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfreeland/deploybridge/internal/adapter/driven/vercel"
	"github.com/mfreeland/deploybridge/internal/domain/model"
)

func TestAuthorizationURL_IntegrationInstallShape(t *testing.T) {
	client := vercel.NewClient(vercel.Config{
		ClientID:        "client-id",
		RedirectURI:     "https://app.example.com/oauth/callback",
		IntegrationSlug: "deploybridge",
	}, "")

	got := client.AuthorizationURL("some-state")

	assert.Equal(t, "https://vercel.com/integrations/deploybridge/new", got,
		"install flow carries no query parameters; state lives in the caller's cookie")
}

func TestAuthorizationURL_ClassicOAuthShape(t *testing.T) {
	client := vercel.NewClient(vercel.Config{
		ClientID:    "client-id",
		RedirectURI: "https://app.example.com/oauth/callback",
	}, "")

	got := client.AuthorizationURL("state-123")

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "https://vercel.com/oauth/authorize", u.Scheme+"://"+u.Host+u.Path)

	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "https://app.example.com/oauth/callback", q.Get("redirect_uri"))
	assert.Equal(t, "state-123", q.Get("state"))
}

func TestExchangeCode_Success(t *testing.T) {
	var gotForm url.Values
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v2/oauth/access_token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm

		_, _ = w.Write([]byte(`{"access_token":"tok_abc","token_type":"Bearer","team_id":"team_1"}`))
	}))

	tok, err := client.ExchangeCode(context.Background(), "auth-code-1")
	require.NoError(t, err)

	assert.Equal(t, "auth-code-1", gotForm.Get("code"))
	assert.Equal(t, "client-id", gotForm.Get("client_id"))
	assert.Equal(t, "client-secret", gotForm.Get("client_secret"))

	assert.Equal(t, "tok_abc", tok.AccessToken)
	assert.Equal(t, "team_1", tok.TeamID)
}

func TestExchangeCode_FailureIsAuthenticationError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"invalid_grant","message":"code expired"}}`))
	}))

	_, err := client.ExchangeCode(context.Background(), "stale-code")

	var authErr *model.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, model.ProviderVercel, authErr.Provider)
}

func TestRefreshToken_NotSupported(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("refresh must not reach the network")
	}))

	_, err := client.RefreshToken(context.Background(), "whatever")

	var provErr *model.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, model.ErrCodeNotSupported, provErr.Code)
}
