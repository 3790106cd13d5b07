package model

// OAuthToken is the result of a successful code-for-token exchange.
// TeamID is provider-specific installation context and may be empty.
type OAuthToken struct {
	AccessToken string
	TokenType   string
	TeamID      string
}
