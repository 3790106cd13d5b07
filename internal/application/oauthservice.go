package application

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/mfreeland/deploybridge/internal/domain/model"
	"github.com/mfreeland/deploybridge/internal/domain/port/driven"
)

// stateBytes is the entropy of one CSRF state token; hex-encoded it becomes
// a 64-character string.
const stateBytes = 32

// OAuthService glues the OAuth authorization dance to the cloud provider
// client: it issues CSRF state, validates callbacks, exchanges codes, and
// stores the resulting token. Sequencing within one attempt (issue,
// callback, exchange, save) is the caller's job; this service guarantees
// only that a mismatched state never reaches the network.
type OAuthService struct {
	provider driven.CloudProvider
	creds    driven.CredentialStore
}

// NewOAuthService creates an OAuthService. provider needs no user token;
// only its OAuth endpoints are used.
func NewOAuthService(provider driven.CloudProvider, creds driven.CredentialStore) *OAuthService {
	return &OAuthService{provider: provider, creds: creds}
}

// GenerateState produces a fresh cryptographically random state token.
// A new token is drawn per authorization attempt and never reused.
func (s *OAuthService) GenerateState() (string, error) {
	buf := make([]byte, stateBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ValidateState compares the state issued at authorization time with the one
// presented by the callback. The length check short-circuits, then the byte
// comparison runs in constant time to defeat timing side-channels. Any
// mismatch is a hard rejection.
func ValidateState(issued, received string) bool {
	if len(issued) != len(received) || issued == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(issued), []byte(received)) == 1
}

// AuthorizationURL returns the provider's consent URL for the given state.
func (s *OAuthService) AuthorizationURL(state string) string {
	return s.provider.AuthorizationURL(state)
}

// Connect completes one authorization attempt: it validates the callback
// state, exchanges the code, and stores the token for the user. A state
// mismatch rejects the attempt before any network call is made.
func (s *OAuthService) Connect(ctx context.Context, userID, issuedState, callbackState, code string) error {
	if !ValidateState(issuedState, callbackState) {
		return &model.AuthenticationError{
			Provider: model.ProviderVercel,
			Message:  "oauth state mismatch",
		}
	}

	tok, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return err
	}

	var metadata map[string]string
	if tok.TeamID != "" {
		metadata = map[string]string{"team_id": tok.TeamID}
	}

	if err := s.creds.SaveToken(ctx, userID, model.ProviderVercel, tok.AccessToken, metadata); err != nil {
		return fmt.Errorf("store exchanged token: %w", err)
	}
	return nil
}
