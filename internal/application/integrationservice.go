package application

import (
	"context"
	"fmt"

	"github.com/mfreeland/deploybridge/internal/domain/model"
	"github.com/mfreeland/deploybridge/internal/domain/port/driven"
)

// TokenVerifier checks a manually supplied workspace token against its
// provider before it is stored. Implementations return an
// AuthenticationError for an invalid token.
type TokenVerifier func(ctx context.Context, token string) error

// IntegrationService manages per-user provider connections: connection
// status, the manual workspace-token flow for the site builder, and
// revocation for either provider.
type IntegrationService struct {
	creds  driven.CredentialStore
	verify TokenVerifier
}

// NewIntegrationService creates an IntegrationService. verify may be nil to
// skip workspace-token verification (used in tests).
func NewIntegrationService(creds driven.CredentialStore, verify TokenVerifier) *IntegrationService {
	return &IntegrationService{creds: creds, verify: verify}
}

// ListIntegrations reports the connection status of every supported
// provider for one user. Status is an existence check only; no ciphertext
// is touched.
func (s *IntegrationService) ListIntegrations(ctx context.Context, userID string) ([]model.Integration, error) {
	integrations := make([]model.Integration, 0, len(model.Providers))
	for _, p := range model.Providers {
		connected, err := s.creds.HasToken(ctx, userID, p)
		if err != nil {
			return nil, fmt.Errorf("check %s connection: %w", p, err)
		}
		integrations = append(integrations, model.Integration{Provider: p, Connected: connected})
	}
	return integrations, nil
}

// GetWorkspaceToken returns the decrypted site-builder workspace token.
func (s *IntegrationService) GetWorkspaceToken(ctx context.Context, userID string) (string, error) {
	return s.creds.GetToken(ctx, userID, model.ProviderWebflow)
}

// SaveWorkspaceToken verifies and stores a manually supplied workspace
// token. Verification runs before the store so garbage tokens are never
// persisted.
func (s *IntegrationService) SaveWorkspaceToken(ctx context.Context, userID, token string) error {
	if s.verify != nil {
		if err := s.verify(ctx, token); err != nil {
			return err
		}
	}
	return s.creds.SaveToken(ctx, userID, model.ProviderWebflow, token, nil)
}

// Revoke deletes the stored credential for one provider. Idempotent.
func (s *IntegrationService) Revoke(ctx context.Context, userID string, provider model.Provider) error {
	if !provider.Valid() {
		return &model.ValidationError{Field: "provider", Message: fmt.Sprintf("unknown provider %q", provider)}
	}
	return s.creds.RevokeToken(ctx, userID, provider)
}
