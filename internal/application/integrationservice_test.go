package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfreeland/deploybridge/internal/domain/model"
)

func TestListIntegrations(t *testing.T) {
	creds := newFakeCredentialStore()
	creds.tokens[credKey("u1", model.ProviderVercel)] = "tok"
	svc := NewIntegrationService(creds, nil)

	integrations, err := svc.ListIntegrations(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, integrations, len(model.Providers))
	byProvider := map[model.Provider]bool{}
	for _, i := range integrations {
		byProvider[i.Provider] = i.Connected
	}
	assert.True(t, byProvider[model.ProviderVercel])
	assert.False(t, byProvider[model.ProviderWebflow])
}

func TestSaveWorkspaceToken_VerifiesBeforeStoring(t *testing.T) {
	creds := newFakeCredentialStore()
	verified := ""
	svc := NewIntegrationService(creds, func(_ context.Context, token string) error {
		verified = token
		return nil
	})

	err := svc.SaveWorkspaceToken(context.Background(), "u1", "wf-token-value")
	require.NoError(t, err)

	assert.Equal(t, "wf-token-value", verified)
	assert.Equal(t, "wf-token-value", creds.tokens[credKey("u1", model.ProviderWebflow)])
}

func TestSaveWorkspaceToken_RejectedTokenNotStored(t *testing.T) {
	creds := newFakeCredentialStore()
	svc := NewIntegrationService(creds, func(context.Context, string) error {
		return &model.AuthenticationError{Provider: model.ProviderWebflow, Message: "token is invalid"}
	})

	err := svc.SaveWorkspaceToken(context.Background(), "u1", "garbage")

	var authErr *model.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Empty(t, creds.tokens, "failed verification must not persist the token")
}

func TestGetWorkspaceToken(t *testing.T) {
	creds := newFakeCredentialStore()
	creds.tokens[credKey("u1", model.ProviderWebflow)] = "wf-token-value"
	svc := NewIntegrationService(creds, nil)

	token, err := svc.GetWorkspaceToken(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "wf-token-value", token)

	_, err = svc.GetWorkspaceToken(context.Background(), "u2")
	var notFound *model.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestRevoke(t *testing.T) {
	creds := newFakeCredentialStore()
	creds.tokens[credKey("u1", model.ProviderVercel)] = "tok"
	svc := NewIntegrationService(creds, nil)
	ctx := context.Background()

	require.NoError(t, svc.Revoke(ctx, "u1", model.ProviderVercel))
	assert.Empty(t, creds.tokens)

	// Revoking again is still a success.
	assert.NoError(t, svc.Revoke(ctx, "u1", model.ProviderVercel))

	var validationErr *model.ValidationError
	err := svc.Revoke(ctx, "u1", model.Provider("gitlab"))
	assert.ErrorAs(t, err, &validationErr)
}
