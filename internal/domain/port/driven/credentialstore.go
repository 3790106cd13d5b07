package driven

import (
	"context"
	"errors"

	"github.com/mfreeland/deploybridge/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by CredentialStore operations when
// DEPLOYBRIDGE_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set DEPLOYBRIDGE_SECRET_KEY")

// CredentialStore is the driven port for encrypted provider-token
// persistence. At most one credential exists per (user, provider) pair;
// saving over an existing pair replaces it. The adapter owns
// encryption/decryption; this interface deals in plaintext only.
type CredentialStore interface {
	// SaveToken encrypts and stores plaintext for (userID, provider),
	// replacing any existing credential for the pair. Returns a
	// *model.ValidationError when plaintext is empty, whitespace-only, or
	// shorter than the minimum token length.
	SaveToken(ctx context.Context, userID string, provider model.Provider, plaintext string, metadata map[string]string) error

	// GetToken decrypts and returns the stored plaintext. Returns a
	// *model.NotFoundError when no credential exists and a
	// *model.IntegrityError when the row is malformed or fails the
	// authentication-tag check.
	GetToken(ctx context.Context, userID string, provider model.Provider) (string, error)

	// HasToken reports whether a credential exists by row existence alone.
	// It never touches ciphertext.
	HasToken(ctx context.Context, userID string, provider model.Provider) (bool, error)

	// RevokeToken deletes the credential. Revoking a credential that does
	// not exist is a success, not an error.
	RevokeToken(ctx context.Context, userID string, provider model.Provider) error
}
