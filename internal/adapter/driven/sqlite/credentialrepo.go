package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mfreeland/deploybridge/internal/domain/model"
	"github.com/mfreeland/deploybridge/internal/domain/port/driven"
)

// minTokenLength is the shortest plaintext SaveToken accepts. Real provider
// tokens are far longer; anything shorter is caller error.
const minTokenLength = 10

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port.
// Token values are encrypted with AES-256-GCM before write; ciphertext, IV,
// and authentication tag each occupy their own column. Replacement of an
// existing (user, provider) credential is a single upsert, so there is no
// window in which the user has no credential.
type CredentialRepo struct {
	db     *DB
	cipher tokenCipher // nil when encryption is disabled
}

// NewCredentialRepo creates a CredentialRepo. key must be 32 bytes for
// AES-256-GCM, or nil to disable credential storage (all operations then
// return driven.ErrEncryptionKeyNotSet).
func NewCredentialRepo(db *DB, key []byte) (*CredentialRepo, error) {
	if key == nil {
		return &CredentialRepo{db: db}, nil
	}
	c, err := newAESGCMCipher(key)
	if err != nil {
		return nil, err
	}
	return &CredentialRepo{db: db, cipher: c}, nil
}

// SaveToken encrypts plaintext and stores it for (userID, provider),
// replacing any existing credential for the pair.
func (r *CredentialRepo) SaveToken(ctx context.Context, userID string, provider model.Provider, plaintext string, metadata map[string]string) error {
	if strings.TrimSpace(plaintext) == "" {
		return &model.ValidationError{Field: "token", Message: "must not be empty"}
	}
	if len(plaintext) < minTokenLength {
		return &model.ValidationError{Field: "token", Message: fmt.Sprintf("must be at least %d characters", minTokenLength)}
	}
	if r.cipher == nil {
		return driven.ErrEncryptionKeyNotSet
	}

	ciphertext, iv, tag, err := r.cipher.Encrypt([]byte(plaintext))
	if err != nil {
		return fmt.Errorf("encrypt token for %s/%s: %w", userID, provider, err)
	}

	var meta sql.NullString
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("marshal credential metadata: %w", err)
		}
		meta = sql.NullString{String: string(raw), Valid: true}
	}

	const query = `
		INSERT INTO credentials (user_id, provider, ciphertext, iv, auth_tag, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			ciphertext = excluded.ciphertext,
			iv         = excluded.iv,
			auth_tag   = excluded.auth_tag,
			metadata   = excluded.metadata,
			created_at = CURRENT_TIMESTAMP`
	if _, err := r.db.Writer.ExecContext(ctx, query, userID, string(provider), ciphertext, iv, tag, meta); err != nil {
		return fmt.Errorf("save credential %s/%s: %w", userID, provider, err)
	}
	return nil
}

// GetToken decrypts and returns the stored plaintext for (userID, provider).
func (r *CredentialRepo) GetToken(ctx context.Context, userID string, provider model.Provider) (string, error) {
	if r.cipher == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT ciphertext, iv, auth_tag FROM credentials WHERE user_id = ? AND provider = ?`
	var ciphertext, iv, tag []byte
	err := r.db.Reader.QueryRowContext(ctx, query, userID, string(provider)).Scan(&ciphertext, &iv, &tag)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &model.NotFoundError{Resource: fmt.Sprintf("%s credential", provider)}
	}
	if err != nil {
		return "", fmt.Errorf("get credential %s/%s: %w", userID, provider, err)
	}

	if len(iv) == 0 || len(tag) == 0 {
		return "", &model.IntegrityError{Message: fmt.Sprintf("credential for %s is missing iv or auth tag", provider)}
	}

	plaintext, err := r.cipher.Decrypt(ciphertext, iv, tag)
	if err != nil {
		return "", &model.IntegrityError{Message: fmt.Sprintf("credential for %s failed integrity check: %v", provider, err)}
	}
	return string(plaintext), nil
}

// HasToken reports credential existence by row presence alone. It never
// reads ciphertext, so callers that only need "is connected" pay no
// decryption cost.
func (r *CredentialRepo) HasToken(ctx context.Context, userID string, provider model.Provider) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM credentials WHERE user_id = ? AND provider = ?)`
	var exists bool
	if err := r.db.Reader.QueryRowContext(ctx, query, userID, string(provider)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check credential %s/%s: %w", userID, provider, err)
	}
	return exists, nil
}

// RevokeToken deletes the credential for (userID, provider). Deleting a
// credential that does not exist is a success.
func (r *CredentialRepo) RevokeToken(ctx context.Context, userID string, provider model.Provider) error {
	const query = `DELETE FROM credentials WHERE user_id = ? AND provider = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, userID, string(provider)); err != nil {
		return fmt.Errorf("revoke credential %s/%s: %w", userID, provider, err)
	}
	return nil
}
