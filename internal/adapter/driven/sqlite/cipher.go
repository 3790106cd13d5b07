package sqlite

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

// tokenCipher is the encryption seam of the credential repo. IV and
// authentication tag are carried separately so each lands in its own column.
type tokenCipher interface {
	Encrypt(plaintext []byte) (ciphertext, iv, tag []byte, err error)
	Decrypt(ciphertext, iv, tag []byte) ([]byte, error)
}

// aesGCMCipher encrypts with AES-256-GCM under a process-wide key. A fresh
// random IV is drawn per Encrypt call; IVs are never reused, so encrypting
// identical plaintexts twice yields different ciphertexts.
type aesGCMCipher struct {
	key []byte
}

func newAESGCMCipher(key []byte) (*aesGCMCipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	return &aesGCMCipher{key: key}, nil
}

func (c *aesGCMCipher) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}

func (c *aesGCMCipher) Encrypt(plaintext []byte) ([]byte, []byte, []byte, error) {
	gcm, err := c.gcm()
	if err != nil {
		return nil, nil, nil, err
	}

	iv := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, nil, nil, fmt.Errorf("rand iv: %w", err)
	}

	// Seal output is ciphertext || tag; split the tag off so it can be
	// stored in its own column.
	sealed := gcm.Seal(nil, iv, plaintext, nil)
	split := len(sealed) - gcm.Overhead()
	ciphertext := sealed[:split]
	tag := sealed[split:]

	return ciphertext, iv, tag, nil
}

func (c *aesGCMCipher) Decrypt(ciphertext, iv, tag []byte) ([]byte, error) {
	gcm, err := c.gcm()
	if err != nil {
		return nil, err
	}

	if len(iv) != gcm.NonceSize() {
		return nil, fmt.Errorf("iv must be %d bytes, got %d", gcm.NonceSize(), len(iv))
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("gcm.Open: %w", err)
	}

	return plaintext, nil
}
