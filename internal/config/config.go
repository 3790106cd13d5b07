// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration, loaded from DEPLOYBRIDGE_*
// environment variables.
type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:"127.0.0.1:8090"`
	DBPath     string `env:"DB_PATH" envDefault:"deploybridge.db"`

	// SecretKey is the hex-encoded 32-byte AES key for credential
	// encryption. Optional: without it the service starts but every
	// credential operation fails with a clear error.
	SecretKey string `env:"SECRET_KEY"`

	VercelClientID        string `env:"VERCEL_CLIENT_ID"`
	VercelClientSecret    string `env:"VERCEL_CLIENT_SECRET"`
	VercelRedirectURI     string `env:"VERCEL_REDIRECT_URI"`
	VercelAuthorizeURL    string `env:"VERCEL_AUTHORIZE_URL"`
	VercelIntegrationSlug string `env:"VERCEL_INTEGRATION_SLUG"`

	// APITimeout bounds every provider API request.
	APITimeout time.Duration `env:"API_TIMEOUT" envDefault:"30s"`

	// ExportTimeout is the wall-clock ceiling over the export pipeline's
	// subprocess step.
	ExportTimeout time.Duration `env:"EXPORT_TIMEOUT" envDefault:"50s"`

	// BundleSizeLimit caps the total bytes of source files per export.
	BundleSizeLimit int64 `env:"BUNDLE_SIZE_LIMIT" envDefault:"10485760"`

	// BundleCmd and PublishCmd are space-separated command lines for the
	// export pipeline's two subprocess stages.
	BundleCmd  string `env:"BUNDLE_CMD" envDefault:"npm run bundle"`
	PublishCmd string `env:"PUBLISH_CMD" envDefault:"webflow library publish"`
}

// Load reads and validates configuration from the environment.
func Load() (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: "DEPLOYBRIDGE_"})
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.SecretKey != "" {
		if _, err := cfg.EncryptionKey(); err != nil {
			return nil, err
		}
	}
	if len(cfg.BundleCommand()) == 0 || len(cfg.PublishCommand()) == 0 {
		return nil, fmt.Errorf("DEPLOYBRIDGE_BUNDLE_CMD and DEPLOYBRIDGE_PUBLISH_CMD must not be blank")
	}

	return &cfg, nil
}

// EncryptionKey decodes SecretKey into the raw 32-byte AES key. Returns
// (nil, nil) when no key is configured.
func (c *Config) EncryptionKey() ([]byte, error) {
	if c.SecretKey == "" {
		return nil, nil
	}

	key, err := hex.DecodeString(c.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("DEPLOYBRIDGE_SECRET_KEY is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("DEPLOYBRIDGE_SECRET_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// HasVercelOAuth reports whether the OAuth application settings needed for
// the authorization flow are present.
func (c *Config) HasVercelOAuth() bool {
	return c.VercelClientID != "" && c.VercelClientSecret != "" && c.VercelRedirectURI != ""
}

// BundleCommand returns the bundle stage command line, split on whitespace.
func (c *Config) BundleCommand() []string {
	return strings.Fields(c.BundleCmd)
}

// PublishCommand returns the publish stage command line, split on whitespace.
func (c *Config) PublishCommand() []string {
	return strings.Fields(c.PublishCmd)
}
