package model

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError reports bad caller input. It never reflects a network
// failure and is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports a missing credential or resource.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// IntegrityError reports a failed decryption or authentication-tag check.
// It signals tampering or corruption and must never be silently retried.
type IntegrityError struct {
	Message string
}

func (e *IntegrityError) Error() string {
	return e.Message
}

// AuthenticationError reports a 401/403 from a provider API or a failed
// token-endpoint exchange.
type AuthenticationError struct {
	Provider Provider
	Message  string
}

func (e *AuthenticationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: authentication failed", e.Provider)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// RateLimitError reports a 429 from a provider API. ResetAt is nil when the
// provider did not advertise a reset time.
type RateLimitError struct {
	Provider Provider
	ResetAt  *time.Time
}

func (e *RateLimitError) Error() string {
	if e.ResetAt == nil {
		return fmt.Sprintf("%s: rate limit exceeded", e.Provider)
	}
	return fmt.Sprintf("%s: rate limit exceeded, resets at %s", e.Provider, e.ResetAt.UTC().Format(time.RFC3339))
}

// QuotaExceededError reports a plan or resource limit on the provider side.
type QuotaExceededError struct {
	Provider Provider
	Resource string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s: quota exceeded for %s", e.Provider, e.Resource)
}

// ProviderError is the catch-all for provider API failures that fit no
// narrower variant. Code and Status carry the provider's machine code and
// HTTP status verbatim for diagnostics; they never cross the RPC boundary
// as raw transport details.
type ProviderError struct {
	Provider Provider
	Code     string
	Message  string
	Status   int
}

func (e *ProviderError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Code)
}

// ErrCodeNotSupported is the machine code carried by a ProviderError when an
// operation exists on the interface but the provider has no equivalent.
const ErrCodeNotSupported = "NOT_SUPPORTED"

// BuildProviderError reports a failed bundle or publish subprocess. Logs
// holds every captured output line up to the failure. Timeout distinguishes
// a killed-on-deadline process from a nonzero exit.
type BuildProviderError struct {
	Command string
	Args    []string
	Logs    []string
	Message string
	Timeout bool
}

func (e *BuildProviderError) Error() string {
	cmd := e.Command
	if len(e.Args) > 0 {
		cmd += " " + strings.Join(e.Args, " ")
	}
	if e.Timeout {
		return fmt.Sprintf("build command timed out: %s", cmd)
	}
	return fmt.Sprintf("%s: %s", e.Message, cmd)
}
