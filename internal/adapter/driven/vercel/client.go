// Package vercel implements the CloudProvider port against the Vercel REST API.
package vercel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/mfreeland/deploybridge/internal/domain/model"
	"github.com/mfreeland/deploybridge/internal/domain/port/driven"
)

const defaultBaseURL = "https://api.vercel.com"

// defaultAuthorizeURL is the classic OAuth consent endpoint, used when no
// integration slug is configured.
const defaultAuthorizeURL = "https://vercel.com/oauth/authorize"

// Compile-time interface satisfaction check.
var _ driven.CloudProvider = (*Client)(nil)

var (
	cacheOnce      sync.Once
	cacheTransport *httpcache.Transport
)

// sharedCacheTransport returns the process-wide ETag cache transport.
// Clients are cheap and constructed per call, so the cache must outlive any
// one client: a per-client cache would start empty on every construction
// and never serve a conditional hit.
func sharedCacheTransport() *httpcache.Transport {
	cacheOnce.Do(func() {
		cacheTransport = httpcache.NewMemoryCacheTransport()
	})
	return cacheTransport
}

// Config holds the OAuth application settings for the Vercel integration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// AuthorizeURL overrides the classic consent endpoint. Ignored when
	// IntegrationSlug is set.
	AuthorizeURL string

	// IntegrationSlug switches AuthorizationURL to the clean
	// integration-install shape (no query parameters).
	IntegrationSlug string

	// Timeout bounds every request. Zero means 30s.
	Timeout time.Duration
}

// Client implements the driven.CloudProvider port for Vercel. Every call
// flows through the request primitive, which attaches the bearer token,
// records rate-limit headers, and classifies non-2xx responses into the
// model error taxonomy before any caller sees a status code.
type Client struct {
	http    *http.Client
	baseURL string
	cfg     Config
	token   string

	mu   sync.Mutex
	rate model.RateLimitSnapshot
}

// NewClient creates a Vercel client authenticated with the given access
// token. The transport stack is the process-wide in-memory ETag cache so
// repeated list reads are served conditionally across client constructions.
// token may be empty for a client used only for code exchange.
func NewClient(cfg Config, token string) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		http: &http.Client{
			Transport: sharedCacheTransport(),
			Timeout:   timeout,
		},
		baseURL: defaultBaseURL,
		cfg:     cfg,
		token:   token,
	}
}

// NewClientWithHTTPClient creates a Client against a custom http.Client and
// base URL. Intended for tests injecting an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string, cfg Config, token string) *Client {
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		cfg:     cfg,
		token:   token,
	}
}

// RateLimit returns the latest snapshot observed on any response.
func (c *Client) RateLimit() model.RateLimitSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate
}

// request performs one API call. body is JSON-marshaled when non-nil; the
// response is decoded into out when out is non-nil and the status is 2xx.
// Non-2xx responses are classified and never escape as raw statuses.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s body: %w", method, path, err)
		}
		reqBody = bytes.NewReader(raw)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	resetAt := c.recordRateLimit(resp.Header)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
		return nil
	}

	return c.classify(resp.StatusCode, resp.Body, resetAt)
}

// errorEnvelope is Vercel's standard error response shape.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// classify maps a non-2xx response to exactly one error taxonomy variant:
// 429 to RateLimitError, 401/403 to QuotaExceededError when the machine code
// is quota-flavored and AuthenticationError otherwise, everything else to
// ProviderError carrying code, message, and status verbatim.
func (c *Client) classify(status int, body io.Reader, resetAt *time.Time) error {
	var env errorEnvelope
	_ = json.NewDecoder(body).Decode(&env) // best-effort; an empty envelope still classifies

	code := env.Error.Code
	message := env.Error.Message
	if message == "" {
		message = http.StatusText(status)
	}

	switch {
	case status == http.StatusTooManyRequests:
		return &model.RateLimitError{Provider: model.ProviderVercel, ResetAt: resetAt}

	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		if isQuotaCode(code) {
			return &model.QuotaExceededError{Provider: model.ProviderVercel, Resource: quotaResource(code)}
		}
		return &model.AuthenticationError{Provider: model.ProviderVercel, Message: message}

	default:
		return &model.ProviderError{
			Provider: model.ProviderVercel,
			Code:     code,
			Message:  message,
			Status:   status,
		}
	}
}

// isQuotaCode reports whether a 401/403 machine code actually signals a plan
// or resource limit rather than bad credentials.
func isQuotaCode(code string) bool {
	lower := strings.ToLower(code)
	return strings.Contains(lower, "quota") ||
		strings.Contains(lower, "limit_exceeded") ||
		strings.Contains(lower, "plan_upgrade_required")
}

// quotaResource extracts the limited resource name from a quota machine
// code, e.g. "storage_quota_exceeded" yields "storage".
func quotaResource(code string) string {
	lower := strings.ToLower(code)
	for _, suffix := range []string{"_quota_exceeded", "_limit_exceeded"} {
		if name, ok := strings.CutSuffix(lower, suffix); ok && name != "" {
			return name
		}
	}
	if lower == "" {
		return "plan"
	}
	return lower
}

// recordRateLimit updates the snapshot from the response's rate-limit
// headers and returns the parsed reset time for this response, if any.
// Responses without the headers leave the previous snapshot untouched.
func (c *Client) recordRateLimit(h http.Header) *time.Time {
	limitRaw := h.Get("X-RateLimit-Limit")
	if limitRaw == "" {
		return nil
	}

	limit, err := strconv.Atoi(limitRaw)
	if err != nil {
		return nil
	}
	remaining, _ := strconv.Atoi(h.Get("X-RateLimit-Remaining"))

	var resetAt time.Time
	if resetRaw := h.Get("X-RateLimit-Reset"); resetRaw != "" {
		if epoch, err := strconv.ParseInt(resetRaw, 10, 64); err == nil {
			resetAt = time.Unix(epoch, 0).UTC()
		}
	}

	c.mu.Lock()
	c.rate = model.RateLimitSnapshot{Limit: limit, Remaining: remaining, ResetAt: resetAt}
	snapshot := c.rate
	c.mu.Unlock()

	if remaining < 10 {
		attrs := []any{
			"remaining", snapshot.Remaining,
			"limit", snapshot.Limit,
		}
		// Without a reset header the reset time is zero and "time until"
		// would log as a nonsense negative duration.
		if !snapshot.ResetAt.IsZero() {
			attrs = append(attrs, "reset_in", time.Until(snapshot.ResetAt).Round(time.Second))
		}
		slog.Warn("vercel rate limit low", attrs...)
	}

	if resetAt.IsZero() {
		return nil
	}
	return &resetAt
}
