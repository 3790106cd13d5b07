package driven

import (
	"context"

	"github.com/mfreeland/deploybridge/internal/domain/model"
)

// CloudProvider is the capability set of one external cloud platform.
// Implementations classify every non-2xx response into the model error
// taxonomy before returning; raw HTTP statuses never reach callers.
//
// New providers are added as new implementations of this interface, never
// by branching on a provider tag inside shared logic.
type CloudProvider interface {
	// AuthorizationURL builds the URL the user is sent to for consent.
	// The shape (classic OAuth query string vs. clean integration-install
	// URL) is selected by provider configuration, not by the caller.
	AuthorizationURL(state string) string

	// ExchangeCode swaps an authorization code for an access token. Any
	// non-2xx from the token endpoint is a *model.AuthenticationError.
	ExchangeCode(ctx context.Context, code string) (*model.OAuthToken, error)

	// RefreshToken refreshes an access token. Providers without refresh
	// support return a *model.ProviderError with code
	// model.ErrCodeNotSupported rather than silently no-oping.
	RefreshToken(ctx context.Context, refreshToken string) (*model.OAuthToken, error)

	CreateProject(ctx context.Context, name string) (*model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)

	CreateDatabase(ctx context.Context, spec model.DatabaseSpec) (*model.Database, error)
	ListDatabases(ctx context.Context) ([]model.Database, error)

	// DeleteDatabase removes a database. A provider-side 404 resolves to
	// (false, nil): the resource was already gone and the delete is
	// idempotently complete.
	DeleteDatabase(ctx context.Context, id string) (bool, error)

	// UpdateEnvVars upserts environment variables one key at a time.
	// Additive-only: a variable the provider reports as already existing is
	// skipped, not overwritten. Callers must not rely on overwrite
	// semantics.
	UpdateEnvVars(ctx context.Context, projectID string, vars map[string]string) error

	CreateDeployment(ctx context.Context, spec model.DeploymentSpec) (*model.Deployment, error)
	GetDeployment(ctx context.Context, id string) (*model.Deployment, error)
	ListDeployments(ctx context.Context, projectID string) ([]model.Deployment, error)

	// RateLimit returns the latest rate-limit snapshot observed on any
	// response. Advisory only.
	RateLimit() model.RateLimitSnapshot
}
