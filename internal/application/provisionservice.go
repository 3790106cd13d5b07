package application

import (
	"context"

	"github.com/mfreeland/deploybridge/internal/domain/model"
	"github.com/mfreeland/deploybridge/internal/domain/port/driven"
)

// CloudProviderFactory builds a provider client bound to one access token.
// Clients are cheap to construct, so one is built per call rather than
// cached; the factory is the single place client construction happens.
type CloudProviderFactory func(token string) driven.CloudProvider

// ProvisionService fronts the cloud provider's resource operations. Each
// call resolves the caller's stored token and delegates to a client built
// for it; a user without a stored credential gets the store's NotFoundError
// before any network traffic.
type ProvisionService struct {
	creds       driven.CredentialStore
	newProvider CloudProviderFactory
}

// NewProvisionService creates a ProvisionService.
func NewProvisionService(creds driven.CredentialStore, newProvider CloudProviderFactory) *ProvisionService {
	return &ProvisionService{creds: creds, newProvider: newProvider}
}

func (s *ProvisionService) providerFor(ctx context.Context, userID string) (driven.CloudProvider, error) {
	token, err := s.creds.GetToken(ctx, userID, model.ProviderVercel)
	if err != nil {
		return nil, err
	}
	return s.newProvider(token), nil
}

// CreateDatabase provisions a database for the user.
func (s *ProvisionService) CreateDatabase(ctx context.Context, userID string, spec model.DatabaseSpec) (*model.Database, error) {
	provider, err := s.providerFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return provider.CreateDatabase(ctx, spec)
}

// ListDatabases lists the user's databases.
func (s *ProvisionService) ListDatabases(ctx context.Context, userID string) ([]model.Database, error) {
	provider, err := s.providerFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return provider.ListDatabases(ctx)
}

// DeleteDatabase deletes a database; false means it was already gone.
func (s *ProvisionService) DeleteDatabase(ctx context.Context, userID, id string) (bool, error) {
	provider, err := s.providerFor(ctx, userID)
	if err != nil {
		return false, err
	}
	return provider.DeleteDatabase(ctx, id)
}

// CreateDeployment creates a deployment from files or a git source.
func (s *ProvisionService) CreateDeployment(ctx context.Context, userID string, spec model.DeploymentSpec) (*model.Deployment, error) {
	provider, err := s.providerFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return provider.CreateDeployment(ctx, spec)
}

// GetDeployment reads one deployment's current state.
func (s *ProvisionService) GetDeployment(ctx context.Context, userID, id string) (*model.Deployment, error) {
	provider, err := s.providerFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return provider.GetDeployment(ctx, id)
}

// ListDeployments lists deployments, optionally scoped to a project.
func (s *ProvisionService) ListDeployments(ctx context.Context, userID, projectID string) ([]model.Deployment, error) {
	provider, err := s.providerFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return provider.ListDeployments(ctx, projectID)
}

// CreateProject creates a project.
func (s *ProvisionService) CreateProject(ctx context.Context, userID, name string) (*model.Project, error) {
	provider, err := s.providerFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return provider.CreateProject(ctx, name)
}

// ListProjects lists the user's projects.
func (s *ProvisionService) ListProjects(ctx context.Context, userID string) ([]model.Project, error) {
	provider, err := s.providerFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return provider.ListProjects(ctx)
}

// UpdateEnvVars upserts env vars on a project. Additive-only; see the
// CloudProvider port.
func (s *ProvisionService) UpdateEnvVars(ctx context.Context, userID, projectID string, vars map[string]string) error {
	provider, err := s.providerFor(ctx, userID)
	if err != nil {
		return err
	}
	return provider.UpdateEnvVars(ctx, projectID, vars)
}
