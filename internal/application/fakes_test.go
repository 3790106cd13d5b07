package application

import (
	"context"

	"github.com/mfreeland/deploybridge/internal/domain/model"
	"github.com/mfreeland/deploybridge/internal/domain/port/driven"
)

// fakeCredentialStore is an in-memory CredentialStore for service tests.
type fakeCredentialStore struct {
	tokens   map[string]string // key: userID + "/" + provider
	metadata map[string]map[string]string
	saveErr  error
}

var _ driven.CredentialStore = (*fakeCredentialStore)(nil)

func newFakeCredentialStore() *fakeCredentialStore {
	return &fakeCredentialStore{
		tokens:   map[string]string{},
		metadata: map[string]map[string]string{},
	}
}

func credKey(userID string, provider model.Provider) string {
	return userID + "/" + string(provider)
}

func (f *fakeCredentialStore) SaveToken(_ context.Context, userID string, provider model.Provider, token string, metadata map[string]string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.tokens[credKey(userID, provider)] = token
	f.metadata[credKey(userID, provider)] = metadata
	return nil
}

func (f *fakeCredentialStore) GetToken(_ context.Context, userID string, provider model.Provider) (string, error) {
	token, ok := f.tokens[credKey(userID, provider)]
	if !ok {
		return "", &model.NotFoundError{Resource: "credential"}
	}
	return token, nil
}

func (f *fakeCredentialStore) HasToken(_ context.Context, userID string, provider model.Provider) (bool, error) {
	_, ok := f.tokens[credKey(userID, provider)]
	return ok, nil
}

func (f *fakeCredentialStore) RevokeToken(_ context.Context, userID string, provider model.Provider) error {
	delete(f.tokens, credKey(userID, provider))
	return nil
}

// fakeCloudProvider records invocations and returns canned values.
type fakeCloudProvider struct {
	exchangeCalls int
	exchangeToken *model.OAuthToken
	exchangeErr   error

	databases   []model.Database
	deployments []model.Deployment
	projects    []model.Project
	deleted     bool
	callErr     error
}

var _ driven.CloudProvider = (*fakeCloudProvider)(nil)

func (f *fakeCloudProvider) AuthorizationURL(state string) string {
	return "https://provider.example.com/authorize?state=" + state
}

func (f *fakeCloudProvider) ExchangeCode(context.Context, string) (*model.OAuthToken, error) {
	f.exchangeCalls++
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.exchangeToken, nil
}

func (f *fakeCloudProvider) RefreshToken(context.Context, string) (*model.OAuthToken, error) {
	return nil, &model.ProviderError{Code: model.ErrCodeNotSupported}
}

func (f *fakeCloudProvider) CreateDatabase(_ context.Context, spec model.DatabaseSpec) (*model.Database, error) {
	if f.callErr != nil {
		return nil, f.callErr
	}
	return &model.Database{ID: "db_1", Name: spec.Name, Status: model.DatabaseCreating}, nil
}

func (f *fakeCloudProvider) ListDatabases(context.Context) ([]model.Database, error) {
	return f.databases, f.callErr
}

func (f *fakeCloudProvider) DeleteDatabase(context.Context, string) (bool, error) {
	return f.deleted, f.callErr
}

func (f *fakeCloudProvider) CreateProject(_ context.Context, name string) (*model.Project, error) {
	if f.callErr != nil {
		return nil, f.callErr
	}
	return &model.Project{ID: "prj_1", Name: name}, nil
}

func (f *fakeCloudProvider) ListProjects(context.Context) ([]model.Project, error) {
	return f.projects, f.callErr
}

func (f *fakeCloudProvider) UpdateEnvVars(context.Context, string, map[string]string) error {
	return f.callErr
}

func (f *fakeCloudProvider) CreateDeployment(_ context.Context, spec model.DeploymentSpec) (*model.Deployment, error) {
	if f.callErr != nil {
		return nil, f.callErr
	}
	return &model.Deployment{ID: "dpl_1", Name: spec.Name, ReadyState: model.DeploymentQueued}, nil
}

func (f *fakeCloudProvider) GetDeployment(context.Context, string) (*model.Deployment, error) {
	if f.callErr != nil {
		return nil, f.callErr
	}
	return &model.Deployment{ID: "dpl_1", ReadyState: model.DeploymentReady}, nil
}

func (f *fakeCloudProvider) ListDeployments(context.Context, string) ([]model.Deployment, error) {
	return f.deployments, f.callErr
}

func (f *fakeCloudProvider) RateLimit() model.RateLimitSnapshot {
	return model.RateLimitSnapshot{}
}

// fakeBuilder records jobs it was asked to publish.
type fakeBuilder struct {
	calls  int
	jobs   []model.ExportJob
	result model.ExportResult
	err    error
}

var _ driven.BuildProvider = (*fakeBuilder)(nil)

func (f *fakeBuilder) Publish(_ context.Context, job model.ExportJob) (model.ExportResult, error) {
	f.calls++
	f.jobs = append(f.jobs, job)
	return f.result, f.err
}

// fakeExportStore keeps records in memory.
type fakeExportStore struct {
	records   []model.ExportRecord
	recordErr error
}

var _ driven.ExportStore = (*fakeExportStore)(nil)

func (f *fakeExportStore) Record(_ context.Context, rec model.ExportRecord) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeExportStore) ListByUser(_ context.Context, userID string) ([]model.ExportRecord, error) {
	out := []model.ExportRecord{}
	for _, rec := range f.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}
