package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfreeland/deploybridge/internal/domain/model"
	"github.com/mfreeland/deploybridge/internal/domain/port/driven"
)

func TestProvisionService_ResolvesTokenPerCall(t *testing.T) {
	creds := newFakeCredentialStore()
	creds.tokens[credKey("u1", model.ProviderVercel)] = "tok_abc"

	var gotToken string
	provider := &fakeCloudProvider{}
	svc := NewProvisionService(creds, func(token string) driven.CloudProvider {
		gotToken = token
		return provider
	})

	_, err := svc.ListDatabases(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "tok_abc", gotToken, "the stored token binds the client")
}

func TestProvisionService_MissingCredentialBlocksCall(t *testing.T) {
	factoryCalls := 0
	svc := NewProvisionService(newFakeCredentialStore(), func(string) driven.CloudProvider {
		factoryCalls++
		return &fakeCloudProvider{}
	})

	_, err := svc.CreateDatabase(context.Background(), "nobody", model.DatabaseSpec{Name: "db"})

	var notFound *model.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Zero(t, factoryCalls, "no client is built without a credential")
}

func TestProvisionService_DelegatesOperations(t *testing.T) {
	creds := newFakeCredentialStore()
	creds.tokens[credKey("u1", model.ProviderVercel)] = "tok_abc"
	provider := &fakeCloudProvider{
		databases:   []model.Database{{ID: "db_1"}},
		deployments: []model.Deployment{{ID: "dpl_1"}},
		projects:    []model.Project{{ID: "prj_1"}},
		deleted:     true,
	}
	svc := NewProvisionService(creds, func(string) driven.CloudProvider { return provider })
	ctx := context.Background()

	db, err := svc.CreateDatabase(ctx, "u1", model.DatabaseSpec{Name: "blog-db"})
	require.NoError(t, err)
	assert.Equal(t, "blog-db", db.Name)

	dbs, err := svc.ListDatabases(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, dbs, 1)

	deleted, err := svc.DeleteDatabase(ctx, "u1", "db_1")
	require.NoError(t, err)
	assert.True(t, deleted)

	p, err := svc.CreateProject(ctx, "u1", "my-site")
	require.NoError(t, err)
	assert.Equal(t, "my-site", p.Name)

	ps, err := svc.ListProjects(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, ps, 1)

	require.NoError(t, svc.UpdateEnvVars(ctx, "u1", "prj_1", map[string]string{"A": "1"}))

	d, err := svc.CreateDeployment(ctx, "u1", model.DeploymentSpec{Name: "my-site", Files: map[string]string{"index.html": "PGh0bWw+"}})
	require.NoError(t, err)
	assert.Equal(t, model.DeploymentQueued, d.ReadyState)

	got, err := svc.GetDeployment(ctx, "u1", "dpl_1")
	require.NoError(t, err)
	assert.Equal(t, model.DeploymentReady, got.ReadyState)

	ds, err := svc.ListDeployments(ctx, "u1", "prj_1")
	require.NoError(t, err)
	assert.Len(t, ds, 1)
}
