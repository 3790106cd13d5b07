package vercel_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfreeland/deploybridge/internal/domain/model"
)

func TestCreateDeployment_InlinedFiles(t *testing.T) {
	var gotBody struct {
		Name   string `json:"name"`
		Target string `json:"target"`
		Files  []struct {
			File     string `json:"file"`
			Data     string `json:"data"`
			Encoding string `json:"encoding"`
		} `json:"files"`
	}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v13/deployments", r.URL.Path)
		require.Equal(t, "1", r.URL.Query().Get("skipAutoDetectionConfirmation"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_, _ = w.Write([]byte(`{"id":"dpl_1","name":"my-site","url":"my-site.vercel.app","readyState":"QUEUED","createdAt":1700000000000}`))
	}))

	spec := model.DeploymentSpec{
		Name:   "my-site",
		Target: "production",
		Files: map[string]string{
			"index.html": "PGh0bWw+",
			"app.js":     "Y29uc29sZQ==",
		},
	}
	d, err := client.CreateDeployment(context.Background(), spec)
	require.NoError(t, err)

	require.Len(t, gotBody.Files, 2)
	assert.Equal(t, "app.js", gotBody.Files[0].File, "files are sent in path order")
	assert.Equal(t, "index.html", gotBody.Files[1].File)
	assert.Equal(t, "base64", gotBody.Files[0].Encoding)

	assert.Equal(t, "dpl_1", d.ID)
	assert.Equal(t, model.DeploymentQueued, d.ReadyState, "provider casing is normalized")
	assert.Equal(t, "https://my-site.vercel.app", d.URL)
}

func TestCreateDeployment_GitSource(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"id":"dpl_2","name":"my-site","url":"my-site.vercel.app","readyState":"BUILDING","createdAt":1700000000000}`))
	}))

	spec := model.DeploymentSpec{
		Name: "my-site",
		Git:  &model.GitSource{Repo: "acme/site", Branch: "main", Subdir: "apps/web"},
	}
	d, err := client.CreateDeployment(context.Background(), spec)
	require.NoError(t, err)

	git, ok := gotBody["gitSource"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "github", git["type"])
	assert.Equal(t, "acme/site", git["repo"])
	assert.Equal(t, "main", git["ref"])
	assert.Equal(t, model.DeploymentBuilding, d.ReadyState)
}

func TestCreateDeployment_RequiresExactlyOneSource(t *testing.T) {
	called := false
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	ctx := context.Background()

	var validationErr *model.ValidationError

	// Neither source.
	_, err := client.CreateDeployment(ctx, model.DeploymentSpec{Name: "my-site"})
	assert.ErrorAs(t, err, &validationErr)

	// Both sources.
	_, err = client.CreateDeployment(ctx, model.DeploymentSpec{
		Name:  "my-site",
		Files: map[string]string{"index.html": "PGh0bWw+"},
		Git:   &model.GitSource{Repo: "acme/site", Branch: "main"},
	})
	assert.ErrorAs(t, err, &validationErr)

	assert.False(t, called)
}

func TestGetDeployment_TerminalStates(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v13/deployments/dpl_1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"dpl_1","name":"my-site","url":"my-site.vercel.app","readyState":"READY","createdAt":1700000000000}`))
	}))

	d, err := client.GetDeployment(context.Background(), "dpl_1")
	require.NoError(t, err)
	assert.Equal(t, model.DeploymentReady, d.ReadyState)
	assert.True(t, d.ReadyState.Terminal())
}

func TestListDeployments_ScopedToProject(t *testing.T) {
	var gotProject string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v6/deployments", r.URL.Path)
		gotProject = r.URL.Query().Get("projectId")
		_, _ = w.Write([]byte(`{"deployments":[{"id":"dpl_1","name":"my-site","url":"my-site.vercel.app","readyState":"ERROR","createdAt":1700000000000}]}`))
	}))

	ds, err := client.ListDeployments(context.Background(), "prj_1")
	require.NoError(t, err)
	assert.Equal(t, "prj_1", gotProject)
	require.Len(t, ds, 1)
	assert.Equal(t, model.DeploymentError, ds[0].ReadyState)
}
