package vercel

import (
	"context"
	"net/http"
	"net/url"
	"sort"

	"github.com/mfreeland/deploybridge/internal/domain/model"
)

// CreateDeployment creates a deployment from either an inlined file manifest
// or a git source reference. The auto-detection confirmation prompt is
// always suppressed; there is no interactive caller on this path.
func (c *Client) CreateDeployment(ctx context.Context, spec model.DeploymentSpec) (*model.Deployment, error) {
	if spec.Name == "" {
		return nil, &model.ValidationError{Field: "name", Message: "must not be empty"}
	}
	if (len(spec.Files) == 0) == (spec.Git == nil) {
		return nil, &model.ValidationError{Field: "source", Message: "exactly one of files or git source must be set"}
	}

	body := createDeploymentRequest{
		Name:   spec.Name,
		Target: spec.Target,
	}

	if spec.Git != nil {
		body.GitSource = &gitSourceJSON{
			Type: "github",
			Repo: spec.Git.Repo,
			Ref:  spec.Git.Branch,
			Path: spec.Git.Subdir,
		}
	} else {
		paths := make([]string, 0, len(spec.Files))
		for path := range spec.Files {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			body.Files = append(body.Files, inlinedFileJSON{
				File:     path,
				Data:     spec.Files[path],
				Encoding: "base64",
			})
		}
	}

	query := url.Values{"skipAutoDetectionConfirmation": {"1"}}

	var resp deploymentJSON
	if err := c.request(ctx, http.MethodPost, "/v13/deployments", query, body, &resp); err != nil {
		return nil, err
	}

	d := mapDeployment(resp)
	return &d, nil
}

// GetDeployment returns the current state of one deployment. Idempotent;
// callers poll this while the ready state is non-terminal.
func (c *Client) GetDeployment(ctx context.Context, id string) (*model.Deployment, error) {
	var resp deploymentJSON
	if err := c.request(ctx, http.MethodGet, "/v13/deployments/"+id, nil, nil, &resp); err != nil {
		return nil, err
	}

	d := mapDeployment(resp)
	return &d, nil
}

// ListDeployments returns deployments, optionally scoped to one project.
func (c *Client) ListDeployments(ctx context.Context, projectID string) ([]model.Deployment, error) {
	var query url.Values
	if projectID != "" {
		query = url.Values{"projectId": {projectID}}
	}

	var resp deploymentListResponse
	if err := c.request(ctx, http.MethodGet, "/v6/deployments", query, nil, &resp); err != nil {
		return nil, err
	}

	deployments := make([]model.Deployment, 0, len(resp.Deployments))
	for _, d := range resp.Deployments {
		deployments = append(deployments, mapDeployment(d))
	}
	return deployments, nil
}
