package vercel

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mfreeland/deploybridge/internal/domain/model"
)

// CreateProject creates a project to attach deployments and env vars to.
func (c *Client) CreateProject(ctx context.Context, name string) (*model.Project, error) {
	if name == "" {
		return nil, &model.ValidationError{Field: "name", Message: "must not be empty"}
	}

	var resp projectJSON
	if err := c.request(ctx, http.MethodPost, "/v9/projects", nil, map[string]string{"name": name}, &resp); err != nil {
		return nil, err
	}

	p := mapProject(resp)
	return &p, nil
}

// ListProjects returns all projects visible to the token.
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var resp projectListResponse
	if err := c.request(ctx, http.MethodGet, "/v9/projects", nil, nil, &resp); err != nil {
		return nil, err
	}

	projects := make([]model.Project, 0, len(resp.Projects))
	for _, p := range resp.Projects {
		projects = append(projects, mapProject(p))
	}
	return projects, nil
}

// envVarRequest is the per-key upsert body. Values are stored encrypted on
// the provider side and targeted at every environment.
type envVarRequest struct {
	Key    string   `json:"key"`
	Value  string   `json:"value"`
	Type   string   `json:"type"`
	Target []string `json:"target"`
}

// UpdateEnvVars upserts environment variables one key at a time; the API has
// no bulk endpoint. A 400 reporting the variable already exists is skipped:
// overwriting would require a fetch-then-update sequence, so this call is
// additive-only and callers must not rely on overwrite semantics.
func (c *Client) UpdateEnvVars(ctx context.Context, projectID string, vars map[string]string) error {
	for key, value := range vars {
		body := envVarRequest{
			Key:    key,
			Value:  value,
			Type:   "encrypted",
			Target: []string{"production", "preview", "development"},
		}

		err := c.request(ctx, http.MethodPost, "/v10/projects/"+projectID+"/env", nil, body, nil)
		if err == nil {
			continue
		}

		var provErr *model.ProviderError
		if errors.As(err, &provErr) && provErr.Status == http.StatusBadRequest && isAlreadyExistsCode(provErr.Code) {
			continue
		}
		return err
	}
	return nil
}

func isAlreadyExistsCode(code string) bool {
	return strings.Contains(strings.ToLower(code), "already_exists")
}
