package vercel

import (
	"strings"
	"time"

	"github.com/mfreeland/deploybridge/internal/domain/model"
)

// Wire types for the Vercel API. Timestamps are epoch milliseconds.

type storeJSON struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Type              string          `json:"type"`
	Region            string          `json:"region"`
	Status            string          `json:"status"`
	CreatedAt         int64           `json:"createdAt"`
	ConnectionStrings *connStringsJSON `json:"connectionStrings"`
	Metadata          map[string]any  `json:"metadata"`
}

type connStringsJSON struct {
	Pooled string `json:"pooled"`
	Direct string `json:"direct"`
}

type storeResponse struct {
	Store storeJSON `json:"store"`
}

type storeListResponse struct {
	Stores []storeJSON `json:"stores"`
}

type deploymentJSON struct {
	ID           string   `json:"id"`
	URL          string   `json:"url"`
	Name         string   `json:"name"`
	ReadyState   string   `json:"readyState"`
	InspectorURL string   `json:"inspectorUrl"`
	Target       string   `json:"target"`
	Aliases      []string `json:"alias"`
	CreatedAt    int64    `json:"createdAt"`
	Creator      struct {
		Username string `json:"username"`
	} `json:"creator"`
}

type deploymentListResponse struct {
	Deployments []deploymentJSON `json:"deployments"`
}

type projectJSON struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Framework string `json:"framework"`
	CreatedAt int64  `json:"createdAt"`
}

type projectListResponse struct {
	Projects []projectJSON `json:"projects"`
}

type inlinedFileJSON struct {
	File     string `json:"file"`
	Data     string `json:"data"`
	Encoding string `json:"encoding"`
}

type gitSourceJSON struct {
	Type string `json:"type"`
	Repo string `json:"repo"`
	Ref  string `json:"ref,omitempty"`
	Path string `json:"path,omitempty"`
}

type createDeploymentRequest struct {
	Name      string            `json:"name"`
	Target    string            `json:"target,omitempty"`
	Files     []inlinedFileJSON `json:"files,omitempty"`
	GitSource *gitSourceJSON    `json:"gitSource,omitempty"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	TeamID      string `json:"team_id"`
}

func mapStore(s storeJSON) model.Database {
	db := model.Database{
		ID:        s.ID,
		Name:      s.Name,
		Type:      s.Type,
		Region:    model.DatabaseRegion(s.Region),
		Status:    mapStoreStatus(s.Status),
		CreatedAt: time.UnixMilli(s.CreatedAt).UTC(),
		Metadata:  s.Metadata,
	}
	// A store still provisioning has no connection strings yet; an empty
	// string is the expected shape, not an error.
	if s.ConnectionStrings != nil {
		db.ConnectionString = s.ConnectionStrings.Pooled
	}
	return db
}

// mapStoreStatus normalizes the provider's status vocabulary to the internal
// tri-state. Vercel reports "ready" or "available" for a usable store.
func mapStoreStatus(raw string) model.DatabaseStatus {
	switch strings.ToLower(raw) {
	case "ready", "available", "active":
		return model.DatabaseActive
	case "error", "failed":
		return model.DatabaseError
	default:
		return model.DatabaseCreating
	}
}

func mapDeployment(d deploymentJSON) model.Deployment {
	url := d.URL
	if url != "" && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	return model.Deployment{
		ID:           d.ID,
		URL:          url,
		Name:         d.Name,
		ReadyState:   model.ReadyState(strings.ToLower(d.ReadyState)),
		Creator:      d.Creator.Username,
		InspectorURL: d.InspectorURL,
		Target:       d.Target,
		Aliases:      d.Aliases,
		CreatedAt:    time.UnixMilli(d.CreatedAt).UTC(),
	}
}

func mapProject(p projectJSON) model.Project {
	return model.Project{
		ID:        p.ID,
		Name:      p.Name,
		Framework: p.Framework,
		CreatedAt: time.UnixMilli(p.CreatedAt).UTC(),
	}
}
