package model

import "time"

// ReadyState is the provider's deployment lifecycle enum.
type ReadyState string

const (
	DeploymentQueued   ReadyState = "queued"
	DeploymentBuilding ReadyState = "building"
	DeploymentReady    ReadyState = "ready"
	DeploymentError    ReadyState = "error"
	DeploymentCanceled ReadyState = "canceled"
)

// Terminal reports whether the state will no longer change, i.e. callers can
// stop polling.
func (s ReadyState) Terminal() bool {
	switch s {
	case DeploymentReady, DeploymentError, DeploymentCanceled:
		return true
	}
	return false
}

// Deployment is a projection of a provider-side deployment. Status polling
// is the caller's job; this layer only exposes idempotent reads.
type Deployment struct {
	ID           string
	URL          string
	Name         string
	ReadyState   ReadyState
	Creator      string
	InspectorURL string
	Target       string
	Aliases      []string
	CreatedAt    time.Time
}

// GitSource references a repository to deploy from.
type GitSource struct {
	Repo   string
	Branch string
	Subdir string
}

// DeploymentSpec is the caller's input for creating a deployment. Exactly
// one of Files or Git must be set: Files maps paths to base64-encoded
// content, Git references a repository.
type DeploymentSpec struct {
	Name   string
	Target string // "production" or "preview"; empty means preview
	Files  map[string]string
	Git    *GitSource
}

// Project is a projection of a provider-side project.
type Project struct {
	ID        string
	Name      string
	Framework string
	CreatedAt time.Time
}
