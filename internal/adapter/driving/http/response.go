package httphandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/mfreeland/deploybridge/internal/domain/model"
)

// writeJSON marshals v and writes it with the given status code. If
// marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error body with the given status code.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeClassifiedError maps the domain error taxonomy onto RPC-boundary
// status codes. Raw provider HTTP statuses never cross this boundary; a
// generic provider failure is a 502 regardless of what the provider said.
func writeClassifiedError(w http.ResponseWriter, err error) {
	var (
		validationErr *model.ValidationError
		notFoundErr   *model.NotFoundError
		integrityErr  *model.IntegrityError
		authErr       *model.AuthenticationError
		rateErr       *model.RateLimitError
		quotaErr      *model.QuotaExceededError
		providerErr   *model.ProviderError
	)

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &notFoundErr):
		writeError(w, http.StatusNotFound, notFoundErr.Error())
	case errors.As(err, &authErr):
		writeError(w, http.StatusUnauthorized, authErr.Error())
	case errors.As(err, &rateErr):
		if rateErr.ResetAt != nil {
			retryAfter := int(time.Until(*rateErr.ResetAt).Seconds())
			if retryAfter > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			}
		}
		writeError(w, http.StatusTooManyRequests, rateErr.Error())
	case errors.As(err, &quotaErr):
		writeError(w, http.StatusForbidden, quotaErr.Error())
	case errors.As(err, &integrityErr):
		writeError(w, http.StatusInternalServerError, integrityErr.Error())
	case errors.As(err, &providerErr):
		writeError(w, http.StatusBadGateway, providerErr.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// errorResponse is the standard error body.
type errorResponse struct {
	Error string `json:"error"`
}

// IntegrationResponse is the JSON representation of one provider connection.
type IntegrationResponse struct {
	Provider  string `json:"provider"`
	Connected bool   `json:"connected"`
}

// DatabaseResponse is the JSON representation of a provisioned database.
type DatabaseResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	ConnectionString string `json:"connection_string"`
	Type             string `json:"type"`
	Region           string `json:"region"`
	Status           string `json:"status"`
	CreatedAt        string `json:"created_at"`
}

// DeploymentResponse is the JSON representation of a deployment.
type DeploymentResponse struct {
	ID           string   `json:"id"`
	URL          string   `json:"url"`
	Name         string   `json:"name"`
	ReadyState   string   `json:"ready_state"`
	Creator      string   `json:"creator"`
	InspectorURL string   `json:"inspector_url"`
	Target       string   `json:"target"`
	Aliases      []string `json:"aliases"`
	CreatedAt    string   `json:"created_at"`
}

// ProjectResponse is the JSON representation of a project.
type ProjectResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Framework string `json:"framework"`
	CreatedAt string `json:"created_at"`
}

// ExportResultResponse is the JSON representation of a finished export run.
type ExportResultResponse struct {
	Success       bool     `json:"success"`
	Logs          []string `json:"logs"`
	Error         string   `json:"error,omitempty"`
	DeploymentURL string   `json:"deployment_url"`
}

// ExportRecordResponse is one export-history entry.
type ExportRecordResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Status        string `json:"status"`
	DeploymentURL string `json:"deployment_url"`
	CreatedAt     string `json:"created_at"`
}

// AuthorizeResponse carries the consent URL for the OAuth flow.
type AuthorizeResponse struct {
	AuthURL string `json:"auth_url"`
}

// CreateDatabaseRequest is the JSON body for database provisioning.
type CreateDatabaseRequest struct {
	Name   string `json:"name"`
	Region string `json:"region,omitempty"`
	Plan   string `json:"plan,omitempty"`
}

// GitSourceRequest references a repository to deploy from.
type GitSourceRequest struct {
	Repo   string `json:"repo"`
	Branch string `json:"branch,omitempty"`
	Subdir string `json:"subdir,omitempty"`
}

// CreateDeploymentRequest is the JSON body for deployment creation. Exactly
// one of files (path -> base64 content) or git must be set.
type CreateDeploymentRequest struct {
	Name   string            `json:"name"`
	Target string            `json:"target,omitempty"`
	Files  map[string]string `json:"files,omitempty"`
	Git    *GitSourceRequest `json:"git,omitempty"`
}

// SaveTokenRequest is the JSON body for saving a workspace token.
type SaveTokenRequest struct {
	Token string `json:"token"`
}

// TokenResponse carries a stored workspace token back to the caller.
type TokenResponse struct {
	Token string `json:"token"`
}

// ExportRequest is the JSON body for an export run. Files map paths to
// base64-encoded content.
type ExportRequest struct {
	Name  string            `json:"name"`
	Files map[string]string `json:"files"`
}

// HealthResponse is the health check body.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func toIntegrationResponse(i model.Integration) IntegrationResponse {
	return IntegrationResponse{Provider: string(i.Provider), Connected: i.Connected}
}

func toDatabaseResponse(db model.Database) DatabaseResponse {
	return DatabaseResponse{
		ID:               db.ID,
		Name:             db.Name,
		ConnectionString: db.ConnectionString,
		Type:             db.Type,
		Region:           string(db.Region),
		Status:           string(db.Status),
		CreatedAt:        db.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toDeploymentResponse(d model.Deployment) DeploymentResponse {
	aliases := d.Aliases
	if aliases == nil {
		aliases = []string{}
	}

	return DeploymentResponse{
		ID:           d.ID,
		URL:          d.URL,
		Name:         d.Name,
		ReadyState:   string(d.ReadyState),
		Creator:      d.Creator,
		InspectorURL: d.InspectorURL,
		Target:       d.Target,
		Aliases:      aliases,
		CreatedAt:    d.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toProjectResponse(p model.Project) ProjectResponse {
	return ProjectResponse{
		ID:        p.ID,
		Name:      p.Name,
		Framework: p.Framework,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toExportResultResponse(r model.ExportResult) ExportResultResponse {
	logs := r.Logs
	if logs == nil {
		logs = []string{}
	}
	return ExportResultResponse{
		Success:       r.Success,
		Logs:          logs,
		Error:         r.Error,
		DeploymentURL: r.DeploymentURL,
	}
}

func toExportRecordResponse(rec model.ExportRecord) ExportRecordResponse {
	return ExportRecordResponse{
		ID:            rec.ID,
		Name:          rec.Name,
		Status:        string(rec.Status),
		DeploymentURL: rec.DeploymentURL,
		CreatedAt:     rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}
