// Package httphandler is the driving adapter exposing the integration
// layer's procedures as a JSON API. Transport details stop here: handlers
// decode plain inputs, call application services, and map the domain error
// taxonomy onto response codes.
package httphandler

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mfreeland/deploybridge/internal/application"
	"github.com/mfreeland/deploybridge/internal/domain/model"
)

// stateCookieName carries the CSRF state between the authorize and callback
// legs of the OAuth flow.
const stateCookieName = "vercel_oauth_state"

// stateCookieMaxAge bounds how long a pending authorization attempt stays
// valid.
const stateCookieMaxAge = 10 * time.Minute

// Handler serves the RPC boundary.
type Handler struct {
	integrations *application.IntegrationService
	oauth        *application.OAuthService
	provision    *application.ProvisionService
	export       *application.ExportService
	logger       *slog.Logger
}

// NewHandler creates a Handler with all required services.
func NewHandler(
	integrations *application.IntegrationService,
	oauth *application.OAuthService,
	provision *application.ProvisionService,
	export *application.ExportService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		integrations: integrations,
		oauth:        oauth,
		provision:    provision,
		export:       export,
		logger:       logger,
	}
}

// NewServeMux returns an http.Handler with all routes registered and
// wrapped with auth, logging, and recovery middleware. The health endpoint
// is the only unauthenticated route.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	api := http.NewServeMux()

	api.HandleFunc("GET /api/v1/integrations", h.ListIntegrations)
	api.HandleFunc("DELETE /api/v1/integrations/{provider}", h.RevokeIntegration)

	api.HandleFunc("GET /api/v1/oauth/vercel/authorize", h.Authorize)
	api.HandleFunc("GET /api/v1/oauth/vercel/callback", h.Callback)

	api.HandleFunc("POST /api/v1/databases", h.CreateDatabase)
	api.HandleFunc("GET /api/v1/databases", h.ListDatabases)
	api.HandleFunc("DELETE /api/v1/databases/{id}", h.DeleteDatabase)

	api.HandleFunc("POST /api/v1/deployments", h.CreateDeployment)
	api.HandleFunc("GET /api/v1/deployments", h.ListDeployments)
	api.HandleFunc("GET /api/v1/deployments/{id}", h.GetDeployment)

	api.HandleFunc("POST /api/v1/projects", h.CreateProject)
	api.HandleFunc("GET /api/v1/projects", h.ListProjects)
	api.HandleFunc("POST /api/v1/projects/{id}/env", h.UpdateEnvVars)

	api.HandleFunc("GET /api/v1/webflow/token", h.GetWorkspaceToken)
	api.HandleFunc("POST /api/v1/webflow/token", h.SaveWorkspaceToken)
	api.HandleFunc("DELETE /api/v1/webflow/token", h.RevokeWorkspaceToken)

	api.HandleFunc("POST /api/v1/export", h.Export)
	api.HandleFunc("GET /api/v1/exports", h.ListExports)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.Handle("/api/v1/", authMiddleware(api))

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// ListIntegrations returns the connection status of every provider.
func (h *Handler) ListIntegrations(w http.ResponseWriter, r *http.Request) {
	integrations, err := h.integrations.ListIntegrations(r.Context(), userID(r))
	if err != nil {
		h.logger.Error("failed to list integrations", "error", err)
		writeClassifiedError(w, err)
		return
	}

	resp := make([]IntegrationResponse, 0, len(integrations))
	for _, i := range integrations {
		resp = append(resp, toIntegrationResponse(i))
	}
	writeJSON(w, http.StatusOK, resp)
}

// RevokeIntegration deletes the stored credential for one provider.
func (h *Handler) RevokeIntegration(w http.ResponseWriter, r *http.Request) {
	provider := model.Provider(r.PathValue("provider"))
	if err := h.integrations.Revoke(r.Context(), userID(r), provider); err != nil {
		writeClassifiedError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Authorize starts one authorization attempt: it issues a fresh CSRF state,
// binds it to the browser via a short-lived cookie, and returns the consent
// URL for the UI to redirect to.
func (h *Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	state, err := h.oauth.GenerateState()
	if err != nil {
		h.logger.Error("failed to generate oauth state", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/api/v1/oauth",
		MaxAge:   int(stateCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, AuthorizeResponse{AuthURL: h.oauth.AuthorizationURL(state)})
}

// Callback completes an authorization attempt. A missing or mismatched
// state rejects the callback outright; no exchange is attempted.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	// The pending attempt is consumed either way. The deletion cookie must
	// be set before the first body/header write; a deferred SetCookie would
	// run after WriteHeader and be dropped, leaving the state replayable.
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Path:     "/api/v1/oauth",
		MaxAge:   -1,
		HttpOnly: true,
	})

	cookie, err := r.Cookie(stateCookieName)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no pending authorization attempt")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	err = h.oauth.Connect(r.Context(), userID(r), cookie.Value, r.URL.Query().Get("state"), code)
	if err != nil {
		h.logger.Warn("oauth callback failed", "error", err)
		writeClassifiedError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"connected": true})
}

// CreateDatabase provisions a database.
func (h *Handler) CreateDatabase(w http.ResponseWriter, r *http.Request) {
	var req CreateDatabaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	db, err := h.provision.CreateDatabase(r.Context(), userID(r), model.DatabaseSpec{
		Name:   req.Name,
		Region: model.DatabaseRegion(req.Region),
		Plan:   req.Plan,
	})
	if err != nil {
		writeClassifiedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDatabaseResponse(*db))
}

// ListDatabases lists the caller's databases.
func (h *Handler) ListDatabases(w http.ResponseWriter, r *http.Request) {
	dbs, err := h.provision.ListDatabases(r.Context(), userID(r))
	if err != nil {
		writeClassifiedError(w, err)
		return
	}

	resp := make([]DatabaseResponse, 0, len(dbs))
	for _, db := range dbs {
		resp = append(resp, toDatabaseResponse(db))
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteDatabase deletes a database. "Already gone" is reported as
// deleted=false with a 200, matching the idempotent delete contract.
func (h *Handler) DeleteDatabase(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.provision.DeleteDatabase(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeClassifiedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

// CreateDeployment creates a deployment from files or a git source.
func (h *Handler) CreateDeployment(w http.ResponseWriter, r *http.Request) {
	var req CreateDeploymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	spec := model.DeploymentSpec{
		Name:   req.Name,
		Target: req.Target,
		Files:  req.Files,
	}
	if req.Git != nil {
		spec.Git = &model.GitSource{
			Repo:   req.Git.Repo,
			Branch: req.Git.Branch,
			Subdir: req.Git.Subdir,
		}
	}

	d, err := h.provision.CreateDeployment(r.Context(), userID(r), spec)
	if err != nil {
		writeClassifiedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDeploymentResponse(*d))
}

// GetDeployment returns one deployment's current state. Idempotent; the UI
// polls this while the ready state is non-terminal.
func (h *Handler) GetDeployment(w http.ResponseWriter, r *http.Request) {
	d, err := h.provision.GetDeployment(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeClassifiedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDeploymentResponse(*d))
}

// ListDeployments lists deployments, optionally filtered by project.
func (h *Handler) ListDeployments(w http.ResponseWriter, r *http.Request) {
	deployments, err := h.provision.ListDeployments(r.Context(), userID(r), r.URL.Query().Get("project_id"))
	if err != nil {
		writeClassifiedError(w, err)
		return
	}

	resp := make([]DeploymentResponse, 0, len(deployments))
	for _, d := range deployments {
		resp = append(resp, toDeploymentResponse(d))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateProject creates a project.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.provision.CreateProject(r.Context(), userID(r), req.Name)
	if err != nil {
		writeClassifiedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectResponse(*p))
}

// ListProjects lists the caller's projects.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.provision.ListProjects(r.Context(), userID(r))
	if err != nil {
		writeClassifiedError(w, err)
		return
	}

	resp := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		resp = append(resp, toProjectResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateEnvVars upserts environment variables on a project. Additive-only;
// existing variables are skipped, not overwritten.
func (h *Handler) UpdateEnvVars(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Vars map[string]string `json:"vars"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Vars) == 0 {
		writeError(w, http.StatusBadRequest, "vars must not be empty")
		return
	}

	if err := h.provision.UpdateEnvVars(r.Context(), userID(r), r.PathValue("id"), req.Vars); err != nil {
		writeClassifiedError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetWorkspaceToken returns the decrypted site-builder workspace token.
func (h *Handler) GetWorkspaceToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.integrations.GetWorkspaceToken(r.Context(), userID(r))
	if err != nil {
		writeClassifiedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// SaveWorkspaceToken verifies and stores a manually supplied workspace token.
func (h *Handler) SaveWorkspaceToken(w http.ResponseWriter, r *http.Request) {
	var req SaveTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.integrations.SaveWorkspaceToken(r.Context(), userID(r), req.Token); err != nil {
		writeClassifiedError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RevokeWorkspaceToken deletes the stored workspace token. Idempotent.
func (h *Handler) RevokeWorkspaceToken(w http.ResponseWriter, r *http.Request) {
	if err := h.integrations.Revoke(r.Context(), userID(r), model.ProviderWebflow); err != nil {
		writeClassifiedError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export bundles the submitted component sources and publishes them via the
// builder CLI. Build failures come back in the result body with a 200; only
// pre-flight failures (no token, bad input) use error status codes.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	files := make(map[string][]byte, len(req.Files))
	for path, encoded := range req.Files {
		content, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			writeError(w, http.StatusBadRequest, "file "+path+" is not valid base64")
			return
		}
		files[path] = content
	}

	result, err := h.export.Export(r.Context(), userID(r), req.Name, files)
	if err != nil {
		writeClassifiedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExportResultResponse(result))
}

// ListExports returns the caller's export history, newest first.
func (h *Handler) ListExports(w http.ResponseWriter, r *http.Request) {
	recs, err := h.export.History(r.Context(), userID(r))
	if err != nil {
		writeClassifiedError(w, err)
		return
	}

	resp := make([]ExportRecordResponse, 0, len(recs))
	for _, rec := range recs {
		resp = append(resp, toExportRecordResponse(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}
