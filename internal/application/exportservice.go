package application

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mfreeland/deploybridge/internal/domain/model"
	"github.com/mfreeland/deploybridge/internal/domain/port/driven"
)

// ExportService orchestrates publishing component sources to the site
// builder: it resolves the user's workspace token, hands the job to the
// build provider, and records the outcome in the export history.
type ExportService struct {
	creds   driven.CredentialStore
	builder driven.BuildProvider
	exports driven.ExportStore
	logger  *slog.Logger
}

// NewExportService creates an ExportService.
func NewExportService(creds driven.CredentialStore, builder driven.BuildProvider, exports driven.ExportStore, logger *slog.Logger) *ExportService {
	return &ExportService{creds: creds, builder: builder, exports: exports, logger: logger}
}

// Export runs one export job to completion. A missing workspace token
// surfaces as the store's NotFoundError before any build work starts.
// Build failures come back inside the result, not as an error.
func (s *ExportService) Export(ctx context.Context, userID, name string, files map[string][]byte) (model.ExportResult, error) {
	if name == "" {
		return model.ExportResult{}, &model.ValidationError{Field: "name", Message: "must not be empty"}
	}
	if len(files) == 0 {
		return model.ExportResult{}, &model.ValidationError{Field: "files", Message: "must not be empty"}
	}

	token, err := s.creds.GetToken(ctx, userID, model.ProviderWebflow)
	if err != nil {
		return model.ExportResult{}, err
	}

	job := model.ExportJob{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   name,
		Files:  files,
		Token:  token,
	}

	result, err := s.builder.Publish(ctx, job)
	if err != nil {
		return model.ExportResult{}, err
	}

	status := model.ExportSucceeded
	if !result.Success {
		status = model.ExportFailed
	}

	// History is best-effort; a failed write must not fail a finished job.
	rec := model.ExportRecord{
		ID:            job.ID,
		UserID:        userID,
		Name:          name,
		Status:        status,
		DeploymentURL: result.DeploymentURL,
		Log:           strings.Join(result.Logs, "\n"),
	}
	if recErr := s.exports.Record(ctx, rec); recErr != nil {
		s.logger.Warn("failed to record export", "job_id", job.ID, "error", recErr)
	}

	return result, nil
}

// History returns the user's past exports, newest first.
func (s *ExportService) History(ctx context.Context, userID string) ([]model.ExportRecord, error) {
	return s.exports.ListByUser(ctx, userID)
}
