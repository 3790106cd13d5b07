package driven

import (
	"context"

	"github.com/mfreeland/deploybridge/internal/domain/model"
)

// BuildProvider runs the bundle-and-publish pipeline for one export job.
type BuildProvider interface {
	// Publish materializes the job's files in an isolated workspace,
	// bundles them, and invokes the publishing CLI. Stage failures are
	// captured in the result, never returned as an error; the error return
	// is reserved for context cancellation before the pipeline could
	// produce a result.
	Publish(ctx context.Context, job model.ExportJob) (model.ExportResult, error)
}
