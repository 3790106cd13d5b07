package driven

import (
	"context"

	"github.com/mfreeland/deploybridge/internal/domain/model"
)

// ExportStore persists the outcome of finished export jobs.
type ExportStore interface {
	// Record saves one finished job. The record's log text may be large;
	// stores truncate at their own discretion, never the caller's.
	Record(ctx context.Context, rec model.ExportRecord) error

	// ListByUser returns a user's export history, newest first.
	ListByUser(ctx context.Context, userID string) ([]model.ExportRecord, error)
}
