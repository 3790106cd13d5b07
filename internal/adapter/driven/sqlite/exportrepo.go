package sqlite

import (
	"context"
	"fmt"

	"github.com/mfreeland/deploybridge/internal/domain/model"
	"github.com/mfreeland/deploybridge/internal/domain/port/driven"
)

// maxStoredLogBytes caps the log text persisted per export. Logs beyond the
// cap keep the tail, which is where failures show up.
const maxStoredLogBytes = 256 * 1024

// Compile-time interface satisfaction check.
var _ driven.ExportStore = (*ExportRepo)(nil)

// ExportRepo is the SQLite implementation of the ExportStore port.
type ExportRepo struct {
	db *DB
}

// NewExportRepo creates a new ExportRepo.
func NewExportRepo(db *DB) *ExportRepo {
	return &ExportRepo{db: db}
}

// Record saves one finished export job.
func (r *ExportRepo) Record(ctx context.Context, rec model.ExportRecord) error {
	logText := rec.Log
	if len(logText) > maxStoredLogBytes {
		logText = logText[len(logText)-maxStoredLogBytes:]
	}

	const query = `
		INSERT INTO exports (id, user_id, name, status, deployment_url, log, created_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`
	_, err := r.db.Writer.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.Name, string(rec.Status), rec.DeploymentURL, logText)
	if err != nil {
		return fmt.Errorf("record export %s: %w", rec.ID, err)
	}
	return nil
}

// ListByUser returns a user's export history, newest first.
func (r *ExportRepo) ListByUser(ctx context.Context, userID string) ([]model.ExportRecord, error) {
	const query = `
		SELECT id, user_id, name, status, deployment_url, log, created_at
		FROM exports WHERE user_id = ? ORDER BY created_at DESC, id`
	rows, err := r.db.Reader.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list exports for %s: %w", userID, err)
	}
	defer rows.Close()

	var recs []model.ExportRecord
	for rows.Next() {
		var rec model.ExportRecord
		var status, createdAt string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Name, &status, &rec.DeploymentURL, &rec.Log, &createdAt); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		rec.Status = model.ExportStatus(status)
		rec.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at for export %s: %w", rec.ID, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exports: %w", err)
	}

	if recs == nil {
		recs = []model.ExportRecord{}
	}
	return recs, nil
}
