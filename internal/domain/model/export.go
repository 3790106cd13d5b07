package model

import "time"

// ExportJob is one request to bundle component sources and publish them to
// the site builder. Files maps relative paths to file content. Token is the
// decrypted workspace token; it must never appear in logs or on disk.
type ExportJob struct {
	ID     string
	UserID string
	Name   string
	Files  map[string][]byte
	Token  string
}

// ExportResult is the outcome of a publish run. Logs holds every captured
// subprocess output line, prefixed by stream name. DeploymentURL may be the
// generic dashboard fallback when no URL could be extracted from the CLI
// output; callers should treat that as "verify manually".
type ExportResult struct {
	Success       bool
	Logs          []string
	Error         string
	DeploymentURL string
}

// ExportStatus is the persisted outcome of an export job.
type ExportStatus string

const (
	ExportSucceeded ExportStatus = "succeeded"
	ExportFailed    ExportStatus = "failed"
)

// ExportRecord is the export-history row kept for each finished job.
type ExportRecord struct {
	ID            string
	UserID        string
	Name          string
	Status        ExportStatus
	DeploymentURL string
	Log           string
	CreatedAt     time.Time
}
