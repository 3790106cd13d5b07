// Package webflowcli implements the BuildProvider port by shelling out to
// the site builder's publishing CLI inside an isolated per-job workspace.
package webflowcli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mfreeland/deploybridge/internal/domain/model"
	"github.com/mfreeland/deploybridge/internal/domain/port/driven"
)

// dashboardURL is the fallback returned when no deployment URL can be
// extracted from the CLI output. Callers treat it as "verify manually".
const dashboardURL = "https://webflow.com/dashboard"

// urlPattern matches the first URL-shaped token in CLI output.
var urlPattern = regexp.MustCompile(`https?://[^\s"']+`)

// credentialInURL matches userinfo embedded in a URL, e.g. a token in a
// git clone remote. Stripped from every log line before it is recorded.
var credentialInURL = regexp.MustCompile(`(https?://)[^/@\s]+@`)

// Compile-time interface satisfaction check.
var _ driven.BuildProvider = (*Runner)(nil)

// Config holds the subprocess commands and limits for the pipeline.
type Config struct {
	// BundleCommand bundles the materialized sources, run from the job
	// workspace. First element is the binary, the rest are arguments.
	BundleCommand []string

	// PublishCommand invokes the builder CLI; the runner appends
	// --api-token <token> --no-input.
	PublishCommand []string

	// Timeout is the hard wall-clock ceiling over the whole subprocess
	// step (both commands together). Zero means 50s, the serverless
	// platform ceiling the pipeline originally ran under.
	Timeout time.Duration

	// BundleSizeLimit caps the total bytes of materialized source files.
	// Zero means 10 MiB.
	BundleSizeLimit int64
}

// Runner runs the bundle-and-publish pipeline for export jobs. Each job gets
// an exclusive temporary workspace named by its id; the workspace is removed
// best-effort when the job finishes, success or not.
type Runner struct {
	cfg    Config
	logger *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(cfg Config, logger *slog.Logger) *Runner {
	if cfg.Timeout == 0 {
		cfg.Timeout = 50 * time.Second
	}
	if cfg.BundleSizeLimit == 0 {
		cfg.BundleSizeLimit = 10 << 20
	}
	return &Runner{cfg: cfg, logger: logger}
}

// logSink accumulates log lines from concurrent stream readers. Every line
// passes through scrubbing so tokens and URL-embedded credentials never
// reach the recorded logs.
type logSink struct {
	mu    sync.Mutex
	lines []string
	token string
}

func (s *logSink) add(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, s.scrub(line))
}

func (s *logSink) scrub(line string) string {
	if s.token != "" {
		line = strings.ReplaceAll(line, s.token, "***")
	}
	return credentialInURL.ReplaceAllString(line, "${1}***@")
}

func (s *logSink) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

// Publish materializes the job's files, bundles them, and invokes the
// publishing CLI. Stage failures are captured into the result; the error
// return fires only when ctx is already done before any work starts.
func (r *Runner) Publish(ctx context.Context, job model.ExportJob) (model.ExportResult, error) {
	if err := ctx.Err(); err != nil {
		return model.ExportResult{}, err
	}

	sink := &logSink{token: job.Token}

	workDir, err := os.MkdirTemp("", "export-"+job.ID+"-")
	if err != nil {
		sink.add(fmt.Sprintf("error: create workspace: %v", err))
		return failure(sink, fmt.Sprintf("create workspace: %v", err)), nil
	}
	defer func() {
		// Cleanup failures are warnings, never part of the job outcome.
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			r.logger.Warn("workspace cleanup failed", "job_id", job.ID, "dir", workDir, "error", rmErr)
		}
	}()

	if err := r.materialize(workDir, job.Files); err != nil {
		sink.add(fmt.Sprintf("error: materialize sources: %v", err))
		return failure(sink, err.Error()), nil
	}
	sink.add(fmt.Sprintf("info: materialized %d files", len(job.Files)))

	// One deadline spans both commands: the pipeline ran under a
	// serverless ceiling and partial budgets per command are meaningless.
	runCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	if err := r.runCommand(runCtx, workDir, sink, r.cfg.BundleCommand, nil); err != nil {
		sink.add(fmt.Sprintf("error: bundle step failed: %v", err))
		return failure(sink, err.Error()), nil
	}

	publishArgs := []string{"--api-token", job.Token, "--no-input"}
	if err := r.runCommand(runCtx, workDir, sink, r.cfg.PublishCommand, publishArgs); err != nil {
		sink.add(fmt.Sprintf("error: publish step failed: %v", err))
		return failure(sink, err.Error()), nil
	}

	logs := sink.snapshot()
	return model.ExportResult{
		Success:       true,
		Logs:          logs,
		DeploymentURL: extractDeploymentURL(logs),
	}, nil
}

// materialize writes the job's files under workDir, rejecting paths that
// would escape it, and enforces the total bundle size limit.
func (r *Runner) materialize(workDir string, files map[string][]byte) error {
	var total int64
	for path, content := range files {
		if filepath.IsAbs(path) || strings.Contains(path, "..") {
			return fmt.Errorf("unsafe file path %q", path)
		}

		total += int64(len(content))
		if total > r.cfg.BundleSizeLimit {
			return fmt.Errorf("bundle exceeds size limit of %d bytes", r.cfg.BundleSizeLimit)
		}

		dst := filepath.Join(workDir, path)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("create dir for %s: %w", path, err)
		}
		if err := os.WriteFile(dst, content, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

// runCommand runs one external command to completion, capturing stdout and
// stderr line by line into the sink, each line prefixed by stream name.
// extraArgs are appended to the configured command but redacted from any
// resulting error, since they may carry the token.
func (r *Runner) runCommand(ctx context.Context, dir string, sink *logSink, command, extraArgs []string) error {
	if len(command) == 0 {
		return errors.New("no command configured")
	}

	name := command[0]
	args := append(append([]string(nil), command[1:]...), extraArgs...)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe for %s: %w", name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe for %s: %w", name, err)
	}

	if err := cmd.Start(); err != nil {
		return &model.BuildProviderError{
			Command: name,
			Args:    redactArgs(command[1:], extraArgs),
			Logs:    sink.snapshot(),
			Message: fmt.Sprintf("start failed: %v", err),
		}
	}

	var g errgroup.Group
	g.Go(func() error { return scanStream("stdout", stdout, sink) })
	g.Go(func() error { return scanStream("stderr", stderr, sink) })
	_ = g.Wait() // Scanner errors surface through the command's exit below.

	waitErr := cmd.Wait()
	if waitErr == nil {
		return nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &model.BuildProviderError{
			Command: name,
			Args:    redactArgs(command[1:], extraArgs),
			Logs:    sink.snapshot(),
			Message: "timed out",
			Timeout: true,
		}
	}

	return &model.BuildProviderError{
		Command: name,
		Args:    redactArgs(command[1:], extraArgs),
		Logs:    sink.snapshot(),
		Message: fmt.Sprintf("exited with error: %v", waitErr),
	}
}

// scanStream copies one output stream into the sink line by line.
func scanStream(stream string, r io.Reader, sink *logSink) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		sink.add(stream + ": " + scanner.Text())
	}
	return scanner.Err()
}

// redactArgs joins configured and appended args, masking the value after
// --api-token so the token never rides along on an error.
func redactArgs(configured, extra []string) []string {
	all := append(append([]string(nil), configured...), extra...)
	for i, arg := range all {
		if arg == "--api-token" && i+1 < len(all) {
			all[i+1] = "***"
		}
	}
	return all
}

// extractDeploymentURL scans the captured output for the first URL-shaped
// token. Absence falls back to the generic dashboard URL rather than an
// empty field.
func extractDeploymentURL(logs []string) string {
	for _, line := range logs {
		if m := urlPattern.FindString(line); m != "" {
			return strings.TrimRight(m, ".,;)")
		}
	}
	return dashboardURL
}

func failure(sink *logSink, message string) model.ExportResult {
	return model.ExportResult{
		Success: false,
		Logs:    sink.snapshot(),
		Error:   message,
	}
}
