package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/assetforge/render-be/internal/artifact"
	"github.com/assetforge/render-be/internal/domain"
	"github.com/assetforge/render-be/internal/worker/archive"
	"github.com/assetforge/render-be/internal/worker/render"
)

// Pipeline executes one render job end to end: stage the input, render,
// publish outputs, publish the manifest, archive, clean up. All
// published keys are deterministic per job id, so a redelivered message
// overwrites the previous attempt's objects instead of duplicating
// them.
type Pipeline struct {
	artifacts     artifact.Store
	renderers     *render.Registry
	archiver      archive.Archiver
	reporter      Reporter
	workspaceRoot string
	logger        *slog.Logger
}

// New creates a pipeline.
func New(artifacts artifact.Store, renderers *render.Registry, archiver archive.Archiver, reporter Reporter, workspaceRoot string, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		artifacts:     artifacts,
		renderers:     renderers,
		archiver:      archiver,
		reporter:      reporter,
		workspaceRoot: workspaceRoot,
		logger:        logger,
	}
}

// Execute runs the job described by msg. On success it returns the
// published output references. On failure it publishes a best-effort
// error report and returns the original stage error; the caller decides
// what happens to the queue delivery. The local workspace is removed in
// all cases.
func (p *Pipeline) Execute(ctx context.Context, msg domain.DispatchMessage) (map[string]domain.ArtifactRef, error) {
	p.reporter.Report(msg.JobID, domain.StageSetup, ProgressStart)

	workspace := filepath.Join(p.workspaceRoot, msg.JobID)
	defer p.cleanup(msg.JobID, workspace)

	outputs, err := p.run(ctx, msg, workspace)
	if err != nil {
		p.logger.Error("Pipeline failed",
			slog.String("job_id", msg.JobID),
			slog.String("stage", domain.StageOf(err)),
			slog.Any("error", err),
		)
		p.publishErrorReport(ctx, msg.JobID, err)
		return nil, err
	}

	p.reporter.Report(msg.JobID, domain.StageArchive, ProgressDone)
	return outputs, nil
}

func (p *Pipeline) run(ctx context.Context, msg domain.DispatchMessage, workspace string) (map[string]domain.ArtifactRef, error) {
	inputDir := filepath.Join(workspace, "input")
	outputDir := filepath.Join(workspace, "output")

	// setup
	for _, dir := range []string{inputDir, outputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, domain.NewStageError(domain.StageSetup, fmt.Errorf("failed to create workspace: %w", err))
		}
	}
	p.reporter.Report(msg.JobID, domain.StageSetup, ProgressSetupDone)

	// download
	if msg.InputRef.Key == "" {
		return nil, domain.NewStageError(domain.StageDownload, fmt.Errorf("dispatch message has no input reference"))
	}
	p.reporter.Report(msg.JobID, domain.StageDownload, ProgressDownloading)
	inputPath := filepath.Join(inputDir, filepath.Base(msg.InputRef.Key))
	if err := p.artifacts.Fetch(ctx, msg.InputRef, inputPath); err != nil {
		return nil, domain.NewStageError(domain.StageDownload, err)
	}
	p.reporter.Report(msg.JobID, domain.StageDownload, ProgressDownloaded)

	// render
	renderer, err := p.renderers.Lookup(msg.JobType)
	if err != nil {
		return nil, domain.NewStageError(domain.StageRender, err)
	}
	p.reporter.Report(msg.JobID, domain.StageRender, ProgressRendering)
	if err := renderer.Render(ctx, inputPath, outputDir); err != nil {
		return nil, domain.NewStageError(domain.StageRender, err)
	}
	p.reporter.Report(msg.JobID, domain.StageRender, ProgressRendered)

	// upload
	outputs, err := p.uploadOutputs(ctx, msg.JobID, outputDir)
	if err != nil {
		return nil, domain.NewStageError(domain.StageUpload, err)
	}
	p.reporter.Report(msg.JobID, domain.StageUpload, ProgressUploaded)

	// manifest
	manifestRef, err := p.publishManifest(ctx, msg, outputs)
	if err != nil {
		return nil, domain.NewStageError(domain.StageManifest, err)
	}
	outputs["manifest"] = manifestRef
	p.reporter.Report(msg.JobID, domain.StageManifest, ProgressManifestDone)

	// archive
	archiveRef, err := p.publishArchive(ctx, msg.JobID, workspace, outputDir)
	if err != nil {
		return nil, domain.NewStageError(domain.StageArchive, err)
	}
	outputs["archive"] = archiveRef

	return outputs, nil
}

// uploadOutputs publishes every file the renderer produced under
// outputs/{jobID}/{name}, keyed by the file name without its
// extension. File names are sorted so upload order is stable.
func (p *Pipeline) uploadOutputs(ctx context.Context, jobID, outputDir string) (map[string]domain.ArtifactRef, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	outputs := make(map[string]domain.ArtifactRef, len(names))
	for _, name := range names {
		key := fmt.Sprintf("outputs/%s/%s", jobID, name)
		ref, err := p.artifacts.PublishFile(ctx, key, filepath.Join(outputDir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to publish %s: %w", name, err)
		}
		outputs[strings.TrimSuffix(name, filepath.Ext(name))] = ref
	}

	return outputs, nil
}

func (p *Pipeline) publishManifest(ctx context.Context, msg domain.DispatchMessage, outputs map[string]domain.ArtifactRef) (domain.ArtifactRef, error) {
	manifest := domain.Manifest{
		JobID:       msg.JobID,
		JobType:     msg.JobType,
		CreatedAt:   msg.SubmittedAt.UTC().Format(time.RFC3339),
		CompletedAt: time.Now().UTC().Format(time.RFC3339),
		Input: domain.ManifestEntry{
			Key: msg.InputRef.Key,
			URL: msg.InputRef.URL,
		},
		Outputs: make(map[string]domain.ManifestEntry, len(outputs)),
	}
	if manifest.Input.URL == "" && manifest.Input.Key != "" {
		manifest.Input.URL = p.artifacts.URL(manifest.Input.Key)
	}
	for name, ref := range outputs {
		manifest.Outputs[name] = domain.ManifestEntry{Key: ref.Key, URL: ref.URL}
	}

	// The archive key is deterministic, so the manifest can reference
	// the zip before it is published.
	archiveKey := fmt.Sprintf("zips/%s.zip", msg.JobID)
	manifest.Outputs["archive"] = domain.ManifestEntry{Key: archiveKey, URL: p.artifacts.URL(archiveKey)}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return domain.ArtifactRef{}, fmt.Errorf("failed to encode manifest: %w", err)
	}

	key := fmt.Sprintf("reports/jobs/%s.json", msg.JobID)
	return p.artifacts.PublishBytes(ctx, key, data)
}

func (p *Pipeline) publishArchive(ctx context.Context, jobID, workspace, outputDir string) (domain.ArtifactRef, error) {
	archivePath := filepath.Join(workspace, jobID+".zip")
	if err := p.archiver.Archive(ctx, outputDir, archivePath); err != nil {
		return domain.ArtifactRef{}, err
	}

	key := fmt.Sprintf("zips/%s.zip", jobID)
	return p.artifacts.PublishFile(ctx, key, archivePath)
}

// publishErrorReport records the failure next to the job's other
// artifacts. The report is best effort: a publish failure is logged and
// never replaces the pipeline error.
func (p *Pipeline) publishErrorReport(ctx context.Context, jobID string, pipelineErr error) {
	report := domain.ErrorReport{
		JobID:     jobID,
		Error:     pipelineErr.Error(),
		Stage:     domain.StageOf(pipelineErr),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		p.logger.Error("Failed to encode error report",
			slog.String("job_id", jobID),
			slog.Any("error", err),
		)
		return
	}

	key := fmt.Sprintf("reports/errors/%s.json", jobID)
	if _, err := p.artifacts.PublishBytes(ctx, key, data); err != nil {
		p.logger.Error("Failed to publish error report",
			slog.String("job_id", jobID),
			slog.Any("error", err),
		)
	}
}

func (p *Pipeline) cleanup(jobID, workspace string) {
	p.reporter.Report(jobID, domain.StageCleanup, ProgressCleanup)
	if err := os.RemoveAll(workspace); err != nil {
		p.logger.Warn("Failed to remove workspace",
			slog.String("job_id", jobID),
			slog.String("workspace", workspace),
			slog.Any("error", err),
		)
	}
}
