package app

import (
	"context"
	"fmt"
	"slices"

	"github.com/vk/rigbuild/internal/builders"
	"github.com/vk/rigbuild/internal/ctxlog"
	"github.com/vk/rigbuild/internal/manifest"
	"github.com/vk/rigbuild/internal/report"
)

// Run executes one build: it loads the manifests, flushes the registry,
// schedules every stage in order and renders the report.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	m, err := manifest.Load(ctx, a.config.Paths...)
	if err != nil {
		return fmt.Errorf("failed to load manifests: %w", err)
	}
	a.logger.Info("Manifests loaded.", "files", len(m.Files), "assets", len(m.Assets), "jobs", len(m.Jobs))

	a.registry.Rebuild(ctx)
	for _, asset := range m.Assets {
		a.registry.AddAsset(asset)
	}

	rep := report.New()
	a.last = rep
	for _, stage := range a.stages(ctx, m) {
		jobs := builders.Jobs(m, stage, a.host)
		a.scheduler.RunInto(ctx, rep, stage, jobs)
	}
	a.logger.Info("Build finished.", "build", rep.ID, "summary", rep.Summary())

	if err := rep.Write(a.outW, a.config.ReportFormat); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if a.config.Inspect {
		if _, err := fmt.Fprintln(a.outW, report.NamespaceTree(a.registry)); err != nil {
			return fmt.Errorf("failed to write namespace tree: %w", err)
		}
	}

	if a.publisher.Enabled() {
		if err := a.publisher.Publish(ctx, rep); err != nil {
			a.logger.Warn("Report publishing failed.", "error", err)
		}
	}

	if a.config.Strict && rep.HasErrors() {
		return fmt.Errorf("%w: %s", ErrBuildFailed, rep.Summary())
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}

// stages returns the stages to run: the configured ones that the manifest
// uses, or every manifest stage.
func (a *App) stages(ctx context.Context, m *manifest.Manifest) []string {
	if len(a.config.Stages) == 0 {
		return m.Stages
	}
	var out []string
	for _, s := range a.config.Stages {
		if !slices.Contains(m.Stages, s) {
			ctxlog.FromContext(ctx).Warn("Configured stage not found in manifests, skipping.", "stage", s)
			continue
		}
		out = append(out, s)
	}
	return out
}
