package manifest

import (
	"context"
	"fmt"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/rigbuild/internal/ctxlog"
	"github.com/vk/rigbuild/internal/fsutil"
)

// Extension is the file extension of manifest files.
const Extension = ".hcl"

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Build  *buildBlock   `hcl:"build,block"`
	Assets []*assetBlock `hcl:"asset,block"`
	Jobs   []*jobBlock   `hcl:"job,block"`
	Remain hcl.Body      `hcl:",remain"`
}

type buildBlock struct {
	Stages []string `hcl:"stages,optional"`
}

type assetBlock struct {
	Name   string   `hcl:"name,label"`
	Remain hcl.Body `hcl:",remain"`
}

type jobBlock struct {
	Name     string         `hcl:"name,label"`
	Asset    string         `hcl:"asset,optional"`
	Stage    string         `hcl:"stage,optional"`
	Kind     string         `hcl:"kind"`
	Target   string         `hcl:"target,optional"`
	Requires []string       `hcl:"requires,optional"`
	Outputs  hcl.Expression `hcl:"outputs,optional"`
	Attrs    hcl.Expression `hcl:"attrs,optional"`
	Canceled bool           `hcl:"canceled,optional"`
}

// Load reads every manifest file named by paths (files, directories or
// doublestar patterns), merges them and validates the result.
func Load(ctx context.Context, paths ...string) (*Manifest, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Manifest loader started.", "path_count", len(paths))

	files, err := fsutil.Expand(paths, Extension)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no %s files found in %v", ErrInvalid, Extension, paths)
	}
	logger.Debug("Discovered manifest files.", "count", len(files))

	m := &Manifest{Files: files}
	var declaredStages []string
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		if root.Build != nil {
			for _, s := range root.Build.Stages {
				if !slices.Contains(declaredStages, s) {
					declaredStages = append(declaredStages, s)
				}
			}
		}
		for _, a := range root.Assets {
			m.Assets = append(m.Assets, a.Name)
		}
		for _, jb := range root.Jobs {
			j, err := translateJob(ctx, jb)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			j.File = file
			m.Jobs = append(m.Jobs, j)
		}
	}

	m.Stages = stageOrder(declaredStages, m.Jobs)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("Manifest loading complete.", "assets", len(m.Assets), "stages", len(m.Stages), "jobs", len(m.Jobs))
	return m, nil
}

func translateJob(ctx context.Context, jb *jobBlock) (*Job, error) {
	j := &Job{
		Name:     jb.Name,
		Asset:    jb.Asset,
		Stage:    jb.Stage,
		Kind:     jb.Kind,
		Target:   jb.Target,
		Requires: jb.Requires,
		Canceled: jb.Canceled,
	}
	if j.Stage == "" {
		j.Stage = DefaultStage
	}

	var err error
	if j.Outputs, err = decodeObject(ctx, jb.Outputs, "outputs"); err != nil {
		return nil, fmt.Errorf("job %q: %w", jb.Name, err)
	}
	if j.Attrs, err = decodeObject(ctx, jb.Attrs, "attrs"); err != nil {
		return nil, fmt.Errorf("job %q: %w", jb.Name, err)
	}
	return j, nil
}

// stageOrder lists the declared stages first, then any other stage used by
// a job in order of first use.
func stageOrder(declared []string, jobs []*Job) []string {
	out := slices.Clone(declared)
	for _, j := range jobs {
		if !slices.Contains(out, j.Stage) {
			out = append(out, j.Stage)
		}
	}
	return out
}
