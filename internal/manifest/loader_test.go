package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

const heroManifest = `
build {
  stages = ["templates", "rig"]
}

asset "hero" {}

job "spine_ik" {
  stage    = "rig"
  kind     = "ik"
  target   = "spine::mod.ik"
  requires = ["spine::mod.chain"]
}

job "spine_chain" {
  stage   = "templates"
  kind    = "chain"
  target  = "spine::mod.chain"
  outputs = {
    "spine::mod.joint" = { "0" = "spine_0", "1" = "spine_1" }
  }
  attrs = { count = 2, ratio = 0.5, tags = ["a", "b"], enabled = true }
}

job "mesh" {
  kind     = "import"
  target   = "mesh"
  canceled = true
}
`

func TestLoad(t *testing.T) {
	root := writeFiles(t, map[string]string{"hero.hcl": heroManifest})

	m, err := Load(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"hero"}, m.Assets)
	assert.Equal(t, []string{"templates", "rig", DefaultStage}, m.Stages)
	require.Len(t, m.Jobs, 3)

	ik := m.Job("spine_ik")
	require.NotNil(t, ik)
	assert.Equal(t, "hero", ik.Asset, "single asset is the default")
	assert.Equal(t, []string{"spine::mod.chain"}, ik.Requires)

	chain := m.Job("spine_chain")
	require.NotNil(t, chain)
	assert.Equal(t, [][2]string{
		{"spine::mod.joint.0", "spine_0"},
		{"spine::mod.joint.1", "spine_1"},
	}, chain.OutputTags())
	assert.Equal(t, map[string]any{
		"count":   int64(2),
		"ratio":   0.5,
		"tags":    []any{"a", "b"},
		"enabled": true,
	}, chain.Attrs)

	mesh := m.Job("mesh")
	require.NotNil(t, mesh)
	assert.True(t, mesh.Canceled)
	assert.Equal(t, DefaultStage, mesh.Stage)
	assert.Nil(t, mesh.Outputs)

	assert.Len(t, m.JobsInStage("templates"), 1)
	assert.Nil(t, m.Job("nope"))
}

func TestLoad_MergesFilesAndPatterns(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"assets.hcl":        `asset "hero" {}` + "\n" + `asset "villain" {}`,
		"jobs/hero.hcl":     "job \"a\" {\n  asset = \"hero\"\n  kind  = \"x\"\n}\n",
		"jobs/villain.hcl":  "job \"b\" {\n  asset = \"villain\"\n  kind  = \"x\"\n}\n",
		"jobs/ignored.json": `{}`,
	})

	m, err := Load(context.Background(), filepath.Join(root, "assets.hcl"), filepath.Join(root, "jobs", "*.hcl"))
	require.NoError(t, err)
	assert.Equal(t, []string{"hero", "villain"}, m.Assets)
	assert.Len(t, m.Jobs, 2)
	assert.Len(t, m.Files, 3)
}

func TestLoad_ValidationAggregatesErrors(t *testing.T) {
	root := writeFiles(t, map[string]string{"bad.hcl": `
asset "hero" {}
asset "villain" {}
asset "hero" {}

job "a" {
  kind   = "x"
  target = "leg.*::j.1"
}

job "a" {
  asset    = "ghost"
  kind     = ""
  requires = ["a..b"]
  outputs  = { "x@plug" = "h", "count" = 3 }
}
`})

	_, err := Load(context.Background(), root)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	msg := err.Error()
	for _, want := range []string{
		`asset "hero" declared more than once`,
		`job "a": asset is required`,
		`job "a": target`,
		`job "a" declared more than once`,
		`job "a": unknown asset "ghost"`,
		`job "a": kind must not be empty`,
		`job "a": requires`,
		`job "a": output`,
		`output "count" must be a handle name`,
	} {
		assert.Contains(t, msg, want)
	}
	assert.Len(t, merr.Errors, 9)
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{name: "no files", files: map[string]string{"readme.md": "x"}, wantErr: "no .hcl files"},
		{name: "syntax error", files: map[string]string{"a.hcl": `job "a" {`}, wantErr: "failed to parse HCL file"},
		{name: "missing kind", files: map[string]string{"a.hcl": `job "a" {}`}, wantErr: "failed to decode HCL file"},
		{name: "outputs not an object", files: map[string]string{"a.hcl": `job "a" {
  kind    = "x"
  outputs = "nope"
}`}, wantErr: "outputs must be an object"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			root := writeFiles(t, tc.files)
			_, err := Load(context.Background(), root)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidate_ProducedTagsMustNotOverlap(t *testing.T) {
	testCases := []struct {
		name    string
		target  string
		outputs map[string]any
		overlap bool
	}{
		{name: "output below target", target: "spine::mod.chain", outputs: map[string]any{"spine::mod.chain.0": "c0"}, overlap: true},
		{name: "target below output", target: "spine::mod.chain.0", outputs: map[string]any{"spine::mod.chain": "c"}, overlap: true},
		{name: "same tag", target: "mesh", outputs: map[string]any{"mesh": "m"}, overlap: true},
		{name: "scalar and sub-tree main", target: "arm", outputs: map[string]any{"arm::mod.ik": "ik"}, overlap: true},
		{name: "siblings", target: "spine::mod.chain", outputs: map[string]any{"spine::mod.joint": map[string]any{"0": "j0"}}},
		{name: "dotted sibling mains", target: "arm::mod.ik", outputs: map[string]any{"arm.L::mod.ik": "ikL"}},
		{name: "other asset", target: "spine::mod.chain", outputs: map[string]any{"villain#spine::mod.chain.0": "c0"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := &Manifest{
				Assets: []string{"hero", "villain"},
				Stages: []string{DefaultStage},
				Jobs: []*Job{{
					Name: "spine_chain", Asset: "hero", Stage: DefaultStage, Kind: "chain",
					Target: tc.target, Outputs: tc.outputs,
				}},
			}
			err := m.Validate()
			if !tc.overlap {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), "overlap")
		})
	}
}
