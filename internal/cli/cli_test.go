package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

const okManifest = `
asset "hero" {}

job "head" {
  kind   = "ctrl"
  target = "head::mod.ctrl"
}
`

const failingManifest = `
asset "hero" {}

job "skin" {
  kind  = "fail"
  attrs = { message = "no weights" }
}
`

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rig.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	err := Execute(t.Context(), args, out, errOut)
	return out.String(), errOut.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	exitErr, ok := err.(*ExitError)
	require.True(t, ok, "expected *ExitError, got %T", err)
	return exitErr.Code
}

func TestExecute_Build(t *testing.T) {
	out, logs, err := execute(t, "build", writeManifest(t, okManifest))
	require.NoError(t, err)
	assert.Contains(t, out, "0 warnings and 0 errors")
	assert.Contains(t, logs, "Build finished.")
	assert.NotContains(t, out, "Build finished.", "logs go to the error writer")
}

func TestExecute_ExitCodes(t *testing.T) {
	failing := writeManifest(t, failingManifest)

	testCases := []struct {
		name     string
		args     []string
		expected int
	}{
		{name: "strict build failure", args: []string{"build", failing}, expected: ExitFailure},
		{name: "unknown flag", args: []string{"build", "--no-such-flag"}, expected: ExitUsage},
		{name: "no paths", args: []string{"build"}, expected: ExitUsage},
		{name: "bad log level", args: []string{"build", "--log-level", "loud", failing}, expected: ExitUsage},
		{name: "bad tag", args: []string{"tag", "a..b"}, expected: ExitUsage},
		{name: "tag without argument", args: []string{"tag"}, expected: ExitUsage},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := execute(t, tc.args...)
			assert.Equal(t, tc.expected, exitCode(t, err))
		})
	}

	_, _, err := execute(t, "build", "--strict=false", failing)
	assert.NoError(t, err)
}

func TestExecute_Inspect(t *testing.T) {
	out, _, err := execute(t, "inspect", "--report-format", "json", writeManifest(t, okManifest))
	require.NoError(t, err)
	assert.Contains(t, out, `"state": "done"`)
	assert.Contains(t, out, "[hero_head]  ctrl")
}

func TestExecute_Tag(t *testing.T) {
	out, _, err := execute(t, "tag", "hero#leg.*::j.1@tx")
	require.NoError(t, err)
	assert.Contains(t, out, "leg.*::j.1")
	assert.Contains(t, out, "glob")
	assert.Contains(t, out, "tx")
}

func TestExecute_EnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("RIGBUILD_REPORT_FORMAT", "yaml")
	out, _, err := execute(t, "build", writeManifest(t, okManifest))
	require.NoError(t, err)
	assert.Contains(t, out, "summary: 0 warnings and 0 errors")
}

func TestExecute_ConfigFile(t *testing.T) {
	manifest := writeManifest(t, failingManifest)
	dir := t.TempDir()
	cfg := "paths:\n  - " + manifest + "\nstrict: false\nreport-format: json\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rigbuild.yaml"), []byte(cfg), 0600))
	t.Chdir(dir)

	out, _, err := execute(t, "build")
	require.NoError(t, err)
	assert.Contains(t, out, `"state": "error"`)
}

func TestStageList(t *testing.T) {
	testCases := []struct {
		name     string
		entries  []string
		expected []string
	}{
		{name: "flag values", entries: []string{"templates", "rig"}, expected: []string{"templates", "rig"}},
		{name: "comma joined", entries: []string{"templates,rig"}, expected: []string{"templates", "rig"}},
		{name: "comma and space", entries: []string{"templates,", "rig"}, expected: []string{"templates", "rig"}},
		{name: "empty entries", entries: []string{",templates,,rig,"}, expected: []string{"templates", "rig"}},
		{name: "nothing", entries: nil, expected: nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, stageList(tc.entries))
		})
	}
}

func TestNewConfig_StagesFromEnvironment(t *testing.T) {
	t.Setenv("RIGBUILD_STAGES", "templates,rig")
	t.Chdir(t.TempDir())

	v := viper.New()
	require.NoError(t, initConfig(v))
	cfg, err := newConfig(v, []string{"rig.hcl"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"templates", "rig"}, cfg.Stages)
}
