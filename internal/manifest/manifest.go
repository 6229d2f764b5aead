// Package manifest loads build manifests written in HCL.
//
// A manifest declares assets and the jobs that build them:
//
//	build {
//	  stages = ["templates", "rig"]
//	}
//
//	asset "hero" {}
//
//	job "spine_chain" {
//	  asset    = "hero"
//	  stage    = "templates"
//	  kind     = "chain"
//	  target   = "spine::mod.chain"
//	  requires = ["root::mod.ctrl"]
//	  outputs  = { "spine::mod.joint" = { "0" = "spine_0", "1" = "spine_1" } }
//	}
//
// Output keys are flattened with "." and each flattened key is a tag.
// Jobs without a stage belong to DefaultStage; jobs without an asset
// belong to the only declared asset.
package manifest

import (
	"errors"

	"github.com/vk/rigbuild/internal/nstree"
)

// DefaultStage is the stage of jobs that do not name one.
const DefaultStage = "build"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid manifest")

// Job is one declared job.
type Job struct {
	Name     string
	Asset    string
	Stage    string
	Kind     string
	Target   string
	Requires []string
	Outputs  map[string]any
	Attrs    map[string]any
	Canceled bool
	File     string
}

// OutputTags returns every output as a flattened tag and its handle name,
// in sorted tag order.
func (j *Job) OutputTags() [][2]string {
	var out [][2]string
	for tag, v := range nstree.Flatten(j.Outputs) {
		if s, ok := v.(string); ok {
			out = append(out, [2]string{tag, s})
		}
	}
	return out
}

// Manifest is the merged content of every loaded file.
type Manifest struct {
	Assets []string
	Stages []string
	Jobs   []*Job
	Files  []string
}

// JobsInStage returns the jobs of stage in declaration order.
func (m *Manifest) JobsInStage(stage string) []*Job {
	var out []*Job
	for _, j := range m.Jobs {
		if j.Stage == stage {
			out = append(out, j)
		}
	}
	return out
}

// Job returns the job with the given name, or nil.
func (m *Manifest) Job(name string) *Job {
	for _, j := range m.Jobs {
		if j.Name == name {
			return j
		}
	}
	return nil
}
