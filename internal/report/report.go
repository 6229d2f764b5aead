// Package report aggregates the outcome of a build: warning and error
// counts, the jobs that failed or were canceled together with their logs,
// and the number of scheduling passes every stage needed.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vk/rigbuild/internal/job"
	"github.com/vk/rigbuild/internal/joblog"
)

// Outcome is the final state of one job.
type Outcome struct {
	Job        string         `json:"job" yaml:"job"`
	Asset      string         `json:"asset,omitempty" yaml:"asset,omitempty"`
	Stage      string         `json:"stage" yaml:"stage"`
	State      job.State      `json:"state" yaml:"state"`
	Mode       string         `json:"mode,omitempty" yaml:"mode,omitempty"`
	Attempts   int            `json:"attempts" yaml:"attempts"`
	Warnings   int            `json:"warnings" yaml:"warnings"`
	Errors     int            `json:"errors" yaml:"errors"`
	Cause      string         `json:"cause,omitempty" yaml:"cause,omitempty"`
	Unresolved []string       `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`
	Log        []joblog.Entry `json:"log,omitempty" yaml:"log,omitempty"`
}

// StagePasses records how many passes a stage took.
type StagePasses struct {
	Stage  string `json:"stage" yaml:"stage"`
	Passes int    `json:"passes" yaml:"passes"`
}

// Report is the result of a build. It is filled by the scheduler.
type Report struct {
	ID       string
	Started  time.Time
	Warnings int
	Errors   int

	stages   []StagePasses
	outcomes []Outcome
}

// New returns an empty report with a fresh build id.
func New() *Report {
	return &Report{ID: uuid.NewString(), Started: time.Now()}
}

// BeginStage starts a stage. Stages are kept in the order they began.
func (r *Report) BeginStage(stage string) {
	r.stages = append(r.stages, StagePasses{Stage: stage})
}

// SetPasses records the pass count of stage.
func (r *Report) SetPasses(stage string, n int) {
	for i := range r.stages {
		if r.stages[i].Stage == stage {
			r.stages[i].Passes = n
			return
		}
	}
	r.stages = append(r.stages, StagePasses{Stage: stage, Passes: n})
}

// Record counts the warnings and errors of a finished job, flushes its log
// to the context logger and stores its outcome.
func (r *Report) Record(ctx context.Context, stage string, j *job.Job) {
	unresolved := j.Unresolved()
	o := Outcome{
		Job:      j.ID,
		Asset:    j.Asset,
		Stage:    stage,
		State:    j.State(),
		Attempts: j.Attempts(),
		Warnings: j.Log().CountWarnings(unresolved),
		Errors:   j.Log().CountErrors(),
	}
	if j.State() == job.Done {
		o.Mode = j.Mode().String()
	}
	if f := j.Failure(); f != nil {
		o.Cause = f.Error()
		o.Unresolved = f.Unresolved
	}

	j.Log().FinalizeSummary(ctx, unresolved)
	if j.State().Failed() {
		o.Log = j.Log().Entries()
	}

	r.Warnings += o.Warnings
	r.Errors += o.Errors
	r.outcomes = append(r.outcomes, o)
}

// Summary returns the one-line human summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d warnings and %d errors", r.Warnings, r.Errors)
}

// HasErrors reports whether any job logged an error.
func (r *Report) HasErrors() bool {
	return r.Errors > 0
}

// Outcomes returns every recorded outcome in recording order.
func (r *Report) Outcomes() []Outcome {
	return append([]Outcome(nil), r.outcomes...)
}

// Failed returns the outcomes of jobs that ended Invalid, Errored or
// Crashed.
func (r *Report) Failed() []Outcome {
	return r.filter(func(o Outcome) bool { return o.State.Failed() })
}

// Canceled returns the outcomes of canceled jobs.
func (r *Report) Canceled() []Outcome {
	return r.filter(func(o Outcome) bool { return o.State == job.Canceled })
}

func (r *Report) filter(keep func(Outcome) bool) []Outcome {
	var out []Outcome
	for _, o := range r.outcomes {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}

// Stage returns the last stage that began, or "".
func (r *Report) Stage() string {
	if len(r.stages) == 0 {
		return ""
	}
	return r.stages[len(r.stages)-1].Stage
}

// Stages returns every stage with its pass count.
func (r *Report) Stages() []StagePasses {
	return append([]StagePasses(nil), r.stages...)
}

// Passes returns the pass count of stage, or 0.
func (r *Report) Passes(stage string) int {
	for _, s := range r.stages {
		if s.Stage == stage {
			return s.Passes
		}
	}
	return 0
}
