package scheduler

import (
	"context"

	"github.com/vk/rigbuild/internal/ctxlog"
	"github.com/vk/rigbuild/internal/job"
	"github.com/vk/rigbuild/internal/report"
)

// Scheduler runs stages of jobs against one resolver.
type Scheduler struct {
	resolver job.Resolver
}

// New creates a scheduler working against r.
func New(r job.Resolver) *Scheduler {
	return &Scheduler{resolver: r}
}

// Run schedules jobs as a single stage and returns a fresh report.
func (s *Scheduler) Run(ctx context.Context, stage string, jobs []*job.Job) *report.Report {
	rep := report.New()
	s.RunInto(ctx, rep, stage, jobs)
	return rep
}

// RunInto schedules jobs as one stage and records the outcome into rep.
// It returns the number of passes the stage took.
func (s *Scheduler) RunInto(ctx context.Context, rep *report.Report, stage string, jobs []*job.Job) int {
	ctx, logger := ctxlog.With(ctx, "stage", stage)
	rep.BeginStage(stage)
	logger.Info("Stage started.", "jobs", len(jobs))

	passes := 0
	for {
		working := schedulable(jobs)
		if len(working) == 0 {
			break
		}
		passes++
		progress := false
		for _, j := range working {
			if j.Attempt(ctx, s.resolver) != job.Delayed {
				progress = true
			}
		}
		logger.Debug("Pass finished.", "pass", passes, "attempted", len(working), "progress", progress)
		if !progress {
			for _, j := range working {
				j.Finalize(job.ErrNoProgress)
			}
			logger.Warn("Stage reached a fixed point with jobs still waiting.", "jobs", len(working))
			break
		}
	}

	for _, j := range jobs {
		rep.Record(ctx, stage, j)
	}
	rep.SetPasses(stage, passes)
	logger.Info("Stage finished.", "passes", passes, "summary", rep.Summary())
	return passes
}

func schedulable(jobs []*job.Job) []*job.Job {
	var out []*job.Job
	for _, j := range jobs {
		if j.Schedulable() {
			out = append(out, j)
		}
	}
	return out
}
