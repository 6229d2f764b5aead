package job

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/vk/rigbuild/internal/ctxlog"
	"github.com/vk/rigbuild/internal/hoststore"
	"github.com/vk/rigbuild/internal/joblog"
	"github.com/vk/rigbuild/internal/tagid"
)

// Resolver is the part of the registry a builder works against.
type Resolver interface {
	Resolve(ctx context.Context, raw string, hint ...string) (any, error)
	Register(ctx context.Context, asset, raw string, h hoststore.Handle) error
}

// assetScoper is implemented by resolvers that track a current asset.
type assetScoper interface {
	WithAsset(asset string, fn func() error) error
}

// Builder is the payload of a job.
type Builder interface {
	// Parse resolves every tag the builder needs and returns the ones that
	// did not resolve. It must not change the host or the registry.
	Parse(ctx context.Context, r Resolver) []string
	// Run builds or updates the target and registers what it produces.
	Run(ctx context.Context, r Resolver, mode Mode) error
	// TargetTag returns the tag of the object the job produces, or "".
	TargetTag() string
}

// Job is one schedulable unit of a build.
type Job struct {
	ID      string
	Asset   string
	Builder Builder

	log        *joblog.Log
	unresolved []string
	state      State
	failure    *Failure
	attempts   int
	mode       Mode
}

// New creates a pending job.
func New(id, asset string, b Builder) *Job {
	return &Job{ID: id, Asset: asset, Builder: b, log: joblog.New(id)}
}

// State returns the current state.
func (j *Job) State() State { return j.state }

// Failure returns the terminal failure, or nil.
func (j *Job) Failure() *Failure { return j.failure }

// Log returns the job's log buffer.
func (j *Job) Log() *joblog.Log { return j.log }

// Attempts returns how many times the job has been attempted.
func (j *Job) Attempts() int { return j.attempts }

// Mode returns the mode of the last run.
func (j *Job) Mode() Mode { return j.mode }

// Schedulable reports whether the job may still be attempted.
func (j *Job) Schedulable() bool { return !j.state.Terminal() }

// Unresolved returns the tags the last attempt could not resolve.
func (j *Job) Unresolved() []string { return append([]string(nil), j.unresolved...) }

func (j *Job) String() string { return j.ID }

// Cancel switches the job off. It has no effect once the job is terminal.
func (j *Job) Cancel() {
	if j.Schedulable() {
		j.state = Canceled
	}
}

// Finalize forces a job that is still waiting into Invalid, keeping its
// unresolved tags as the reported cause.
func (j *Job) Finalize(cause error) {
	if !j.Schedulable() {
		return
	}
	if cause == nil {
		cause = ErrNoProgress
	}
	j.fail(&Failure{
		Kind:       KindInvalid,
		Err:        fmt.Errorf("%w: %w", cause, ErrUnresolved),
		Message:    fmt.Sprintf("%v: still waiting for %s", cause, strings.Join(j.unresolved, ", ")),
		Unresolved: j.Unresolved(),
	})
}

// Attempt runs one pass of the state machine and returns the new state.
// Terminal jobs are left untouched.
func (j *Job) Attempt(ctx context.Context, r Resolver) State {
	if !j.Schedulable() {
		return j.state
	}
	j.attempts++
	j.log.Reset()
	j.unresolved = nil
	j.failure = nil

	ctx, logger := ctxlog.With(ctx, "job", j.ID)
	ctx = joblog.WithLog(ctx, j.log)
	if s, ok := r.(assetScoper); ok && j.Asset != "" {
		_ = s.WithAsset(j.Asset, func() error {
			j.attempt(ctx, r)
			return nil
		})
	} else {
		j.attempt(ctx, r)
	}

	logger.Debug("Job attempt finished.",
		"attempt", j.attempts, "state", j.state, "unresolved", len(j.unresolved))
	return j.state
}

func (j *Job) attempt(ctx context.Context, r Resolver) {
	var unresolved []string
	if err := guard(func() error {
		unresolved = j.Builder.Parse(ctx, r)
		return nil
	}); err != nil {
		j.fail(classify(err))
		return
	}
	j.unresolved = unresolved

	if len(unresolved) > 0 {
		if deferrable(unresolved) {
			j.state = Delayed
			j.log.Debug("waiting for " + strings.Join(unresolved, ", "))
			return
		}
		j.fail(&Failure{
			Kind:       KindInvalid,
			Err:        ErrUnresolved,
			Message:    "missing required references: " + strings.Join(unresolved, ", "),
			Unresolved: j.Unresolved(),
		})
		return
	}

	j.mode = Build
	if target := j.Builder.TargetTag(); target != "" {
		if _, err := r.Resolve(ctx, target, j.Asset); err == nil {
			j.mode = Update
		}
	}

	if f := classify(guard(func() error { return j.Builder.Run(ctx, r, j.mode) })); f != nil {
		j.fail(f)
		return
	}
	j.state = Done
	j.log.Info(fmt.Sprintf("%s %s", j.mode, j.ID))
}

func (j *Job) fail(f *Failure) {
	j.failure = f
	j.state = f.Kind.State()
	j.log.Error(fmt.Sprintf("%s: %v", f.Kind, f))
	if f.Stack != "" {
		j.log.Debug(f.Stack)
	}
}

// deferrable reports whether any unresolved tag may appear in a later pass.
func deferrable(unresolved []string) bool {
	for _, raw := range unresolved {
		if tagid.IsDeferrable(raw) {
			return true
		}
	}
	return false
}

// guard runs fn and turns a panic into a Crash failure.
func guard(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &Failure{
				Kind:  KindCrash,
				Err:   fmt.Errorf("panic: %v", p),
				Stack: string(debug.Stack()),
			}
		}
	}()
	return fn()
}
