// Package builders provides the job payloads that can be declared in a
// build manifest.
package builders

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/rigbuild/internal/hoststore"
	"github.com/vk/rigbuild/internal/job"
	"github.com/vk/rigbuild/internal/joblog"
	"github.com/vk/rigbuild/internal/manifest"
)

// Kinds with a fixed outcome, used by fixtures and dry runs.
const (
	KindFail    = "fail"
	KindInvalid = "invalid"
)

// Declarative builds the object described by a manifest job: it creates
// (or updates) one host object for the target and one per output, and
// registers all of them.
type Declarative struct {
	decl    *manifest.Job
	objects hoststore.Objects
}

// NewDeclarative creates the builder of decl against the given host.
func NewDeclarative(decl *manifest.Job, objects hoststore.Objects) *Declarative {
	return &Declarative{decl: decl, objects: objects}
}

// Parse implements job.Builder.
func (d *Declarative) Parse(ctx context.Context, r job.Resolver) []string {
	var unresolved []string
	for _, raw := range d.decl.Requires {
		if _, err := r.Resolve(ctx, raw, d.decl.Asset); err != nil {
			unresolved = append(unresolved, raw)
		}
	}
	return unresolved
}

// TargetTag implements job.Builder.
func (d *Declarative) TargetTag() string {
	return d.decl.Target
}

// Run implements job.Builder.
func (d *Declarative) Run(ctx context.Context, r job.Resolver, mode job.Mode) error {
	log := joblog.FromContext(ctx)
	log.Info(fmt.Sprintf("# %s (%s)", d.decl.Name, d.decl.Kind))

	switch d.decl.Kind {
	case KindFail:
		return fmt.Errorf("%s: %s", d.decl.Name, d.message("declared failure"))
	case KindInvalid:
		return job.InvalidArgument("%s: %s", d.decl.Name, d.message("declared invalid"))
	}

	if d.decl.Target != "" {
		h, err := d.target(ctx, r, mode)
		if err != nil {
			return err
		}
		if err := r.Register(ctx, d.decl.Asset, d.decl.Target, h); err != nil {
			return err
		}
		log.Info(fmt.Sprintf("%s %s -> %s", mode, d.decl.Target, h))
	}

	for _, out := range d.decl.OutputTags() {
		tag, name := out[0], out[1]
		h, err := d.ensure(ctx, "output", name, map[string]any{"job": d.decl.Name})
		if err != nil {
			return fmt.Errorf("output %s: %w", tag, err)
		}
		if err := r.Register(ctx, d.decl.Asset, tag, h); err != nil {
			return err
		}
		log.Debug(fmt.Sprintf("output %s -> %s", tag, h))
	}
	return nil
}

// target returns the handle of the job's target, creating the object in
// Build mode and updating the resolved one in Update mode.
func (d *Declarative) target(ctx context.Context, r job.Resolver, mode job.Mode) (hoststore.Handle, error) {
	attrs := d.attrs()
	if mode == job.Update {
		v, err := r.Resolve(ctx, d.decl.Target, d.decl.Asset)
		if err != nil {
			return "", err
		}
		h, ok := v.(hoststore.Handle)
		if !ok {
			return "", job.InvalidArgument("target %s resolves to %T, not a single object", d.decl.Target, v)
		}
		return h, d.objects.Update(ctx, h, attrs)
	}
	return d.ensure(ctx, d.decl.Kind, d.objectName(), attrs)
}

// ensure creates the named object, or updates it when it already exists.
func (d *Declarative) ensure(ctx context.Context, kind, name string, attrs map[string]any) (hoststore.Handle, error) {
	h, err := d.objects.Create(ctx, kind, name, attrs)
	if errors.Is(err, hoststore.ErrExists) {
		h = hoststore.Handle(name)
		return h, d.objects.Update(ctx, h, attrs)
	}
	return h, err
}

func (d *Declarative) objectName() string {
	if name, ok := d.decl.Attrs["name"].(string); ok && name != "" {
		return name
	}
	return d.decl.Asset + "_" + d.decl.Name
}

func (d *Declarative) attrs() map[string]any {
	attrs := make(map[string]any, len(d.decl.Attrs)+2)
	for k, v := range d.decl.Attrs {
		attrs[k] = v
	}
	attrs["job"] = d.decl.Name
	attrs["asset"] = d.decl.Asset
	return attrs
}

func (d *Declarative) message(fallback string) string {
	if msg, ok := d.decl.Attrs["message"].(string); ok && msg != "" {
		return msg
	}
	return fallback
}

// Jobs turns the jobs of one stage into schedulable jobs. Canceled
// declarations are switched off before they are returned.
func Jobs(m *manifest.Manifest, stage string, objects hoststore.Objects) []*job.Job {
	var out []*job.Job
	for _, decl := range m.JobsInStage(stage) {
		j := job.New(decl.Name, decl.Asset, NewDeclarative(decl, objects))
		if decl.Canceled {
			j.Cancel()
		}
		out = append(out, j)
	}
	return out
}
