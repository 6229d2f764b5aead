package testutil

import (
	"context"
	"sync"

	"github.com/vk/rigbuild/internal/hoststore"
	"github.com/vk/rigbuild/internal/job"
	"github.com/vk/rigbuild/internal/joblog"
)

// FakeBuilder is a scripted job.Builder. Parse reports every entry of
// Requires that does not resolve; Run registers Target (when set) under
// Handle, or under the target tag itself when Handle is empty.
type FakeBuilder struct {
	Target   string
	Requires []string
	Handle   hoststore.Handle

	// Err is returned from Run. Panic, when non-nil, is raised from Run.
	Err   error
	Panic any
	// OnRun replaces the default registration when set.
	OnRun func(ctx context.Context, r job.Resolver, mode job.Mode) error

	mu    sync.Mutex
	modes []job.Mode
}

// Parse implements job.Builder.
func (b *FakeBuilder) Parse(ctx context.Context, r job.Resolver) []string {
	var unresolved []string
	for _, raw := range b.Requires {
		if _, err := r.Resolve(ctx, raw); err != nil {
			unresolved = append(unresolved, raw)
		}
	}
	return unresolved
}

// Run implements job.Builder.
func (b *FakeBuilder) Run(ctx context.Context, r job.Resolver, mode job.Mode) error {
	b.mu.Lock()
	b.modes = append(b.modes, mode)
	b.mu.Unlock()

	joblog.FromContext(ctx).Info("fake builder running in " + mode.String() + " mode")
	if b.Panic != nil {
		panic(b.Panic)
	}
	if b.Err != nil {
		return b.Err
	}
	if b.OnRun != nil {
		return b.OnRun(ctx, r, mode)
	}
	if b.Target == "" {
		return nil
	}
	h := b.Handle
	if h == "" {
		h = hoststore.Handle(b.Target)
	}
	return r.Register(ctx, "", b.Target, h)
}

// TargetTag implements job.Builder.
func (b *FakeBuilder) TargetTag() string {
	return b.Target
}

// Modes returns the mode of every Run call in order.
func (b *FakeBuilder) Modes() []job.Mode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]job.Mode(nil), b.modes...)
}
