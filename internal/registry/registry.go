package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/rigbuild/internal/ctxlog"
	"github.com/vk/rigbuild/internal/hoststore"
	"github.com/vk/rigbuild/internal/nstree"
	"github.com/vk/rigbuild/internal/tagid"
)

var (
	// ErrNotFound is returned when a tag does not resolve.
	ErrNotFound = errors.New("tag not found")
	// ErrNoAsset is returned when a tag cannot be scoped to any asset.
	ErrNoAsset = errors.New("no asset in scope")
	// ErrNotRegistrable is returned for tags that address a query rather
	// than a single entry (globs, plugs, children).
	ErrNotRegistrable = errors.New("tag cannot be registered")
)

// PlugFunc projects a handle onto one of its plugs.
type PlugFunc func(ctx context.Context, h hoststore.Handle, plug string) (hoststore.Handle, error)

// ChildrenFunc lists the hierarchical children of a handle.
type ChildrenFunc func(ctx context.Context, h hoststore.Handle) ([]hoststore.Handle, error)

// Option configures a Registry.
type Option func(*Registry)

// WithHost mirrors registrations into s and falls back to it on lookups.
func WithHost(s hoststore.Store) Option {
	return func(r *Registry) { r.host = s }
}

// WithPlugFunc installs the hook used for "tag@plug" addressing.
func WithPlugFunc(f PlugFunc) Option {
	return func(r *Registry) { r.plug = f }
}

// WithChildrenFunc installs the hook used for "tag:::children" queries.
func WithChildrenFunc(f ChildrenFunc) Option {
	return func(r *Registry) { r.children = f }
}

// Registry holds the namespaces of every asset of one build.
type Registry struct {
	assets   map[string]*nstree.SuperTree
	order    []string
	current  string
	host     hoststore.Store
	plug     PlugFunc
	children ChildrenFunc
}

// New creates and initializes a new Registry instance.
func New(opts ...Option) *Registry {
	r := &Registry{assets: make(map[string]*nstree.SuperTree)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Qualify renders the asset-qualified form of a lookup key.
func Qualify(asset, key string) string {
	return asset + tagid.AssetSep + key
}

// SetCurrent sets the asset used for tags without an explicit asset.
func (r *Registry) SetCurrent(asset string) {
	r.current = asset
}

// Current returns the current asset, or "" when none is set.
func (r *Registry) Current() string {
	return r.current
}

// WithAsset runs fn with asset as the current asset and restores the
// previous one afterwards.
func (r *Registry) WithAsset(asset string, fn func() error) error {
	prev := r.current
	r.current = asset
	defer func() { r.current = prev }()
	return fn()
}

// Assets returns every known asset in creation order.
func (r *Registry) Assets() []string {
	return append([]string(nil), r.order...)
}

// Tree returns the namespace of asset, or nil if the asset is unknown.
func (r *Registry) Tree(asset string) *nstree.SuperTree {
	return r.assets[asset]
}

// AddAsset creates the namespace of asset if it does not exist yet.
func (r *Registry) AddAsset(asset string) *nstree.SuperTree {
	st, ok := r.assets[asset]
	if !ok {
		st = nstree.NewSuperTree()
		r.assets[asset] = st
		r.order = append(r.order, asset)
	}
	return st
}

// Flush clears every asset namespace and the current asset. The host store
// is left untouched.
func (r *Registry) Flush() {
	r.assets = make(map[string]*nstree.SuperTree)
	r.order = nil
	r.current = ""
}

// Rebuild flushes the registry at the start of a fresh build.
func (r *Registry) Rebuild(ctx context.Context) {
	ctxlog.FromContext(ctx).Debug("Registry flushed for rebuild.", "assets", len(r.order))
	r.Flush()
}

// Register binds raw to h in asset's namespace, creating the namespace if
// needed. An explicit asset in raw wins over the asset argument, which in
// turn wins over the current asset.
func (r *Registry) Register(ctx context.Context, asset, raw string, h hoststore.Handle) error {
	tag, err := tagid.Parse(raw)
	if err != nil {
		return err
	}
	if tag.Kind == tagid.Glob || tag.Plug != "" || tag.Children {
		return fmt.Errorf("%w: %q", ErrNotRegistrable, raw)
	}
	switch {
	case tag.Asset != "":
		asset = tag.Asset
	case asset == "":
		asset = r.current
	}
	if asset == "" {
		return fmt.Errorf("%w: register %q", ErrNoAsset, raw)
	}

	// A failed registration leaves both the host and the namespace as
	// they were.
	qualified := Qualify(asset, tag.Key())
	var prev hoststore.Handle
	var hadPrev bool
	if r.host != nil {
		prev, hadPrev = r.host.Lookup(ctx, qualified)
		if err := r.host.Put(ctx, qualified, h); err != nil {
			return fmt.Errorf("register %q with host: %w", raw, err)
		}
	}
	if err := r.AddAsset(asset).Set(tag.Key(), h); err != nil {
		if r.host != nil {
			if hadPrev {
				_ = r.host.Put(ctx, qualified, prev)
			} else {
				_ = r.host.Delete(ctx, qualified)
			}
		}
		return fmt.Errorf("register %q: %w", raw, err)
	}
	ctxlog.FromContext(ctx).Debug("Tag registered.", "asset", asset, "tag", tag.Key(), "handle", h)
	return nil
}
