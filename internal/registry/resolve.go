package registry

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/vk/rigbuild/internal/hoststore"
	"github.com/vk/rigbuild/internal/nstree"
	"github.com/vk/rigbuild/internal/tagid"
)

// Resolve looks raw up and returns a hoststore.Handle, an nstree container
// for glob and branch results, a map keyed by asset when an unscoped tag
// hits several assets, or a []hoststore.Handle for children queries.
//
// The asset is taken from, in order: the tag itself, hint, the current
// asset. With none of these every known asset is searched.
func (r *Registry) Resolve(ctx context.Context, raw string, hint ...string) (any, error) {
	tag, err := tagid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}

	asset := tag.Asset
	if asset == "" && len(hint) > 0 {
		asset = hint[0]
	}
	if asset == "" {
		asset = r.current
	}

	var v any
	if asset != "" {
		v, err = r.lookup(ctx, asset, tag)
	} else {
		v, err = r.search(ctx, tag)
	}
	if err != nil {
		return nil, err
	}

	if tag.Children {
		if v, err = r.childrenOf(ctx, raw, v); err != nil {
			return nil, err
		}
	}
	if tag.Plug != "" {
		if v, err = r.plugOf(ctx, raw, v, tag.Plug); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Exists reports whether raw resolves.
func (r *Registry) Exists(ctx context.Context, raw string, hint ...string) bool {
	_, err := r.Resolve(ctx, raw, hint...)
	return err == nil
}

func (r *Registry) lookup(ctx context.Context, asset string, tag tagid.Tag) (any, error) {
	key := tag.Key()
	if st := r.assets[asset]; st != nil {
		v, err := st.Get(key)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, nstree.ErrNotFound) {
			return nil, fmt.Errorf("resolve %q: %w", Qualify(asset, key), err)
		}
	}
	if tag.Kind != tagid.Glob && r.host != nil {
		if h, ok := r.host.Lookup(ctx, Qualify(asset, key)); ok {
			return h, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, Qualify(asset, key))
}

// search resolves an unscoped tag against every asset. One hit collapses to
// that hit; several are returned keyed by asset.
func (r *Registry) search(ctx context.Context, tag tagid.Tag) (any, error) {
	hits := make(map[string]any)
	var last any
	for _, asset := range r.order {
		v, err := r.lookup(ctx, asset, tag)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		hits[asset] = v
		last = v
	}
	switch len(hits) {
	case 0:
		return nil, fmt.Errorf("%w: %q in any asset", ErrNotFound, tag.Key())
	case 1:
		return last, nil
	}
	return hits, nil
}

func (r *Registry) plugOf(ctx context.Context, raw string, v any, plug string) (any, error) {
	if r.plug == nil {
		return nil, fmt.Errorf("%w: %q: no plug resolver installed", ErrNotFound, raw)
	}
	out, err := mapHandles(v, func(h hoststore.Handle) (any, error) {
		return r.plug(ctx, h, plug)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrNotFound, raw, err)
	}
	return out, nil
}

func (r *Registry) childrenOf(ctx context.Context, raw string, v any) (any, error) {
	if r.children == nil {
		return nil, fmt.Errorf("%w: %q: no children resolver installed", ErrNotFound, raw)
	}
	out, err := mapHandles(v, func(h hoststore.Handle) (any, error) {
		return r.children(ctx, h)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrNotFound, raw, err)
	}
	return out, nil
}

// mapHandles applies f to every handle in a resolve result, keeping the
// shape of containers.
func mapHandles(v any, f func(hoststore.Handle) (any, error)) (any, error) {
	switch val := v.(type) {
	case hoststore.Handle:
		return f(val)
	case []hoststore.Handle:
		out := make([]any, 0, len(val))
		for _, h := range val {
			m, err := f(h)
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			m, err := mapHandles(item, f)
			if err != nil {
				return nil, err
			}
			out[k] = m
		}
		return out, nil
	case *nstree.Subtree:
		t, err := mapTree(val.Tree.All(), f)
		if err != nil {
			return nil, err
		}
		return &nstree.Subtree{Tree: t}, nil
	case *nstree.Tree:
		return mapTree(val.All(), f)
	case *nstree.Branch:
		return mapTree(val.All(), f)
	}
	return nil, fmt.Errorf("cannot address %T as a host handle", v)
}

func mapTree(entries iter.Seq2[string, any], f func(hoststore.Handle) (any, error)) (*nstree.Tree, error) {
	out := nstree.New()
	for k, item := range entries {
		m, err := mapHandles(item, f)
		if err != nil {
			return nil, err
		}
		if err := out.Set(k, m); err != nil {
			return nil, err
		}
	}
	return out, nil
}
