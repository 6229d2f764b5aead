// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// implementation of hoststore.Store and hoststore.Objects.
//
// # Concurrency Model
//
// The scheduler drives builds from a single goroutine, but host code (a
// viewport refresh, a file watcher) may read objects concurrently. The
// store therefore keeps tag bindings and objects in sync.Map values, which
// fit the pattern of a stable key space with frequently rewritten values.
package inmemorystore

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vk/rigbuild/internal/ctxlog"
	"github.com/vk/rigbuild/internal/hoststore"
)

// Object is a host object as seen by the in-memory host.
type Object struct {
	Handle   hoststore.Handle
	Kind     string
	Name     string
	Parent   hoststore.Handle
	Attrs    map[string]any
	Revision int
}

// Store is an in-memory host using sync.Map for fine-grained concurrent
// access without global lock contention.
//
// The store maintains two independent sync.Maps:
//   - tags: maps asset-qualified tag strings to hoststore.Handle
//   - objects: maps handles to *Object
type Store struct {
	tags    sync.Map // Key: tag string, Value: hoststore.Handle
	objects sync.Map // Key: hoststore.Handle, Value: *Object
	mu      sync.Mutex
	created atomic.Int64
}

// New creates a new, empty in-memory host.
func New() *Store {
	return &Store{}
}

// Lookup retrieves the handle bound to tag.
func (s *Store) Lookup(ctx context.Context, tag string) (hoststore.Handle, bool) {
	h, ok := s.tags.Load(tag)
	if !ok {
		return "", false
	}
	return h.(hoststore.Handle), true
}

// Put binds tag to h.
func (s *Store) Put(ctx context.Context, tag string, h hoststore.Handle) error {
	s.tags.Store(tag, h)
	return nil
}

// Delete unbinds tag.
func (s *Store) Delete(ctx context.Context, tag string) error {
	if _, loaded := s.tags.LoadAndDelete(tag); !loaded {
		return fmt.Errorf("%w: tag %q", hoststore.ErrNotFound, tag)
	}
	return nil
}

// Create makes a new object. The handle is the object name; a "parent"
// attribute holding a handle makes the new object a child of it.
func (s *Store) Create(ctx context.Context, kind, name string, attrs map[string]any) (hoststore.Handle, error) {
	if name == "" {
		return "", fmt.Errorf("cannot create %s object with an empty name", kind)
	}
	h := hoststore.Handle(name)
	obj := &Object{Handle: h, Kind: kind, Name: name, Attrs: maps.Clone(attrs), Revision: 1}
	if obj.Attrs == nil {
		obj.Attrs = map[string]any{}
	}
	if p, ok := attrs["parent"].(hoststore.Handle); ok {
		obj.Parent = p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objects.Load(h); exists {
		return "", fmt.Errorf("%w: %q", hoststore.ErrExists, name)
	}
	s.objects.Store(h, obj)
	s.created.Add(1)
	ctxlog.FromContext(ctx).Debug("Host object created.", "handle", h, "kind", kind)
	return h, nil
}

// Update merges attrs into an existing object and bumps its revision.
func (s *Store) Update(ctx context.Context, h hoststore.Handle, attrs map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.objects.Load(h)
	if !ok {
		return fmt.Errorf("%w: %q", hoststore.ErrNotFound, h)
	}
	old := v.(*Object)
	next := *old
	next.Attrs = maps.Clone(old.Attrs)
	maps.Copy(next.Attrs, attrs)
	next.Revision++
	s.objects.Store(h, &next)
	ctxlog.FromContext(ctx).Debug("Host object updated.", "handle", h, "revision", next.Revision)
	return nil
}

// Exists reports whether h refers to a live object.
func (s *Store) Exists(ctx context.Context, h hoststore.Handle) bool {
	_, ok := s.objects.Load(h)
	return ok
}

// Object returns a copy of the object behind h.
func (s *Store) Object(h hoststore.Handle) (Object, bool) {
	v, ok := s.objects.Load(h)
	if !ok {
		return Object{}, false
	}
	obj := *v.(*Object)
	obj.Attrs = maps.Clone(obj.Attrs)
	return obj, true
}

// Created returns how many objects have ever been created.
func (s *Store) Created() int {
	return int(s.created.Load())
}

// Len returns the number of live objects.
func (s *Store) Len() int {
	n := 0
	s.objects.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Plug addresses an attribute of an object as "handle.plug". It is the
// in-memory host's implementation of the registry plug hook.
func (s *Store) Plug(ctx context.Context, h hoststore.Handle, plug string) (hoststore.Handle, error) {
	if !s.Exists(ctx, h) {
		return "", fmt.Errorf("%w: %q", hoststore.ErrNotFound, h)
	}
	return hoststore.Handle(string(h) + "." + plug), nil
}

// Children lists the objects parented under h, sorted by handle.
func (s *Store) Children(ctx context.Context, h hoststore.Handle) ([]hoststore.Handle, error) {
	if !s.Exists(ctx, h) {
		return nil, fmt.Errorf("%w: %q", hoststore.ErrNotFound, h)
	}
	var out []hoststore.Handle
	s.objects.Range(func(_, v any) bool {
		if obj := v.(*Object); obj.Parent == h {
			out = append(out, obj.Handle)
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return strings.Compare(string(out[i]), string(out[j])) < 0 })
	return out, nil
}
