// Package hoststore defines the interface to the host runtime that owns the
// actual rig objects.
//
// # Why Host Store Exists
//
// Builders never exchange pointers; they exchange tags. The registry maps
// tags to opaque handles, and the host store is where those handles live
// between builds. The registry namespace is flushed at the start of every
// build, the host store is not, which is what lets a job detect that its
// target already exists and update it instead of building a duplicate.
//
// # Lifecycle and Usage
//
//  1. **Created** once per process by the embedding application
//  2. **Written** by the registry whenever a job registers a tag
//  3. **Read** by the registry as a fallback when a namespace lookup misses
//  4. **Mutated** by builders creating or updating objects
package hoststore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a handle or tag is unknown to the host.
var ErrNotFound = errors.New("host object not found")

// Handle is an opaque reference to a host object.
type Handle string

// String returns the handle as a plain string.
func (h Handle) String() string {
	return string(h)
}

// Store is the key/value view of the host the registry needs.
//
// Tags passed to the store are always asset-qualified ("asset#tag") so that
// different assets never collide.
type Store interface {
	// Lookup returns the handle recorded for tag, if any.
	Lookup(ctx context.Context, tag string) (Handle, bool)

	// Put records handle under tag, overwriting any previous handle.
	Put(ctx context.Context, tag string, h Handle) error

	// Delete forgets tag. Deleting an unknown tag returns ErrNotFound.
	Delete(ctx context.Context, tag string) error
}

// Objects is implemented by hosts that can create and address objects.
// Builders depend on it; the registry does not.
type Objects interface {
	// Create makes a new object and returns its handle, which is the
	// object name. Creating a name that already exists returns ErrExists.
	Create(ctx context.Context, kind, name string, attrs map[string]any) (Handle, error)

	// Update rewrites the attributes of an existing object.
	Update(ctx context.Context, h Handle, attrs map[string]any) error

	// Exists reports whether the handle refers to a live object.
	Exists(ctx context.Context, h Handle) bool
}

// ErrExists is returned by Objects.Create for a duplicate name.
var ErrExists = errors.New("host object already exists")
