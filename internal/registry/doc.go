// Package registry provides the per-asset namespace that builders use to
// find each other's outputs.
//
// The Registry stores one nstree.SuperTree per asset and resolves tags in
// the grammar of package tagid. It is an explicit context object: the
// application creates one, passes it to every job and scheduler call, and
// calls Flush at the start of every build. Registered handles are mirrored
// into a host store so that objects built by an earlier build remain
// discoverable after a flush.
//
// The registry performs no locking; the scheduler is its only mutator.
package registry
