// Package nstree provides the hierarchical namespace used to store and
// resolve rig tags.
//
// # Tree
//
// A Tree maps dotted paths ("spine.ctrl.0") to arbitrary values. It keeps a
// single flat backing store keyed by full path plus a prefix index that
// records, for every partial prefix, the set of remaining suffixes below it.
// The index answers "does this prefix have children" without nesting maps.
//
// A path is either a leaf or a branch prefix, never both:
//   - setting a leaf where a branch existed removes the whole branch;
//   - setting a leaf below an existing leaf turns that leaf into a branch
//     root, removing the old leaf value.
//
// # Branch
//
// A Branch is a non-owning view of a Tree rooted at a prefix. All
// operations translate "suffix" to "prefix.suffix" and delegate to the
// owning tree, so a Branch never copies data and always observes the
// current state of its tree. Use Materialize (or Tree.Pop) to obtain a
// detached copy.
//
// # Globs
//
// A path segment containing '*', '?' or '[' is a single-level glob. It is
// matched against the immediate children of the prefix before it and never
// against deeper descendants. One match yields the bare value, several
// yield a *Subtree holding only the matches.
//
// # SuperTree
//
// A SuperTree adds a second level on top of Tree: tags of the form
// "main::sub" store "sub" in a Tree owned by "main". A main holds either a
// scalar or a sub-tree. Mains are flat keys, so "arm" and "arm.L" coexist;
// their dots only matter to glob and prefix lookups, which return a
// *Subtree of the matching mains. Sub lookups against such a main are
// broadcast to every matched sub-tree.
//
// None of the types in this package are safe for concurrent use; the
// scheduler is their only mutator during a build.
package nstree
