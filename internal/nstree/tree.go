package nstree

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"sort"
	"strings"
)

// Sep separates the segments of a path.
const Sep = "."

var (
	// ErrNotFound is returned when a path has neither a leaf nor a branch.
	ErrNotFound = errors.New("not found")
	// ErrInvalidPath is returned for empty paths or paths with empty segments.
	ErrInvalidPath = errors.New("invalid path")
	// ErrBadPattern is returned when a glob segment cannot be compiled.
	ErrBadPattern = errors.New("bad glob pattern")
)

// Tree is an ordered mapping from dotted paths to values.
type Tree struct {
	entries map[string]any
	// index maps a prefix to every suffix stored below it. The root prefix
	// "" lists every leaf path.
	index map[string]map[string]struct{}
	// seq records insertion order of leaves.
	seq  map[string]uint64
	next uint64
}

// Subtree is a detached tree returned when a glob matches several entries.
type Subtree struct {
	*Tree
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{
		entries: make(map[string]any),
		index:   map[string]map[string]struct{}{"": {}},
		seq:     make(map[string]uint64),
	}
}

func join(prefix, suffix string) string {
	switch {
	case prefix == "":
		return suffix
	case suffix == "":
		return prefix
	}
	return prefix + Sep + suffix
}

func validate(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	for _, seg := range strings.Split(path, Sep) {
		if seg == "" {
			return fmt.Errorf("%w: %q contains an empty segment", ErrInvalidPath, path)
		}
	}
	return nil
}

func notFound(path string) error {
	return fmt.Errorf("%w: %q", ErrNotFound, path)
}

// Set stores value at path. A branch previously rooted at path is removed,
// and any leaf found at a partial prefix of path is removed so that it can
// become a branch root.
func (t *Tree) Set(path string, value any) error {
	if err := validate(path); err != nil {
		return err
	}
	if t.IsBranch(path) {
		t.deleteBranch(path)
	}

	segs := strings.Split(path, Sep)
	for i := 1; i < len(segs); i++ {
		prefix := strings.Join(segs[:i], Sep)
		if _, isLeaf := t.entries[prefix]; isLeaf {
			t.deleteLeaf(prefix)
		}
	}
	for i := 1; i < len(segs); i++ {
		prefix := strings.Join(segs[:i], Sep)
		t.addSuffix(prefix, strings.Join(segs[i:], Sep))
	}
	t.addSuffix("", path)

	if _, exists := t.entries[path]; !exists {
		t.seq[path] = t.next
		t.next++
	}
	t.entries[path] = value
	return nil
}

// Update stores every leaf of a nested map below prefix.
func (t *Tree) Update(prefix string, nested map[string]any) error {
	for path, v := range Flatten(nested) {
		if err := t.Set(join(prefix, path), v); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) addSuffix(prefix, suffix string) {
	set, ok := t.index[prefix]
	if !ok {
		set = make(map[string]struct{})
		t.index[prefix] = set
	}
	set[suffix] = struct{}{}
}

func (t *Tree) removeSuffix(prefix, suffix string) {
	set, ok := t.index[prefix]
	if !ok {
		return
	}
	delete(set, suffix)
	if len(set) == 0 && prefix != "" {
		delete(t.index, prefix)
	}
}

func (t *Tree) deleteLeaf(path string) {
	delete(t.entries, path)
	delete(t.seq, path)
	segs := strings.Split(path, Sep)
	for i := 1; i < len(segs); i++ {
		t.removeSuffix(strings.Join(segs[:i], Sep), strings.Join(segs[i:], Sep))
	}
	t.removeSuffix("", path)
}

func (t *Tree) deleteBranch(prefix string) {
	suffixes := make([]string, 0, len(t.index[prefix]))
	for s := range t.index[prefix] {
		suffixes = append(suffixes, s)
	}
	for _, s := range suffixes {
		t.deleteLeaf(join(prefix, s))
	}
}

// Get returns the value stored at path.
//
// An exact leaf wins. A path with a glob segment is matched against the
// immediate children of its prefix. A path that is only a branch prefix
// yields a *Branch view.
func (t *Tree) Get(path string) (any, error) {
	if v, ok := t.entries[path]; ok {
		return v, nil
	}
	if hasGlob(path) {
		matches, err := t.glob(path)
		if err != nil {
			return nil, err
		}
		return collapse(path, matches)
	}
	if path == "" {
		return &Branch{tree: t}, nil
	}
	if t.IsBranch(path) {
		return &Branch{tree: t, prefix: path}, nil
	}
	return nil, notFound(path)
}

// Has reports whether path is a leaf or a branch prefix.
func (t *Tree) Has(path string) bool {
	_, isLeaf := t.entries[path]
	return isLeaf || t.IsBranch(path)
}

// IsLeaf reports whether a value is stored exactly at path.
func (t *Tree) IsLeaf(path string) bool {
	_, ok := t.entries[path]
	return ok
}

// IsBranch reports whether path is a prefix of at least one leaf.
func (t *Tree) IsBranch(path string) bool {
	if path == "" {
		return false
	}
	return len(t.index[path]) > 0
}

// Branch returns a view rooted at prefix. The view is valid even if the
// prefix has no children yet.
func (t *Tree) Branch(prefix string) *Branch {
	return &Branch{tree: t, prefix: prefix}
}

// Delete removes the leaf at path, or the whole branch if path is a prefix.
func (t *Tree) Delete(path string) error {
	if _, ok := t.entries[path]; ok {
		t.deleteLeaf(path)
		return nil
	}
	if t.IsBranch(path) {
		t.deleteBranch(path)
		return nil
	}
	return notFound(path)
}

// Pop returns the value at path and removes it. Branch views are
// materialized first so the returned value survives the deletion.
func (t *Tree) Pop(path string) (any, error) {
	if hasGlob(path) {
		matches, err := t.glob(path)
		if err != nil {
			return nil, err
		}
		for i := range matches {
			if b, ok := matches[i].value.(*Branch); ok {
				matches[i].value = b.Materialize()
			}
		}
		v, err := collapse(path, matches)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			_ = t.Delete(m.path)
		}
		return v, nil
	}

	v, err := t.Get(path)
	if err != nil {
		return nil, err
	}
	if b, ok := v.(*Branch); ok {
		v = b.Materialize()
	}
	if err := t.Delete(path); err != nil {
		return nil, err
	}
	return v, nil
}

// Len returns the number of leaves.
func (t *Tree) Len() int {
	return len(t.entries)
}

// Keys returns every leaf path in insertion order.
func (t *Tree) Keys() []string {
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	t.sortBySeq(keys, "")
	return keys
}

// All iterates over every leaf in insertion order.
func (t *Tree) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range t.Keys() {
			v, ok := t.entries[k]
			if !ok {
				continue
			}
			if !yield(k, v) {
				return
			}
		}
	}
}

// Children returns the names of the immediate children of prefix, sorted.
// The empty prefix lists the top-level segments.
func (t *Tree) Children(prefix string) []string {
	seen := make(map[string]struct{})
	for suffix := range t.index[prefix] {
		head, _, _ := strings.Cut(suffix, Sep)
		seen[head] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clone returns a detached copy. Values are copied shallowly.
func (t *Tree) Clone() *Tree {
	out := New()
	for k, v := range t.All() {
		_ = out.Set(k, v)
	}
	return out
}

// Nested returns the contents as a map of maps.
func (t *Tree) Nested() map[string]any {
	flat := make(map[string]any, len(t.entries))
	for k, v := range t.entries {
		flat[k] = v
	}
	return Rarefy(flat)
}

// Clear removes every entry.
func (t *Tree) Clear() {
	*t = *New()
}

// sortBySeq orders suffixes of prefix by the insertion order of their
// full paths.
func (t *Tree) sortBySeq(suffixes []string, prefix string) {
	slices.SortFunc(suffixes, func(a, b string) int {
		sa, sb := t.seq[join(prefix, a)], t.seq[join(prefix, b)]
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		}
		return strings.Compare(a, b)
	})
}
