package nstree

import "iter"

// Branch is a live, non-owning view of a Tree rooted at a prefix.
type Branch struct {
	tree   *Tree
	prefix string
}

// Prefix returns the path the view is rooted at. The root view has an
// empty prefix.
func (b *Branch) Prefix() string {
	return b.prefix
}

// Tree returns the owning tree.
func (b *Branch) Tree() *Tree {
	return b.tree
}

// Get resolves suffix relative to the branch prefix.
func (b *Branch) Get(suffix string) (any, error) {
	if suffix == "" {
		return b.tree.Get(b.prefix)
	}
	return b.tree.Get(join(b.prefix, suffix))
}

// Set stores value at prefix.suffix in the owning tree.
func (b *Branch) Set(suffix string, value any) error {
	return b.tree.Set(join(b.prefix, suffix), value)
}

// Delete removes prefix.suffix from the owning tree.
func (b *Branch) Delete(suffix string) error {
	return b.tree.Delete(join(b.prefix, suffix))
}

// Pop returns and removes prefix.suffix from the owning tree.
func (b *Branch) Pop(suffix string) (any, error) {
	return b.tree.Pop(join(b.prefix, suffix))
}

// Branch returns a nested view.
func (b *Branch) Branch(suffix string) *Branch {
	return &Branch{tree: b.tree, prefix: join(b.prefix, suffix)}
}

// Keys returns the suffixes of every leaf below the prefix in insertion
// order.
func (b *Branch) Keys() []string {
	if b.prefix == "" {
		return b.tree.Keys()
	}
	set := b.tree.index[b.prefix]
	keys := make([]string, 0, len(set))
	for s := range set {
		keys = append(keys, s)
	}
	b.tree.sortBySeq(keys, b.prefix)
	return keys
}

// Children returns the names of the immediate children of the prefix.
func (b *Branch) Children() []string {
	return b.tree.Children(b.prefix)
}

// Len returns the number of leaves below the prefix.
func (b *Branch) Len() int {
	if b.prefix == "" {
		return b.tree.Len()
	}
	return len(b.tree.index[b.prefix])
}

// All iterates over the leaves below the prefix, yielding suffixes.
func (b *Branch) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range b.Keys() {
			v, ok := b.tree.entries[join(b.prefix, k)]
			if !ok {
				continue
			}
			if !yield(k, v) {
				return
			}
		}
	}
}

// Materialize copies the leaves below the prefix into a detached tree
// keyed by suffix.
func (b *Branch) Materialize() *Tree {
	out := New()
	for k, v := range b.All() {
		_ = out.Set(k, v)
	}
	return out
}
