package nstree

import (
	"iter"
	"sort"
	"strings"
)

// Flatten walks a map of maps depth first and yields every scalar with its
// dotted path. Keys are visited in sorted order. Empty nested maps are
// yielded as values so that Rarefy restores them. The sequence can be
// ranged over any number of times.
func Flatten(nested map[string]any) iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		flattenInto("", nested, yield)
	}
}

func flattenInto(prefix string, m map[string]any, yield func(string, any) bool) bool {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		path := join(prefix, k)
		if child, ok := m[k].(map[string]any); ok && len(child) > 0 {
			if !flattenInto(path, child, yield) {
				return false
			}
			continue
		}
		if !yield(path, m[k]) {
			return false
		}
	}
	return true
}

// Rarefy is the inverse of Flatten: it rebuilds a map of maps from dotted
// paths. When one path is a prefix of another the deeper path wins, the
// same way Tree.Set turns a leaf into a branch root.
func Rarefy(flat map[string]any) map[string]any {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any)
	for _, k := range keys {
		segs := strings.Split(k, Sep)
		cur := out
		for _, seg := range segs[:len(segs)-1] {
			next, ok := cur[seg].(map[string]any)
			if !ok {
				next = make(map[string]any)
				cur[seg] = next
			}
			cur = next
		}
		last := segs[len(segs)-1]
		if existing, ok := cur[last].(map[string]any); ok && len(existing) > 0 {
			continue
		}
		cur[last] = flat[k]
	}
	return out
}
