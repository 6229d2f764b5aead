package nstree

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
)

// SubSep separates the main and sub parts of a two-level tag.
const SubSep = "::"

// SuperTree is a two-level namespace. Tags without a sub part store scalar
// values; tags with one store into a Tree owned by their main. A *Tree
// value stored under a main is treated as that main's sub-tree.
//
// Mains are kept flat: "arm" and "arm.L" are independent entries, and
// dotted structure among mains only matters to glob and branch lookups.
type SuperTree struct {
	mains map[string]any
	seq   map[string]uint64
	next  uint64
}

// NewSuperTree creates an empty two-level namespace.
func NewSuperTree() *SuperTree {
	return &SuperTree{
		mains: make(map[string]any),
		seq:   make(map[string]uint64),
	}
}

// SplitTag splits a tag into its main and sub parts.
func SplitTag(tag string) (main, sub string, hasSub bool) {
	return strings.Cut(tag, SubSep)
}

func (s *SuperTree) put(main string, value any) {
	if _, exists := s.mains[main]; !exists {
		s.seq[main] = s.next
		s.next++
	}
	s.mains[main] = value
}

func (s *SuperTree) remove(main string) {
	delete(s.mains, main)
	delete(s.seq, main)
}

// Set stores value under tag. Only the entry of the same tag is replaced.
func (s *SuperTree) Set(tag string, value any) error {
	main, sub, hasSub := SplitTag(tag)
	if err := validate(main); err != nil {
		return err
	}
	if !hasSub {
		s.put(main, value)
		return nil
	}
	st, ok := s.mains[main].(*Tree)
	if !ok {
		st = New()
		if err := st.Set(sub, value); err != nil {
			return err
		}
		s.put(main, st)
		return nil
	}
	return st.Set(sub, value)
}

// Get resolves tag. With a sub part and a main that matched several
// entries, the sub lookup is broadcast to each of them.
func (s *SuperTree) Get(tag string) (any, error) {
	main, sub, hasSub := SplitTag(tag)
	mv, err := s.lookupMain(main)
	if err != nil {
		return nil, err
	}
	if !hasSub {
		return mv, nil
	}

	switch m := mv.(type) {
	case *Tree:
		return m.Get(sub)
	case *Subtree:
		return broadcast(tag, m.All(), sub)
	}
	return nil, notFound(tag)
}

// lookupMain resolves a main: an exact entry first, then a glob over the
// dotted children of its prefix, then every main below it as a Subtree.
func (s *SuperTree) lookupMain(main string) (any, error) {
	if v, ok := s.mains[main]; ok {
		return v, nil
	}
	if hasGlob(main) {
		prefix, pattern, rest := splitGlob(main)
		children, err := matchChildren(pattern, s.children(prefix))
		if err != nil {
			return nil, err
		}
		var matches []match
		for _, child := range children {
			full := join(join(prefix, child), rest)
			v, err := s.lookupMain(full)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return nil, err
			}
			matches = append(matches, match{key: child, path: full, value: v})
		}
		return collapse(main, matches)
	}
	if below := s.below(main); len(below) > 0 {
		out := New()
		for _, k := range below {
			if err := out.Set(strings.TrimPrefix(k, main+Sep), s.mains[k]); err != nil {
				return nil, fmt.Errorf("collect %q: %w", main, err)
			}
		}
		return &Subtree{Tree: out}, nil
	}
	return nil, notFound(main)
}

// below returns the mains strictly under prefix, in insertion order.
func (s *SuperTree) below(prefix string) []string {
	var out []string
	for _, k := range s.keys() {
		if strings.HasPrefix(k, prefix+Sep) {
			out = append(out, k)
		}
	}
	return out
}

// children returns the distinct segments directly under prefix among the
// mains, sorted. The empty prefix lists first segments.
func (s *SuperTree) children(prefix string) []string {
	seen := make(map[string]struct{})
	for k := range s.mains {
		rest := k
		if prefix != "" {
			var ok bool
			if rest, ok = strings.CutPrefix(k, prefix+Sep); !ok {
				continue
			}
		}
		head, _, _ := strings.Cut(rest, Sep)
		seen[head] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func broadcast(tag string, entries iter.Seq2[string, any], sub string) (any, error) {
	var matches []match
	for key, v := range entries {
		st, ok := v.(*Tree)
		if !ok {
			continue
		}
		r, err := st.Get(sub)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		matches = append(matches, match{key: key, value: r})
	}
	return collapse(tag, matches)
}

// Delete removes tag. Removing the last entry of a sub-tree also removes
// its main. A main with no entry of its own removes every main below it.
func (s *SuperTree) Delete(tag string) error {
	main, sub, hasSub := SplitTag(tag)
	if !hasSub {
		if _, ok := s.mains[main]; ok {
			s.remove(main)
			return nil
		}
		below := s.below(main)
		if len(below) == 0 {
			return notFound(tag)
		}
		for _, k := range below {
			s.remove(k)
		}
		return nil
	}
	st, ok := s.mains[main].(*Tree)
	if !ok {
		return notFound(tag)
	}
	if err := st.Delete(sub); err != nil {
		return fmt.Errorf("%w: %q", ErrNotFound, tag)
	}
	if st.Len() == 0 {
		s.remove(main)
	}
	return nil
}

func (s *SuperTree) keys() []string {
	keys := make([]string, 0, len(s.mains))
	for k := range s.mains {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return int(s.seq[a]) - int(s.seq[b])
	})
	return keys
}

// All iterates over the mains in insertion order. A main with a sub part
// yields its *Tree.
func (s *SuperTree) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range s.keys() {
			v, ok := s.mains[k]
			if !ok {
				continue
			}
			if !yield(k, v) {
				return
			}
		}
	}
}

// Keys returns every stored tag in insertion order of their mains.
func (s *SuperTree) Keys() []string {
	var keys []string
	for main, v := range s.All() {
		st, ok := v.(*Tree)
		if !ok {
			keys = append(keys, main)
			continue
		}
		for _, sub := range st.Keys() {
			keys = append(keys, main+SubSep+sub)
		}
	}
	return keys
}

// Len returns the number of stored tags.
func (s *SuperTree) Len() int {
	n := 0
	for _, v := range s.mains {
		if st, ok := v.(*Tree); ok {
			n += st.Len()
			continue
		}
		n++
	}
	return n
}

// Clear removes every entry.
func (s *SuperTree) Clear() {
	*s = *NewSuperTree()
}
