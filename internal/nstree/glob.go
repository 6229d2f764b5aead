package nstree

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const globChars = "*?["

type match struct {
	key   string // matched child name
	path  string // full path of the match in the owning tree
	value any
}

func hasGlob(path string) bool {
	return strings.ContainsAny(path, globChars)
}

// splitGlob splits path around its first glob segment.
func splitGlob(path string) (prefix, pattern, rest string) {
	segs := strings.Split(path, Sep)
	at := slices.IndexFunc(segs, hasGlob)
	return strings.Join(segs[:at], Sep), segs[at], strings.Join(segs[at+1:], Sep)
}

// segmentPattern prepares a glob segment for doublestar. "**" would be
// recursive there; a segment never spans levels.
func segmentPattern(pattern string) (string, error) {
	for strings.Contains(pattern, "**") {
		pattern = strings.ReplaceAll(pattern, "**", "*")
	}
	if !doublestar.ValidatePattern(pattern) {
		return "", fmt.Errorf("%w: %q", ErrBadPattern, pattern)
	}
	return pattern, nil
}

// matchChildren returns the names in children matching pattern, in order.
func matchChildren(pattern string, children []string) ([]string, error) {
	pattern, err := segmentPattern(pattern)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, child := range children {
		ok, err := doublestar.Match(pattern, child)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrBadPattern, pattern, err)
		}
		if ok {
			out = append(out, child)
		}
	}
	return out, nil
}

// glob matches the first glob segment of path against the immediate
// children of the prefix before it. Segments after the glob are resolved
// below every match.
func (t *Tree) glob(path string) ([]match, error) {
	prefix, pattern, rest := splitGlob(path)
	children, err := matchChildren(pattern, t.Children(prefix))
	if err != nil {
		return nil, err
	}

	var matches []match
	for _, child := range children {
		full := join(join(prefix, child), rest)
		v, err := t.Get(full)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		matches = append(matches, match{key: child, path: full, value: v})
	}
	return matches, nil
}

// collapse applies the glob cardinality rule: none is not found, one is the
// bare value, several are a Subtree keyed by matched child.
func collapse(path string, matches []match) (any, error) {
	switch len(matches) {
	case 0:
		return nil, notFound(path)
	case 1:
		return matches[0].value, nil
	}
	out := New()
	for _, m := range matches {
		if err := out.Set(m.key, m.value); err != nil {
			return nil, err
		}
	}
	return &Subtree{Tree: out}, nil
}
