package nstree

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var digitsRe = regexp.MustCompile(`\d+`)

// segmentKey orders a path segment by the last integer embedded in it.
type segmentKey struct {
	numbered bool
	num      int
	text     string
}

func keyOf(seg string) segmentKey {
	all := digitsRe.FindAllString(seg, -1)
	if len(all) == 0 {
		return segmentKey{text: seg}
	}
	n, err := strconv.Atoi(all[len(all)-1])
	if err != nil {
		return segmentKey{text: seg}
	}
	return segmentKey{numbered: true, num: n, text: seg}
}

func compareSegments(a, b string) int {
	ka, kb := keyOf(a), keyOf(b)
	switch {
	case ka.numbered && !kb.numbered:
		return -1
	case !ka.numbered && kb.numbered:
		return 1
	case ka.numbered && ka.num != kb.num:
		if ka.num < kb.num {
			return -1
		}
		return 1
	}
	return strings.Compare(ka.text, kb.text)
}

func comparePaths(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareSegments(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

type orderedLeaf struct {
	path  []string
	value any
}

// FlattenOrdered descends nested maps and trees and returns their leaf
// values ordered by the numeric key of each path segment, so that
// "maps.2" precedes "maps.10" and unnumbered segments like "maps.dq" come
// last. A value that is not a container is returned as a single element.
func FlattenOrdered(value any) []any {
	var leaves []orderedLeaf
	collectOrdered(nil, value, &leaves)
	slices.SortStableFunc(leaves, func(a, b orderedLeaf) int {
		return comparePaths(a.path, b.path)
	})
	out := make([]any, len(leaves))
	for i, l := range leaves {
		out[i] = l.value
	}
	return out
}

func collectOrdered(path []string, value any, leaves *[]orderedLeaf) {
	descend := func(key string, v any) {
		child := append(slices.Clone(path), strings.Split(key, Sep)...)
		collectOrdered(child, v, leaves)
	}
	switch v := value.(type) {
	case map[string]any:
		for k, child := range v {
			descend(k, child)
		}
	case *Tree:
		for k, child := range v.All() {
			descend(k, child)
		}
	case *Subtree:
		for k, child := range v.All() {
			descend(k, child)
		}
	case *Branch:
		for k, child := range v.All() {
			descend(k, child)
		}
	default:
		*leaves = append(*leaves, orderedLeaf{path: path, value: value})
	}
}
