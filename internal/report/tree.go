package report

import (
	"fmt"
	"strings"

	"github.com/vk/rigbuild/internal/nstree"
	"github.com/vk/rigbuild/internal/registry"
	"github.com/xlab/treeprint"
)

// NamespaceTree renders every asset of reg as a tree: one branch per
// asset, per main and per path segment, with leaves showing their handle.
func NamespaceTree(reg *registry.Registry) string {
	root := treeprint.NewWithRoot("registry")
	for _, asset := range reg.Assets() {
		branch := root.AddBranch(asset)
		addMains(branch, reg.Tree(asset))
	}
	return root.String()
}

func addMains(parent treeprint.Tree, st *nstree.SuperTree) {
	nodes := map[string]treeprint.Tree{}
	for main, v := range st.All() {
		if sub, ok := v.(*nstree.Tree); ok {
			b := branchFor(parent, nodes, main)
			addPaths(b.AddBranch(nstree.SubSep), sub)
			continue
		}
		addLeaf(parent, nodes, main, v)
	}
}

func addPaths(parent treeprint.Tree, t *nstree.Tree) {
	nodes := map[string]treeprint.Tree{}
	for path, v := range t.All() {
		addLeaf(parent, nodes, path, v)
	}
}

func addLeaf(parent treeprint.Tree, nodes map[string]treeprint.Tree, path string, v any) {
	dir, name := "", path
	if i := strings.LastIndex(path, nstree.Sep); i >= 0 {
		dir, name = path[:i], path[i+1:]
	}
	if dir != "" {
		parent = branchFor(parent, nodes, dir)
	}
	parent.AddMetaNode(fmt.Sprint(v), name)
}

// branchFor returns the branch for a dotted path, creating one branch per
// missing segment.
func branchFor(parent treeprint.Tree, nodes map[string]treeprint.Tree, path string) treeprint.Tree {
	if b, ok := nodes[path]; ok {
		return b
	}
	dir, name := "", path
	if i := strings.LastIndex(path, nstree.Sep); i >= 0 {
		dir, name = path[:i], path[i+1:]
	}
	if dir != "" {
		parent = branchFor(parent, nodes, dir)
	}
	b := parent.AddBranch(name)
	nodes[path] = b
	return b
}
