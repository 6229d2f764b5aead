package nstree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTree_SetAndGet(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Set("spine.ctrl.0", "ctl_0"))
	require.NoError(t, tr.Set("spine.ctrl.1", "ctl_1"))

	v, err := tr.Get("spine.ctrl.0")
	require.NoError(t, err)
	assert.Equal(t, "ctl_0", v)

	v, err = tr.Get("spine.ctrl")
	require.NoError(t, err)
	b, ok := v.(*Branch)
	require.True(t, ok, "branch prefix should yield a *Branch, got %T", v)
	assert.Equal(t, "spine.ctrl", b.Prefix())
	assert.Equal(t, []string{"0", "1"}, b.Keys())

	_, err = tr.Get("spine.missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTree_InvalidPaths(t *testing.T) {
	testCases := []string{"", "a..b", ".a", "a."}
	for _, path := range testCases {
		t.Run(path, func(t *testing.T) {
			assert.ErrorIs(t, New().Set(path, 1), ErrInvalidPath)
		})
	}
}

func TestTree_BranchReplacement(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Set("p.a", 1))
	require.NoError(t, tr.Set("p.b", 2))
	require.NoError(t, tr.Set("q", 3))

	require.NoError(t, tr.Set("p", "leaf"))

	_, err := tr.Get("p.a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = tr.Get("p.b")
	assert.ErrorIs(t, err, ErrNotFound)

	v, err := tr.Get("p")
	require.NoError(t, err)
	assert.Equal(t, "leaf", v)
	assert.False(t, tr.IsBranch("p"))
	assert.Equal(t, 2, tr.Len())
}

func TestTree_LeafBecomesBranchRoot(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Set("arm", "old"))
	require.NoError(t, tr.Set("arm.L", "new"))

	assert.False(t, tr.IsLeaf("arm"))
	assert.True(t, tr.IsBranch("arm"))
	v, err := tr.Get("arm.L")
	require.NoError(t, err)
	assert.Equal(t, "new", v)
	assert.Equal(t, []string{"arm.L"}, tr.Keys())
}

func TestTree_GlobCardinality(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Set("a.x", 1))
	require.NoError(t, tr.Set("a.y", 2))
	require.NoError(t, tr.Set("b.x", 3))
	require.NoError(t, tr.Set("c.only", 4))

	t.Run("zero matches", func(t *testing.T) {
		_, err := tr.Get("a.z*")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("one match is unwrapped", func(t *testing.T) {
		v, err := tr.Get("c.*")
		require.NoError(t, err)
		assert.Equal(t, 4, v)
	})

	t.Run("several matches are a subtree", func(t *testing.T) {
		v, err := tr.Get("a.*")
		require.NoError(t, err)
		sub, ok := v.(*Subtree)
		require.True(t, ok, "expected *Subtree, got %T", v)
		assert.Equal(t, []string{"x", "y"}, sub.Keys())
		x, err := sub.Get("x")
		require.NoError(t, err)
		assert.Equal(t, 1, x)
	})

	t.Run("glob with trailing segments", func(t *testing.T) {
		v, err := tr.Get("*.x")
		require.NoError(t, err)
		sub, ok := v.(*Subtree)
		require.True(t, ok)
		assert.Equal(t, 2, sub.Len())
	})
}

// A glob segment never reaches past the level it sits on.
func TestTree_GlobIsSingleLevel(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Set("a.b.c", 1))

	v, err := tr.Get("a.*")
	require.NoError(t, err)
	b, ok := v.(*Branch)
	require.True(t, ok, "a.* should match the branch a.b, not the leaf a.b.c; got %T", v)
	assert.Equal(t, "a.b", b.Prefix())

	v, err = tr.Get("a.**")
	require.NoError(t, err)
	_, ok = v.(*Branch)
	assert.True(t, ok, "** must not recurse")

	_, err = tr.Get("*.c")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTree_BadPattern(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Set("a.b", 1))
	_, err := tr.Get("a.[")
	assert.ErrorIs(t, err, ErrBadPattern)
}

func TestTree_Delete(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Set("leg.L.knee", 1))
	require.NoError(t, tr.Set("leg.L.ankle", 2))
	require.NoError(t, tr.Set("leg.R.knee", 3))

	require.NoError(t, tr.Delete("leg.L.knee"))
	assert.True(t, tr.IsBranch("leg.L"))
	assert.Equal(t, []string{"L", "R"}, tr.Children("leg"))

	require.NoError(t, tr.Delete("leg.L.ankle"))
	assert.False(t, tr.Has("leg.L"), "empty prefixes are dropped from the index")
	assert.Equal(t, []string{"R"}, tr.Children("leg"))

	require.NoError(t, tr.Delete("leg"))
	assert.Equal(t, 0, tr.Len())
	assert.Empty(t, tr.Children(""))

	assert.ErrorIs(t, tr.Delete("leg"), ErrNotFound)
}

func TestTree_PopMaterializesBranch(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Set("arm.L.0", "a"))
	require.NoError(t, tr.Set("arm.L.1", "b"))

	v, err := tr.Pop("arm.L")
	require.NoError(t, err)
	detached, ok := v.(*Tree)
	require.True(t, ok, "popped branch should be a detached *Tree, got %T", v)

	assert.False(t, tr.Has("arm.L"))
	assert.Equal(t, 2, detached.Len())
	got, err := detached.Get("1")
	require.NoError(t, err)
	assert.Equal(t, "b", got)
}

func TestTree_PopLeafAndGlob(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Set("x.a", 1))
	require.NoError(t, tr.Set("x.b", 2))
	require.NoError(t, tr.Set("y", 3))

	v, err := tr.Pop("y")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.False(t, tr.Has("y"))

	v, err = tr.Pop("x.*")
	require.NoError(t, err)
	sub, ok := v.(*Subtree)
	require.True(t, ok)
	assert.Equal(t, 2, sub.Len())
	assert.Equal(t, 0, tr.Len())

	_, err = tr.Pop("y")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBranch_IsLiveView(t *testing.T) {
	tr := New()
	b := tr.Branch("face")
	assert.Equal(t, 0, b.Len())

	require.NoError(t, b.Set("jaw", "jaw_jnt"))
	require.NoError(t, tr.Set("face.brow.L", "brow_L"))

	v, err := tr.Get("face.jaw")
	require.NoError(t, err)
	assert.Equal(t, "jaw_jnt", v)
	assert.Equal(t, []string{"jaw", "brow.L"}, b.Keys())
	assert.Equal(t, []string{"brow", "jaw"}, b.Children())

	nested := b.Branch("brow")
	v, err = nested.Get("L")
	require.NoError(t, err)
	assert.Equal(t, "brow_L", v)

	require.NoError(t, b.Delete("jaw"))
	assert.False(t, tr.Has("face.jaw"))

	snapshot := b.Materialize()
	require.NoError(t, tr.Set("face.brow.R", "brow_R"))
	assert.Equal(t, 1, snapshot.Len(), "materialized copies do not follow the owner")
	assert.Equal(t, 2, b.Len())
}

func TestTree_KeysKeepInsertionOrder(t *testing.T) {
	tr := New()
	for _, k := range []string{"z", "a.b", "m", "a.a"} {
		require.NoError(t, tr.Set(k, k))
	}
	require.NoError(t, tr.Set("z", "again"))
	assert.Equal(t, []string{"z", "a.b", "m", "a.a"}, tr.Keys())

	var seen []string
	for k := range tr.All() {
		seen = append(seen, k)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"z", "a.b"}, seen)
}

func TestTree_UpdateAndNested(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Update("out", map[string]any{
		"joints": map[string]any{"0": "j0", "1": "j1"},
		"root":   "r",
	}))
	assert.ElementsMatch(t, []string{"out.joints.0", "out.joints.1", "out.root"}, tr.Keys())

	assert.Equal(t, map[string]any{
		"out": map[string]any{
			"joints": map[string]any{"0": "j0", "1": "j1"},
			"root":   "r",
		},
	}, tr.Nested())

	clone := tr.Clone()
	tr.Clear()
	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, 3, clone.Len())
}
