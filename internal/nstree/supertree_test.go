package nstree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuperTree_ScalarAndSub(t *testing.T) {
	st := NewSuperTree()
	require.NoError(t, st.Set("mesh", "body_geo"))
	require.NoError(t, st.Set("spine::mod.chain", "chain_grp"))
	require.NoError(t, st.Set("spine::mod.ctrl.0", "ctl_0"))

	v, err := st.Get("mesh")
	require.NoError(t, err)
	assert.Equal(t, "body_geo", v)

	v, err = st.Get("spine::mod.chain")
	require.NoError(t, err)
	assert.Equal(t, "chain_grp", v)

	v, err = st.Get("spine::mod.ctrl")
	require.NoError(t, err)
	assert.IsType(t, &Branch{}, v)

	v, err = st.Get("spine")
	require.NoError(t, err)
	assert.IsType(t, &Tree{}, v)

	_, err = st.Get("spine::mod.missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Get("mesh::sub")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"mesh", "spine::mod.chain", "spine::mod.ctrl.0"}, st.Keys())
	assert.Equal(t, 3, st.Len())
}

func TestSuperTree_MainIsScalarOrSubTree(t *testing.T) {
	st := NewSuperTree()
	require.NoError(t, st.Set("arm::mod.ik", "ik"))
	require.NoError(t, st.Set("arm", "scalar"))

	_, err := st.Get("arm::mod.ik")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Set("arm::mod.fk", "fk"))
	v, err := st.Get("arm")
	require.NoError(t, err)
	assert.IsType(t, &Tree{}, v, "a sub part replaces the scalar with a sub-tree")
}

func TestSuperTree_LegExample(t *testing.T) {
	st := NewSuperTree()
	require.NoError(t, st.Set("leg.L::j.1", "H1"))
	require.NoError(t, st.Set("leg.R::j.1", "H2"))

	v, err := st.Get("leg.L::j.1")
	require.NoError(t, err)
	assert.Equal(t, "H1", v)

	v, err = st.Get("leg.*::j.1")
	require.NoError(t, err)
	sub, ok := v.(*Subtree)
	require.True(t, ok, "expected a container, got %T", v)
	assert.Equal(t, 2, sub.Len())
	got, err := sub.Get("R")
	require.NoError(t, err)
	assert.Equal(t, "H2", got)

	require.NoError(t, st.Delete("leg.L::j.1"))
	_, err = st.Get("leg.L::j.1")
	assert.ErrorIs(t, err, ErrNotFound)

	v, err = st.Get("leg.*::j.1")
	require.NoError(t, err)
	assert.Equal(t, "H2", v, "a single broadcast hit is unwrapped")
}

func TestSuperTree_BroadcastOverBranchMain(t *testing.T) {
	st := NewSuperTree()
	require.NoError(t, st.Set("finger.index::mod.root", "i"))
	require.NoError(t, st.Set("finger.middle::mod.root", "m"))
	require.NoError(t, st.Set("finger.thumb::mod.tip", "t"))

	v, err := st.Get("finger::mod.root")
	require.NoError(t, err)
	sub, ok := v.(*Subtree)
	require.True(t, ok, "got %T", v)
	assert.Equal(t, []string{"index", "middle"}, sub.Keys())

	_, err = st.Get("finger::mod.none")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSuperTree_DeleteLastSubRemovesMain(t *testing.T) {
	st := NewSuperTree()
	require.NoError(t, st.Set("neck::mod.ctrl", "c"))
	require.NoError(t, st.Delete("neck::mod.ctrl"))
	_, err := st.Get("neck")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, st.Delete("neck::mod.ctrl"), ErrNotFound)
	assert.ErrorIs(t, st.Delete("neck"), ErrNotFound)

	require.NoError(t, st.Set("head", "h"))
	st.Clear()
	assert.Equal(t, 0, st.Len())
}

func TestSuperTree_SiblingMainsAreIndependent(t *testing.T) {
	st := NewSuperTree()
	require.NoError(t, st.Set("arm::mod.ik", "ik"))
	require.NoError(t, st.Set("arm.L::j.1", "L1"))
	require.NoError(t, st.Set("arm.R::j.1", "R1"))
	require.NoError(t, st.Set("arm::mod.fk", "fk"))
	require.NoError(t, st.Set("leg", "leg_grp"))
	require.NoError(t, st.Set("leg.L::j.1", "legL1"))

	for tag, expected := range map[string]any{
		"arm::mod.ik": "ik",
		"arm::mod.fk": "fk",
		"arm.L::j.1":  "L1",
		"arm.R::j.1":  "R1",
		"leg":         "leg_grp",
		"leg.L::j.1":  "legL1",
	} {
		v, err := st.Get(tag)
		require.NoError(t, err, tag)
		assert.Equal(t, expected, v, tag)
	}
	assert.Equal(t, 6, st.Len())

	v, err := st.Get("arm.*::j.1")
	require.NoError(t, err)
	sub, ok := v.(*Subtree)
	require.True(t, ok, "got %T", v)
	assert.Equal(t, []string{"L", "R"}, sub.Keys())

	require.NoError(t, st.Delete("arm::mod.ik"))
	require.NoError(t, st.Delete("arm::mod.fk"))
	v, err = st.Get("arm.L::j.1")
	require.NoError(t, err, "removing a main keeps the mains below it")
	assert.Equal(t, "L1", v)

	require.NoError(t, st.Delete("arm"))
	_, err = st.Get("arm.R::j.1")
	assert.ErrorIs(t, err, ErrNotFound, "deleting a bare prefix clears the mains below it")
}
