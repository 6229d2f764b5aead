package nstree

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(nested map[string]any) map[string]any {
	flat := make(map[string]any)
	for k, v := range Flatten(nested) {
		flat[k] = v
	}
	return flat
}

func TestFlatten_RoundTrip(t *testing.T) {
	testCases := []struct {
		name   string
		nested map[string]any
	}{
		{name: "empty", nested: map[string]any{}},
		{name: "flat scalars", nested: map[string]any{"a": 1, "b": "two", "c": true}},
		{
			name: "deep",
			nested: map[string]any{
				"spine": map[string]any{
					"ctrl": map[string]any{"0": "c0", "1": "c1"},
					"root": "r",
				},
				"mesh": "body_geo",
			},
		},
		{name: "empty nested map survives", nested: map[string]any{"a": map[string]any{}, "b": 2}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.nested, Rarefy(collect(tc.nested))); diff != "" {
				t.Errorf("rarefy(flatten(m)) mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRarefy_RoundTrip(t *testing.T) {
	flat := map[string]any{
		"maps.0":        "w0",
		"maps.1":        "w1",
		"maps.dq":       "dq",
		"deformer.name": "skin",
		"top":           3,
	}
	if diff := cmp.Diff(flat, collect(Rarefy(flat))); diff != "" {
		t.Errorf("flatten(rarefy(f)) mismatch (-want +got):\n%s", diff)
	}
}

func TestRarefy_PrefixCollisionKeepsDeeperPath(t *testing.T) {
	got := Rarefy(map[string]any{"a": 1, "a.b": 2})
	assert.Equal(t, map[string]any{"a": map[string]any{"b": 2}}, got)
}

func TestFlatten_IsRestartableAndDepthFirst(t *testing.T) {
	seq := Flatten(map[string]any{
		"b": map[string]any{"y": 2, "x": 1},
		"a": 0,
	})

	var first, second []string
	for k := range seq {
		first = append(first, k)
	}
	for k := range seq {
		second = append(second, k)
	}
	assert.Equal(t, []string{"a", "b.x", "b.y"}, first)
	assert.Equal(t, first, second)

	var stopped []string
	for k := range seq {
		stopped = append(stopped, k)
		break
	}
	require.Len(t, stopped, 1)
}

func TestFlattenOrdered(t *testing.T) {
	nested := map[string]any{
		"maps": map[string]any{
			"10": "w10",
			"2":  "w2",
			"0":  "w0",
			"dq": "dq",
			"1":  "w1",
		},
	}
	assert.Equal(t, []any{"w0", "w1", "w2", "w10", "dq"}, FlattenOrdered(nested))
}

func TestFlattenOrdered_UsesLastEmbeddedInteger(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Set("layer2_map9", "b"))
	require.NoError(t, tr.Set("layer9_map1", "a"))
	require.NoError(t, tr.Set("extra", "z"))
	require.NoError(t, tr.Set("alpha", "y"))

	assert.Equal(t, []any{"a", "b", "y", "z"}, FlattenOrdered(tr))
}

func TestFlattenOrdered_DescendsTreesAndScalars(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Set("maps.1", "w1"))
	require.NoError(t, tr.Set("maps.0", "w0"))
	assert.Equal(t, []any{"w0", "w1"}, FlattenOrdered(tr.Branch("maps")))
	assert.Equal(t, []any{"solo"}, FlattenOrdered("solo"))
}
