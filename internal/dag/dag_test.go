package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newChain builds vm.c -> vm.b -> vm.a plus an unrelated vm.x.
func newChain(t *testing.T) *Graph {
	t.Helper()
	g := New()
	for _, id := range []string{"vm.a", "vm.b", "vm.c", "vm.x"} {
		g.Add(id)
	}
	require.NoError(t, g.DependsOn("vm.b", "vm.a"))
	require.NoError(t, g.DependsOn("vm.c", "vm.b"))
	return g
}

func TestGraph_DependsOn(t *testing.T) {
	g := newChain(t)
	assert.Equal(t, 4, g.Len())
	assert.Equal(t, []string{"vm.a"}, g.Deps("vm.b"))
	assert.Equal(t, []string{"vm.c"}, g.Dependents("vm.b"))

	require.NoError(t, g.DependsOn("vm.b", "vm.a"), "duplicate edges are ignored")
	assert.Len(t, g.Dependents("vm.a"), 1)

	assert.Error(t, g.DependsOn("vm.a", "missing"))
	assert.Error(t, g.DependsOn("missing", "vm.a"))
}

func TestGraph_Levels(t *testing.T) {
	g := newChain(t)
	g.Add("vm.d")
	require.NoError(t, g.DependsOn("vm.d", "vm.a"))
	require.NoError(t, g.DependsOn("vm.d", "vm.c"))

	levels, err := g.Levels()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"vm.a", "vm.x"},
		{"vm.b"},
		{"vm.c"},
		{"vm.d"},
	}, levels)
}

func TestGraph_Cycle(t *testing.T) {
	tests := []struct {
		name  string
		edges [][2]string
		want  []string
	}{
		{
			name:  "acyclic",
			edges: [][2]string{{"b", "a"}, {"c", "b"}},
		},
		{
			name:  "self reference",
			edges: [][2]string{{"a", "a"}},
			want:  []string{"a", "a"},
		},
		{
			name:  "three nodes",
			edges: [][2]string{{"a", "c"}, {"b", "a"}, {"c", "b"}},
			want:  []string{"a", "c", "b", "a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			for _, e := range tt.edges {
				g.Add(e[0])
				g.Add(e[1])
			}
			for _, e := range tt.edges {
				require.NoError(t, g.DependsOn(e[0], e[1]))
			}
			assert.Equal(t, tt.want, g.Cycle())

			_, err := g.Levels()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			var ce *CycleError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.want, ce.Path)
			assert.Contains(t, err.Error(), "definition cycle: ")
		})
	}
}

func TestGraph_DownstreamUpstream(t *testing.T) {
	g := newChain(t)
	assert.Equal(t, []string{"vm.b", "vm.c"}, g.Downstream("vm.a"))
	assert.Equal(t, []string{"vm.c"}, g.Downstream("vm.a", "vm.b"))
	assert.Empty(t, g.Downstream("vm.x"))
	assert.Equal(t, []string{"vm.a", "vm.b"}, g.Upstream("vm.c"))
}

func TestGraph_Remove(t *testing.T) {
	g := newChain(t)
	g.Remove("vm.b")
	assert.False(t, g.Has("vm.b"))
	assert.Empty(t, g.Deps("vm.c"))
	assert.Empty(t, g.Dependents("vm.a"))
	assert.Equal(t, []string{"vm.a", "vm.c", "vm.x"}, g.Nodes())
}
