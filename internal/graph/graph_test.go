package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopoSortDependenciesFirst(t *testing.T) {
	g := New[string]()
	top := g.AddNode("top")
	mid := g.AddNode("mid")
	leaf := g.AddNode("leaf")
	g.AddEdge(top, mid)
	g.AddEdge(mid, leaf)
	g.AddEdge(top, leaf)

	order, err := g.TopoSort([]NodeId{top, mid, leaf})
	require.NoError(t, err)
	assert.Equal(t, []NodeId{leaf, mid, top}, order)
}

func TestTopoSortTieBreakIsStable(t *testing.T) {
	g := New[int]()
	var ids []NodeId
	for i := 0; i < 5; i++ {
		ids = append(ids, g.AddNode(i))
	}
	// no edges: pure tie-break
	order, err := g.TopoSort(ids)
	require.NoError(t, err)
	assert.Equal(t, ids, order)

	reversed, err := g.TopoSortFunc(ids, func(a, b NodeId) bool { return a > b })
	require.NoError(t, err)
	assert.Equal(t, []NodeId{4, 3, 2, 1, 0}, reversed)
}

func TestTopoSortDetectsCycle(t *testing.T) {
	g := New[string]()
	a := g.AddNode("a")
	b := g.AddNode("b")
	g.AddEdge(a, b)
	g.AddEdge(b, a)
	_, err := g.TopoSort([]NodeId{a, b})
	assert.Error(t, err)
}

func TestReachable(t *testing.T) {
	g := New[string]()
	a := g.AddNode("a")
	b := g.AddNode("b")
	c := g.AddNode("c")
	d := g.AddNode("d")
	g.AddEdge(a, b)
	g.AddEdge(b, c)

	reach := g.Reachable([]NodeId{a})
	assert.Equal(t, []NodeId{a, b, c}, reach)
	assert.NotContains(t, reach, d)
}

func TestRootsAndEdgeDeduplication(t *testing.T) {
	g := New[string]()
	a := g.AddNode("a")
	b := g.AddNode("b")
	g.AddEdge(a, b)
	g.AddEdge(a, b)
	g.AddEdge(a, a)

	assert.Equal(t, []NodeId{b}, g.Successors(a))
	assert.Equal(t, []NodeId{a}, g.Predecessors(b))
	assert.Equal(t, []NodeId{a}, g.Roots())
}
