// Package graph provides a small arena-backed directed graph with integer
// handles. Nodes are appended once and addressed by dense ids, which keeps
// cross-IP unit graphs cheap and makes traversal order deterministic.
package graph

import (
	"fmt"
	"sort"
)

// NodeId is a dense handle into a graph's node arena.
type NodeId int

// InvalidNode is returned by lookups that find nothing.
const InvalidNode NodeId = -1

// Graph is a directed graph over values of type T. An edge u -> v reads
// "u depends on v".
type Graph[T any] struct {
	nodes []T
	succ  [][]NodeId
	pred  [][]NodeId
}

// New returns an empty graph.
func New[T any]() *Graph[T] {
	return &Graph[T]{}
}

// AddNode appends a node and returns its handle.
func (g *Graph[T]) AddNode(value T) NodeId {
	g.nodes = append(g.nodes, value)
	g.succ = append(g.succ, nil)
	g.pred = append(g.pred, nil)
	return NodeId(len(g.nodes) - 1)
}

// AddEdge records "from depends on to". Duplicate and self edges are
// ignored.
func (g *Graph[T]) AddEdge(from, to NodeId) {
	if from == to {
		return
	}
	for _, existing := range g.succ[from] {
		if existing == to {
			return
		}
	}
	g.succ[from] = append(g.succ[from], to)
	g.pred[to] = append(g.pred[to], from)
}

// Len returns the node count.
func (g *Graph[T]) Len() int { return len(g.nodes) }

// Node returns the value at id.
func (g *Graph[T]) Node(id NodeId) T { return g.nodes[id] }

// Successors returns the ids the node depends on.
func (g *Graph[T]) Successors(id NodeId) []NodeId { return g.succ[id] }

// Predecessors returns the ids depending on the node.
func (g *Graph[T]) Predecessors(id NodeId) []NodeId { return g.pred[id] }

// Roots returns nodes with no predecessors, ascending.
func (g *Graph[T]) Roots() []NodeId {
	var roots []NodeId
	for id := range g.nodes {
		if len(g.pred[id]) == 0 {
			roots = append(roots, NodeId(id))
		}
	}
	return roots
}

// Reachable returns the set reachable from roots (roots included),
// ascending.
func (g *Graph[T]) Reachable(roots []NodeId) []NodeId {
	seen := make(map[NodeId]bool, len(g.nodes))
	stack := append([]NodeId(nil), roots...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		stack = append(stack, g.succ[id]...)
	}
	out := make([]NodeId, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TopoSort orders the given nodes dependencies-first with ascending
// NodeId as the tie-break.
func (g *Graph[T]) TopoSort(ids []NodeId) ([]NodeId, error) {
	return g.TopoSortFunc(ids, func(a, b NodeId) bool { return a < b })
}

// TopoSortFunc orders the given nodes dependencies-first: for every edge
// u -> v with both endpoints in the set, v precedes u. Nodes that become
// ready together are emitted in the order defined by less, so callers
// control the tie-break and the result is reproducible. Returns an error
// when the subgraph is cyclic.
func (g *Graph[T]) TopoSortFunc(ids []NodeId, less func(a, b NodeId) bool) ([]NodeId, error) {
	inSet := make(map[NodeId]bool, len(ids))
	for _, id := range ids {
		inSet[id] = true
	}
	// remaining dependency count per node within the set
	remaining := make(map[NodeId]int, len(ids))
	for _, id := range ids {
		count := 0
		for _, dep := range g.succ[id] {
			if inSet[dep] {
				count++
			}
		}
		remaining[id] = count
	}

	ready := make([]NodeId, 0, len(ids))
	for _, id := range ids {
		if remaining[id] == 0 {
			ready = append(ready, id)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return less(ready[i], ready[j]) })

	order := make([]NodeId, 0, len(ids))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		var unlocked []NodeId
		for _, user := range g.pred[id] {
			if !inSet[user] {
				continue
			}
			remaining[user]--
			if remaining[user] == 0 {
				unlocked = append(unlocked, user)
			}
		}
		if len(unlocked) > 0 {
			ready = append(ready, unlocked...)
			sort.Slice(ready, func(i, j int) bool { return less(ready[i], ready[j]) })
		}
	}
	if len(order) != len(ids) {
		return nil, fmt.Errorf("dependency cycle among %d design units", len(ids)-len(order))
	}
	return order, nil
}
