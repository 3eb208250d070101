// Package dag provides a lag-weighted directed acyclic graph for modeling
// activity networks. It supports deterministic topological sorting, cycle
// detection that reports the offending cycle, and predecessor/successor
// queries. Iteration order always follows node insertion order so that
// results are reproducible for identical input.
package dag

import (
	"errors"
	"fmt"
	"sort"
)

// ErrCycle is returned when the graph contains a dependency cycle.
var ErrCycle = errors.New("cycle detected")

// ErrNodeNotFound is returned when an operation references a non-existent node.
var ErrNodeNotFound = errors.New("node not found")

// ErrDuplicateNode is returned when adding a node that already exists.
var ErrDuplicateNode = errors.New("duplicate node")

// ErrSelfEdge is returned when an edge would create a self-loop.
var ErrSelfEdge = errors.New("self-referencing edge")

// Edge is a finish-to-start constraint between two nodes. From must finish
// before To may start, offset by Lag units (negative for a lead).
type Edge struct {
	From string
	To   string
	Lag  int
}

// Graph is a directed graph whose edges point from a predecessor to its
// successor. Both directions are indexed so that forward and backward
// traversals are equally cheap.
type Graph struct {
	order []string
	index map[string]int
	// preds maps nodeID → predecessor ID → lag.
	preds map[string]map[string]int
	// succs maps nodeID → successor ID → lag.
	succs map[string]map[string]int
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		index: make(map[string]int),
		preds: make(map[string]map[string]int),
		succs: make(map[string]map[string]int),
	}
}

// AddNode appends a node. Returns ErrDuplicateNode if the ID is taken.
func (g *Graph) AddNode(id string) error {
	if _, exists := g.index[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}
	g.index[id] = len(g.order)
	g.order = append(g.order, id)
	g.preds[id] = make(map[string]int)
	g.succs[id] = make(map[string]int)
	return nil
}

// AddEdge records that from must precede to with the given lag. Both nodes
// must exist. Adding an edge that already exists keeps the larger lag,
// since that is the binding constraint. Cycles are not checked here; call
// FindCycle once the graph is complete.
func (g *Graph) AddEdge(from, to string, lag int) error {
	if from == to {
		return fmt.Errorf("%w: %s", ErrSelfEdge, from)
	}
	if _, ok := g.index[from]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, from)
	}
	if _, ok := g.index[to]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, to)
	}
	if prev, ok := g.preds[to][from]; ok && prev >= lag {
		return nil
	}
	g.preds[to][from] = lag
	g.succs[from][to] = lag
	return nil
}

// Has reports whether a node with the given ID exists.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Nodes returns all node IDs in insertion order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.order)
}

// Predecessors returns the incoming edges of id, ordered by the insertion
// order of the predecessor nodes.
func (g *Graph) Predecessors(id string) []Edge {
	edges := make([]Edge, 0, len(g.preds[id]))
	for from, lag := range g.preds[id] {
		edges = append(edges, Edge{From: from, To: id, Lag: lag})
	}
	sort.Slice(edges, func(i, j int) bool {
		return g.index[edges[i].From] < g.index[edges[j].From]
	})
	return edges
}

// Successors returns the outgoing edges of id, ordered by the insertion
// order of the successor nodes.
func (g *Graph) Successors(id string) []Edge {
	edges := make([]Edge, 0, len(g.succs[id]))
	for to, lag := range g.succs[id] {
		edges = append(edges, Edge{From: id, To: to, Lag: lag})
	}
	sort.Slice(edges, func(i, j int) bool {
		return g.index[edges[i].To] < g.index[edges[j].To]
	})
	return edges
}

// Sources returns the nodes without predecessors, in insertion order.
func (g *Graph) Sources() []string {
	var out []string
	for _, id := range g.order {
		if len(g.preds[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Sinks returns the nodes without successors, in insertion order.
func (g *Graph) Sinks() []string {
	var out []string
	for _, id := range g.order {
		if len(g.succs[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// IsSink reports whether id has no successors.
func (g *Graph) IsSink(id string) bool {
	return len(g.succs[id]) == 0
}

// TopologicalSort returns node IDs in a valid topological order
// (predecessors come before successors) using Kahn's algorithm. Among
// nodes that become ready together, insertion order wins. Returns ErrCycle
// if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]string, error) {
	inDegree := make(map[string]int, len(g.order))
	var queue []string
	for _, id := range g.order {
		inDegree[id] = len(g.preds[id])
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	sorted := make([]string, 0, len(g.order))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		sorted = append(sorted, id)

		var freed []string
		for _, e := range g.Successors(id) {
			inDegree[e.To]--
			if inDegree[e.To] == 0 {
				freed = append(freed, e.To)
			}
		}
		queue = g.mergeReady(queue, freed)
	}

	if len(sorted) != len(g.order) {
		return nil, fmt.Errorf("%w: not all nodes could be ordered (%d of %d)",
			ErrCycle, len(sorted), len(g.order))
	}
	return sorted, nil
}

// FindCycle runs a three-colour depth-first search and returns the first
// cycle found as a path whose first and last elements are the same node,
// e.g. [A B C A]. Returns nil when the graph is acyclic.
func (g *Graph) FindCycle() []string {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(g.order))
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		color[id] = grey
		stack = append(stack, id)
		for _, e := range g.Successors(id) {
			switch color[e.To] {
			case grey:
				// Back edge: the cycle is the stack suffix starting at e.To.
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == e.To {
						cycle := make([]string, 0, len(stack)-i+1)
						cycle = append(cycle, stack[i:]...)
						return append(cycle, e.To)
					}
				}
			case white:
				if cycle := visit(e.To); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return nil
	}

	for _, id := range g.order {
		if color[id] != white {
			continue
		}
		if cycle := visit(id); cycle != nil {
			return cycle
		}
	}
	return nil
}

// mergeReady appends freed nodes to the queue, keeping them in insertion
// order relative to each other.
func (g *Graph) mergeReady(queue, freed []string) []string {
	if len(freed) > 1 {
		sort.Slice(freed, func(i, j int) bool {
			return g.index[freed[i]] < g.index[freed[j]]
		})
	}
	return append(queue, freed...)
}
