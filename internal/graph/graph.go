// Package graph provides an in-memory directed simple graph.
//
// Nodes are identified by string IDs and kept in insertion order. Successor and
// predecessor lists are indexed per node, so degree queries are O(1) and
// traversals scale with the number of edges. Every query that returns a list
// returns it in insertion order, which keeps reports and layouts deterministic.
package graph

import (
	"fmt"
)

// Digraph is a directed graph without self-loops or parallel edges.
//
// A Digraph is built with AddNode and AddEdge and is not safe for concurrent
// mutation. Once built it may be shared by any number of concurrent readers.
type Digraph struct {
	ids   []string
	index map[string]int

	// Adjacency indexes, kept in sync by AddEdge.
	out [][]int
	in  [][]int

	edges []Edge
}

// NewDigraph creates a new empty directed graph.
func NewDigraph() *Digraph {
	return &Digraph{
		index: make(map[string]int),
	}
}

// AddNode adds a node with the given ID. Adding an existing ID is a no-op.
func (g *Digraph) AddNode(id string) {
	if _, ok := g.index[id]; ok {
		return
	}
	g.index[id] = len(g.ids)
	g.ids = append(g.ids, id)
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
}

// AddEdge adds a directed edge from -> to. Both nodes must already exist.
func (g *Digraph) AddEdge(from, to string) error {
	if from == to {
		return fmt.Errorf("%w: %s -> %s", ErrSelfLoop, from, to)
	}

	fi, ok := g.index[from]
	if !ok {
		return fmt.Errorf("source %w: %s", ErrNodeNotFound, from)
	}
	ti, ok := g.index[to]
	if !ok {
		return fmt.Errorf("target %w: %s", ErrNodeNotFound, to)
	}

	for _, existing := range g.out[fi] {
		if existing == ti {
			return fmt.Errorf("%w: %s -> %s", ErrDuplicateEdge, from, to)
		}
	}

	g.out[fi] = append(g.out[fi], ti)
	g.in[ti] = append(g.in[ti], fi)
	g.edges = append(g.edges, Edge{From: from, To: to})
	return nil
}

// HasNode reports whether the node exists.
func (g *Digraph) HasNode(id string) bool {
	_, ok := g.index[id]
	return ok
}

// NodeCount returns the number of nodes.
func (g *Digraph) NodeCount() int {
	return len(g.ids)
}

// EdgeCount returns the number of edges.
func (g *Digraph) EdgeCount() int {
	return len(g.edges)
}

// Nodes returns all node IDs in insertion order.
func (g *Digraph) Nodes() []string {
	result := make([]string, len(g.ids))
	copy(result, g.ids)
	return result
}

// Edges returns all edges in insertion order.
func (g *Digraph) Edges() []Edge {
	result := make([]Edge, len(g.edges))
	copy(result, g.edges)
	return result
}

// Successors returns the targets of edges leaving the node.
func (g *Digraph) Successors(id string) ([]string, error) {
	i, ok := g.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return g.names(g.out[i]), nil
}

// Predecessors returns the sources of edges entering the node.
func (g *Digraph) Predecessors(id string) ([]string, error) {
	i, ok := g.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return g.names(g.in[i]), nil
}

// OutDegree returns the number of edges leaving the node.
func (g *Digraph) OutDegree(id string) (int, error) {
	i, ok := g.index[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return len(g.out[i]), nil
}

// InDegree returns the number of edges entering the node.
func (g *Digraph) InDegree(id string) (int, error) {
	i, ok := g.index[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return len(g.in[i]), nil
}

// Density returns m / (n(n-1)), the share of possible directed edges present.
// Graphs with fewer than two nodes have density 0.
func (g *Digraph) Density() float64 {
	n := len(g.ids)
	if n < 2 {
		return 0
	}
	return float64(len(g.edges)) / float64(n*(n-1))
}

// IsStronglyConnected reports whether every node reaches every other node
// following edge direction. The empty graph is not strongly connected.
//
// A graph is strongly connected iff some node reaches all nodes along
// outgoing edges and is reached by all nodes along incoming edges.
func (g *Digraph) IsStronglyConnected() bool {
	if len(g.ids) == 0 {
		return false
	}
	return g.reach(0, g.out, nil) == len(g.ids) && g.reach(0, g.in, nil) == len(g.ids)
}

// IsWeaklyConnected reports whether the graph is connected when edge direction
// is ignored. The empty graph is not weakly connected.
func (g *Digraph) IsWeaklyConnected() bool {
	if len(g.ids) == 0 {
		return false
	}
	return g.reach(0, g.out, g.in) == len(g.ids)
}

// Sources returns the nodes with in-degree 0, in insertion order.
func (g *Digraph) Sources() []string {
	var result []string
	for i, id := range g.ids {
		if len(g.in[i]) == 0 {
			result = append(result, id)
		}
	}
	return result
}

// Sinks returns the nodes with out-degree 0, in insertion order.
func (g *Digraph) Sinks() []string {
	var result []string
	for i, id := range g.ids {
		if len(g.out[i]) == 0 {
			result = append(result, id)
		}
	}
	return result
}

// reach counts the nodes reachable from start over the given adjacency lists.
// extra, when non-nil, is followed as well (used to ignore direction).
func (g *Digraph) reach(start int, adj, extra [][]int) int {
	visited := make([]bool, len(g.ids))
	visited[start] = true
	queue := []int{start}
	count := 1

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		next := adj[cur]
		if extra != nil {
			next = append(append([]int(nil), next...), extra[cur]...)
		}
		for _, n := range next {
			if !visited[n] {
				visited[n] = true
				count++
				queue = append(queue, n)
			}
		}
	}
	return count
}

func (g *Digraph) names(idx []int) []string {
	result := make([]string, len(idx))
	for i, n := range idx {
		result[i] = g.ids[n]
	}
	return result
}
