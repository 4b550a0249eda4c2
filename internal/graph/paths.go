package graph

import "fmt"

// Paths returns every maximal simple path that starts at from and follows edge
// direction. A path stops at a node with no unvisited successors, or once it
// holds maxDepth edges when maxDepth is positive.
//
// Paths are produced depth-first in successor insertion order.
func (g *Digraph) Paths(from string, maxDepth int) ([][]string, error) {
	var paths [][]string
	err := g.WalkPaths(from, maxDepth, func(p []string) bool {
		paths = append(paths, p)
		return true
	})
	return paths, err
}

// WalkPaths calls yield with each path Paths would return, in the same order,
// and stops as soon as yield returns false. The number of paths can grow
// exponentially with the depth of dense graphs, so callers that only need some
// of them should stop early.
func (g *Digraph) WalkPaths(from string, maxDepth int, yield func([]string) bool) error {
	start, ok := g.index[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, from)
	}

	onPath := make([]bool, len(g.ids))
	path := []int{start}
	onPath[start] = true

	// walk reports false once yield asked to stop.
	var walk func(cur int) bool
	walk = func(cur int) bool {
		extended := false
		if maxDepth <= 0 || len(path)-1 < maxDepth {
			for _, n := range g.out[cur] {
				if onPath[n] {
					continue
				}
				extended = true
				onPath[n] = true
				path = append(path, n)
				more := walk(n)
				path = path[:len(path)-1]
				onPath[n] = false
				if !more {
					return false
				}
			}
		}
		if !extended {
			return yield(g.names(path))
		}
		return true
	}
	walk(start)

	return nil
}
