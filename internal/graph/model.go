// Package graph provides the directed graph primitives used by the food web model.
//
// It defines the edge type and the errors returned when a graph is built from
// inconsistent input.
package graph

import "errors"

var (
	// ErrNodeNotFound is returned when an edge or query references a node that
	// was never added.
	ErrNodeNotFound = errors.New("node not found")

	// ErrSelfLoop is returned when an edge would connect a node to itself.
	ErrSelfLoop = errors.New("self-loop not allowed")

	// ErrDuplicateEdge is returned when the same directed edge is added twice.
	ErrDuplicateEdge = errors.New("duplicate edge")
)

// Edge is a directed edge between two node IDs.
type Edge struct {
	// From is the ID of the source node.
	From string

	// To is the ID of the target node.
	To string
}
