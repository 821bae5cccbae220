// Package dag provides a small directed graph with row (layer) assignments.
//
// # Overview
//
// supermro uses the graph in two places: the hierarchy package schedules
// parallel linearization in waves taken from the rows of the base-reference
// graph, and the layout package ranks nodes by inheritance depth. Both need
// deterministic iteration, so the graph keeps insertion order everywhere.
//
// # Basic Usage
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "models.Base"})
//	g.AddNode(dag.Node{ID: "models.User"})
//	g.AddEdge(dag.Edge{From: "models.Base", To: "models.User"})
//
// Edges point from a base to the class that derives from it, so sources are
// the classes that inherit only from the root. Use [transform.AssignLayers] to
// compute rows.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. Callers must synchronize
// access if multiple goroutines read or modify the same graph.
//
// [transform.AssignLayers]: github.com/matzehuels/supermro/pkg/dag/transform
package dag
