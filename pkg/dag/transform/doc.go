// Package transform provides graph transformations over [dag.DAG].
//
// # Layer Assignment
//
// [AssignLayers] places every node one row below the deepest of its parents
// using a longest-path topological traversal. On a base-reference graph
// (edges from a base to the class that derives from it) the resulting row is
// the inheritance depth of the class, and every row only depends on rows
// above it. The hierarchy package uses the rows as parallel work waves and
// the layout package uses them as node ranks.
//
// Nodes that sit on a cycle, or that can only be reached through one, never
// become ready and are returned to the caller instead of being given a row.
//
// [dag.DAG]: github.com/matzehuels/supermro/pkg/dag
package transform
