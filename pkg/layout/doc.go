// Package layout turns linearized class hierarchies into a drawing plan.
//
// A [Plan] is independent of any rendering library: it lists one [Cluster]
// per module with a [Node] per class, the deduplicated inheritance [Edge]s and
// invisible [Hint] edges that keep clusters stacked in module order. Colors
// come from a keyword [Palette] and are purely cosmetic.
//
// Edges are taken from MROs, not from declared bases: each pair of
// consecutive MRO entries becomes an edge, except the final pair into the
// root, which would connect every class to it. Classes that failed to
// linearize are listed in [Plan.Excluded] and never drawn.
//
// Package render/dot turns a plan into Graphviz source and images.
package layout
