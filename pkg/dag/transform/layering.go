package transform

import "github.com/matzehuels/supermro/pkg/dag"

// AssignLayers assigns nodes to horizontal rows (layers) based on their depth
// in the graph and returns the IDs of nodes it could not place.
//
// AssignLayers uses a longest-path algorithm via topological sort (Kahn's
// algorithm). Each node is placed at one plus the maximum row of any of its
// parents, ensuring that:
//   - Source nodes (no incoming edges) are at row 0
//   - All parents are strictly above their children
//
// Existing row assignments of placed nodes are overwritten.
//
// # Cycles
//
// Nodes in a cycle never reach zero in-degree, and neither does anything
// downstream of one. Those nodes keep their previous row and are returned in
// insertion order. A nil result means the whole graph was layered.
//
// # Performance
//
// Time complexity is O(V + E), where V is nodes and E is edges.
func AssignLayers(g *dag.DAG) []string {
	nodes := g.Nodes()
	inDegree := make(map[string]int, len(nodes))
	rows := make(map[string]int, len(nodes))
	queue := make([]string, 0, len(nodes))

	for _, n := range nodes {
		degree := g.InDegree(n.ID)
		inDegree[n.ID] = degree
		if degree == 0 {
			queue = append(queue, n.ID)
			rows[n.ID] = 0
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, child := range g.Children(curr) {
			if row := rows[curr] + 1; row > rows[child] {
				rows[child] = row
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	var unplaced []string
	for _, n := range nodes {
		if inDegree[n.ID] > 0 {
			unplaced = append(unplaced, n.ID)
			delete(rows, n.ID)
		}
	}

	g.SetRows(rows)
	return unplaced
}
