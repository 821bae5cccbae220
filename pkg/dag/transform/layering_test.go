package transform

import (
	"slices"
	"testing"

	"github.com/matzehuels/supermro/pkg/dag"
)

func build(t *testing.T, ids []string, edges [][2]string) *dag.DAG {
	t.Helper()
	g := dag.New(nil)
	for _, id := range ids {
		if err := g.AddNode(dag.Node{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(dag.Edge{From: e[0], To: e[1]}); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestAssignLayers(t *testing.T) {
	g := build(t,
		[]string{"A", "B", "C", "D", "E"},
		[][2]string{{"A", "B"}, {"A", "C"}, {"B", "D"}, {"C", "D"}, {"A", "D"}},
	)

	if unplaced := AssignLayers(g); unplaced != nil {
		t.Fatalf("AssignLayers() unplaced = %v, want nil", unplaced)
	}

	want := map[string]int{"A": 0, "B": 1, "C": 1, "D": 2, "E": 0}
	for id, row := range want {
		n, _ := g.Node(id)
		if n.Row != row {
			t.Errorf("row(%s) = %d, want %d", id, n.Row, row)
		}
	}
	if got := dag.NodeIDs(g.NodesInRow(0)); !slices.Equal(got, []string{"A", "E"}) {
		t.Errorf("NodesInRow(0) = %v, want [A E]", got)
	}
}

func TestAssignLayersCycle(t *testing.T) {
	// X ↔ Y form a cycle; Z depends on Y and is unreachable as well.
	g := build(t,
		[]string{"A", "X", "Y", "Z"},
		[][2]string{{"A", "X"}, {"X", "Y"}, {"Y", "X"}, {"Y", "Z"}},
	)

	unplaced := AssignLayers(g)
	if !slices.Equal(unplaced, []string{"X", "Y", "Z"}) {
		t.Errorf("AssignLayers() unplaced = %v, want [X Y Z]", unplaced)
	}
	if got := dag.NodeIDs(g.NodesInRow(0)); !slices.Contains(got, "A") {
		t.Errorf("NodesInRow(0) = %v, want A placed", got)
	}
}

func TestAssignLayersEmpty(t *testing.T) {
	if unplaced := AssignLayers(dag.New(nil)); unplaced != nil {
		t.Errorf("AssignLayers(empty) = %v, want nil", unplaced)
	}
}
