package dag

import (
	"errors"
	"slices"
	"testing"
)

func TestAddNode(t *testing.T) {
	g := New(nil)

	if err := g.AddNode(Node{ID: ""}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(empty) = %v, want %v", err, ErrInvalidNodeID)
	}
	if err := g.AddNode(Node{ID: "a"}); err != nil {
		t.Fatalf("AddNode(a) = %v", err)
	}
	if err := g.AddNode(Node{ID: "a"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(a) twice = %v, want %v", err, ErrDuplicateNodeID)
	}

	n, ok := g.Node("a")
	if !ok {
		t.Fatal("Node(a) not found")
	}
	if n.Meta == nil {
		t.Error("Meta should be initialized")
	}
}

func TestAddEdge(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: "a"})
	_ = g.AddNode(Node{ID: "b"})

	tests := []struct {
		name string
		edge Edge
		want error
	}{
		{"valid", Edge{From: "a", To: "b"}, nil},
		{"unknown source", Edge{From: "x", To: "b"}, ErrUnknownSourceNode},
		{"unknown target", Edge{From: "a", To: "x"}, ErrUnknownTargetNode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.AddEdge(tt.edge); !errors.Is(err, tt.want) {
				t.Errorf("AddEdge() = %v, want %v", err, tt.want)
			}
		})
	}

	if !g.HasEdge("a", "b") {
		t.Error("HasEdge(a, b) = false, want true")
	}
	if g.HasEdge("b", "a") {
		t.Error("HasEdge(b, a) = true, want false")
	}
}

func TestInsertionOrder(t *testing.T) {
	g := New(nil)
	ids := []string{"z", "m", "a", "q"}
	for _, id := range ids {
		_ = g.AddNode(Node{ID: id})
	}

	if got := NodeIDs(g.Nodes()); !slices.Equal(got, ids) {
		t.Errorf("Nodes() = %v, want %v", got, ids)
	}

	g.SetRows(map[string]int{"m": 1, "q": 1})
	if got := NodeIDs(g.NodesInRow(0)); !slices.Equal(got, []string{"z", "a"}) {
		t.Errorf("NodesInRow(0) = %v, want [z a]", got)
	}
	if got := NodeIDs(g.NodesInRow(1)); !slices.Equal(got, []string{"m", "q"}) {
		t.Errorf("NodesInRow(1) = %v, want [m q]", got)
	}
	if got := g.MaxRow(); got != 1 {
		t.Errorf("MaxRow() = %d, want 1", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edges [][2]string
		want  error
	}{
		{"empty", nil, nil},
		{"chain", [][2]string{{"a", "b"}, {"b", "c"}}, nil},
		{"diamond", [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}}, nil},
		{"cycle", [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}}, ErrGraphHasCycle},
		{"self loop", [][2]string{{"a", "a"}}, ErrGraphHasCycle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(nil)
			for _, id := range []string{"a", "b", "c", "d"} {
				_ = g.AddNode(Node{ID: id})
			}
			for _, e := range tt.edges {
				_ = g.AddEdge(Edge{From: e[0], To: e[1]})
			}
			if err := g.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}
