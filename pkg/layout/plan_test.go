package layout

import (
	"reflect"
	"testing"

	"github.com/matzehuels/supermro/pkg/hierarchy"
)

func registry(t *testing.T, decls ...hierarchy.Declaration) *hierarchy.Registry {
	t.Helper()
	r := hierarchy.New()
	if err := r.Populate(decls); err != nil {
		t.Fatalf("Populate() error = %v", err)
	}
	if err := r.LinearizeAll(); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestBuildEdgesDeduplicated(t *testing.T) {
	// B and C both contribute B→A / C→A; D repeats them through its MRO.
	r := registry(t,
		hierarchy.Declaration{Module: "m", Name: "A"},
		hierarchy.Declaration{Module: "m", Name: "B", Bases: []string{"A"}},
		hierarchy.Declaration{Module: "m", Name: "C", Bases: []string{"A"}},
		hierarchy.Declaration{Module: "m", Name: "D", Bases: []string{"B", "C"}},
	)

	plan, err := Build(r, Options{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := []Edge{
		{Child: "m.B", Parent: "m.A"},
		{Child: "m.C", Parent: "m.A"},
		{Child: "m.D", Parent: "m.B"},
		{Child: "m.B", Parent: "m.C"},
	}
	if !reflect.DeepEqual(plan.Edges, want) {
		t.Errorf("Edges = %v, want %v", plan.Edges, want)
	}

	seen := make(map[Edge]bool)
	for _, e := range plan.Edges {
		if seen[e] {
			t.Errorf("duplicate edge %v", e)
		}
		seen[e] = true
		if e.Parent == "object" {
			t.Errorf("edge to root %v should be excluded", e)
		}
	}
}

func TestBuildClustersAndHints(t *testing.T) {
	r := registry(t,
		hierarchy.Declaration{Module: "app.models", Name: "User", File: "app/models.py", Methods: []string{"save"}},
		hierarchy.Declaration{Module: "app.errors", Name: "AppError", File: "app/errors.py"},
		hierarchy.Declaration{Module: "app.models", Name: "Admin", Bases: []string{"User"}},
		hierarchy.Declaration{Module: "app.broken", Name: "Orphan", Bases: []string{"Missing"}},
		hierarchy.Declaration{Module: "app.views", Name: "Page", File: "app/views.py"},
	)

	plan, err := Build(r, Options{Name: "app"})
	if err != nil {
		t.Fatal(err)
	}

	var modules []string
	for _, c := range plan.Clusters {
		modules = append(modules, c.Module)
	}
	if !reflect.DeepEqual(modules, []string{"app.models", "app.errors", "app.views"}) {
		t.Errorf("clusters = %v, want [app.models app.errors app.views]", modules)
	}

	models := plan.Clusters[0]
	if models.Nodes[0].ID != "app.models.User" || models.Nodes[1].ID != "app.models.Admin" {
		t.Errorf("node order = %v", models.Nodes)
	}
	if models.Label() != "app.models\napp/models.py\n2 classes" {
		t.Errorf("Label() = %q", models.Label())
	}
	if models.Color != "#e3f2fd" {
		t.Errorf("models color = %s, want #e3f2fd", models.Color)
	}
	if plan.Clusters[1].Color != "#ffebee" || plan.Clusters[1].Nodes[0].Color != "#ffcdd2" {
		t.Errorf("error colors = %s / %s", plan.Clusters[1].Color, plan.Clusters[1].Nodes[0].Color)
	}

	wantHints := []Hint{
		{From: "app.models.User", To: "app.errors.AppError", Weight: HintWeight},
		{From: "app.errors.AppError", To: "app.views.Page", Weight: HintWeight},
	}
	if !reflect.DeepEqual(plan.Hints, wantHints) {
		t.Errorf("Hints = %v, want %v", plan.Hints, wantHints)
	}

	if !reflect.DeepEqual(plan.Excluded, []string{"app.broken.Orphan"}) {
		t.Errorf("Excluded = %v, want [app.broken.Orphan]", plan.Excluded)
	}
	if plan.NodeCount() != 4 {
		t.Errorf("NodeCount() = %d, want 4", plan.NodeCount())
	}
	if got := models.Nodes[1].Rank; got != 1 {
		t.Errorf("Admin rank = %d, want 1", got)
	}
}

func TestNodeSummary(t *testing.T) {
	tests := []struct {
		name    string
		methods []string
		max     int
		want    string
	}{
		{"none", nil, 3, "no public methods"},
		{"under limit", []string{"a", "b"}, 3, "a, b"},
		{"at limit", []string{"a", "b", "c"}, 3, "a, b, c"},
		{"overflow", []string{"a", "b", "c", "d", "e"}, 3, "a, b, c... (+2)"},
		{"custom limit", []string{"a", "b", "c"}, 1, "a... (+2)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := registry(t, hierarchy.Declaration{Module: "m", Name: "K", Methods: tt.methods})
			plan, err := Build(r, Options{MaxMethods: tt.max})
			if err != nil {
				t.Fatal(err)
			}
			if got := plan.Clusters[0].Nodes[0].Summary(); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildEmpty(t *testing.T) {
	plan, err := Build(registry(t), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Clusters) != 0 || len(plan.Edges) != 0 || len(plan.Hints) != 0 {
		t.Errorf("Build(empty) = %+v, want empty plan", plan)
	}

	if _, err := Build(hierarchy.New(), Options{}); err == nil {
		t.Error("Build() on unpopulated registry should fail")
	}
}

func TestBuildDeterministic(t *testing.T) {
	decls := []hierarchy.Declaration{
		{Module: "z", Name: "A"},
		{Module: "a", Name: "B", Bases: []string{"z.A"}},
		{Module: "m", Name: "C", Bases: []string{"a.B", "z.A"}},
	}
	first, _ := Build(registry(t, decls...), Options{})
	second, _ := Build(registry(t, decls...), Options{})
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Build() not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestBuildPrivateAndHidden(t *testing.T) {
	r := registry(t,
		hierarchy.Declaration{Module: "builtins", Name: "Exception"},
		hierarchy.Declaration{Module: "app", Name: "AppError", Bases: []string{"Exception"},
			Methods: []string{"__init__", "_render", "code"}},
	)

	plan, err := Build(r, Options{Hidden: []string{"builtins"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Clusters) != 1 || plan.Clusters[0].Module != "app" {
		t.Fatalf("clusters = %+v, want only app", plan.Clusters)
	}
	node := plan.Clusters[0].Nodes[0]
	if node.Summary() != "code" || node.MethodCount != 1 {
		t.Errorf("Summary() = %q (%d methods), want public methods only", node.Summary(), node.MethodCount)
	}
	want := []Edge{{Child: "app.AppError", Parent: "builtins.Exception"}}
	if !reflect.DeepEqual(plan.Edges, want) {
		t.Errorf("Edges = %v, want %v", plan.Edges, want)
	}

	plan, _ = Build(r, Options{IncludePrivate: true})
	if got := plan.Clusters[1].Nodes[0].Summary(); got != "__init__, _render, code" {
		t.Errorf("Summary() with IncludePrivate = %q", got)
	}
}
