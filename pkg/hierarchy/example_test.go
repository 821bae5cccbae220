package hierarchy_test

import (
	"fmt"

	"github.com/matzehuels/supermro/pkg/hierarchy"
)

func ExampleRegistry_BuildDerivedViews() {
	reg := hierarchy.New()
	_ = reg.Populate([]hierarchy.Declaration{
		{Module: "app", Name: "Base"},
		{Module: "app", Name: "Left", Bases: []string{"Base"}},
		{Module: "app", Name: "Right", Bases: []string{"Base"}},
		{Module: "app", Name: "Both", Bases: []string{"Left", "Right"}},
	})

	chains, _ := reg.BuildDerivedViews()
	fmt.Println(chains.Map()["app.Both"])
	// Output:
	// [app.Both app.Left app.Right app.Base object]
}

func ExampleRegistry_Trace() {
	reg := hierarchy.New()
	_ = reg.Populate([]hierarchy.Declaration{
		{Module: "app", Name: "Base", Methods: []string{"save"}},
		{Module: "app", Name: "User", Bases: []string{"Base"}, Methods: []string{"save"}},
	})

	tr, _ := reg.Trace("User", "save", hierarchy.DefaultTracePolicy)
	for _, s := range tr.Steps {
		fmt.Println(s.Class)
	}
	// Output:
	// app.User
	// app.Base
}

func ExampleRegistry_Failures() {
	reg := hierarchy.New()
	_ = reg.Populate([]hierarchy.Declaration{
		{Module: "app", Name: "A", Bases: []string{"B"}},
		{Module: "app", Name: "B", Bases: []string{"A"}},
		{Module: "app", Name: "C"},
	})
	_ = reg.LinearizeAll()

	for _, f := range reg.Failures() {
		fmt.Println(f.Class)
	}
	// Output:
	// app.A
	// app.B
}
