// Package pkg provides the libraries behind supermro, a method resolution
// order analyzer for Python class hierarchies.
//
// # Overview
//
// supermro reads class declarations (from Python source or a manifest),
// computes the C3 linearization of every class, and derives three views
// from it: inheritance chains, method traces and a clustered drawing plan.
// No Python code is imported or executed.
//
// # Architecture
//
//	Python package / manifest
//	         ↓
//	    [source] (declarations; tree-sitter extraction in source/python)
//	         ↓
//	    [hierarchy] (registry + C3 via [c3], sequential or in waves)
//	         ↓
//	    chains, traces, [layout] plan
//	         ↓
//	    [render/dot] (DOT, SVG, PNG, PDF)
//
// [pipeline] runs these stages with caching ([cache]) and reports through
// [observability] hooks. The CLI and HTTP API in internal/ are thin layers
// over [pipeline.Runner].
//
// # Quick Start
//
// Analyze a package on disk:
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, err := runner.Analyze(ctx, pipeline.Options{ProjectPath: "src", Package: "shop"})
//	if err != nil {
//	    return err
//	}
//	ancestors, _ := res.Chains.Get("shop.models.Book")
//	trace, err := res.Trace("Book", "save")
//
// Or drive the core directly with declarations:
//
//	reg := hierarchy.New()
//	if err := reg.Populate(decls); err != nil {
//	    return err
//	}
//	chains, err := reg.BuildDerivedViews()
//	plan, err := layout.Build(reg, layout.Options{Name: "shop"})
//	src := dot.ToDOT(plan, dot.Options{})
//
// # Main Packages
//
// [hierarchy] - Class registry, linearization, chains and method traces.
// Per-class failures (unresolved bases, cycles, inconsistent orders) stay on
// the failing class and its dependents; everything else is still analyzed.
//
// [c3] - Generic C3 merge.
//
// [dag] - Row-layered directed acyclic graph; [dag/transform] assigns layers
// used for parallel linearization waves and node depths.
//
// [layout] - Renderer-independent drawing plan: module clusters, deduplicated
// MRO edges, invisible ordering hints and colors.
//
// [source] - Package discovery, loading and manifests (JSON, TOML, YAML).
//
// [render/dot] - Graphviz output through go-graphviz.
//
// [cache] - File, Redis and null caches with content-addressed keys.
//
// [pipeline] - Load → linearize → layout, and cached rendering.
//
// [observability] - Pipeline, cache and HTTP hooks with a Prometheus
// implementation.
//
// [config] - TOML configuration.
//
// [errors] - Coded errors shared by every package.
//
// [hierarchy]: https://pkg.go.dev/github.com/matzehuels/supermro/pkg/hierarchy
// [c3]: https://pkg.go.dev/github.com/matzehuels/supermro/pkg/c3
// [dag]: https://pkg.go.dev/github.com/matzehuels/supermro/pkg/dag
// [dag/transform]: https://pkg.go.dev/github.com/matzehuels/supermro/pkg/dag/transform
// [layout]: https://pkg.go.dev/github.com/matzehuels/supermro/pkg/layout
// [source]: https://pkg.go.dev/github.com/matzehuels/supermro/pkg/source
// [render/dot]: https://pkg.go.dev/github.com/matzehuels/supermro/pkg/render/dot
// [cache]: https://pkg.go.dev/github.com/matzehuels/supermro/pkg/cache
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/supermro/pkg/pipeline
// [pipeline.Runner]: https://pkg.go.dev/github.com/matzehuels/supermro/pkg/pipeline#Runner
// [observability]: https://pkg.go.dev/github.com/matzehuels/supermro/pkg/observability
// [config]: https://pkg.go.dev/github.com/matzehuels/supermro/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/supermro/pkg/errors
package pkg
