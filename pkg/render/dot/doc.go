// Package dot renders layout plans as Graphviz diagrams.
//
// [ToDOT] produces DOT source that lays classes out top to bottom with
// orthogonal edges and one colored cluster per module:
//
//	plan, _ := layout.Build(reg, layout.Options{Name: "sample_project"})
//	src := dot.ToDOT(plan, dot.Options{})
//	svg, err := dot.RenderSVG(ctx, src)
//
// SVG and PNG output use the embedded Graphviz from go-graphviz and need no
// system installation. PDF output converts the SVG with rsvg-convert.
package dot
