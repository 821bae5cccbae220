// Package render holds output helpers shared by renderers.
//
// The Graphviz renderer lives in the [dot] subpackage. [ToPDF] converts any
// SVG to PDF with the external rsvg-convert tool (from librsvg):
//
//	svg, err := dot.RenderSVG(ctx, src)
//	pdf, err := render.ToPDF(ctx, svg)
//
// [dot]: github.com/matzehuels/supermro/pkg/render/dot
package render
