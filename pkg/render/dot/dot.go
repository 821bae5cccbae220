package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/supermro/pkg/layout"
	"github.com/matzehuels/supermro/pkg/render"
)

// Separator is drawn between a class name and its method summary.
const Separator = "━━━━━━━━━━━━━━━━━━━━"

// Options configures DOT generation.
type Options struct {
	// FontName is used for cluster and node labels. Empty means Arial.
	FontName string
	// Detailed adds each node's inheritance depth to its label.
	Detailed bool
}

// ToDOT converts a drawing plan to Graphviz DOT source.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPNG] or
// [RenderPDF].
//
// Each module becomes a filled, rounded "cluster_i" subgraph; classes are
// ellipses labelled with their name and method summary. Hints are emitted as
// invisible weighted edges.
func ToDOT(plan *layout.Plan, opts Options) string {
	font := opts.FontName
	if font == "" {
		font = "Arial"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", graphName(plan))
	fmt.Fprintf(&buf, "  // %s class hierarchy\n", plan.Name)
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  splines=ortho;\n")

	for i, c := range plan.Clusters {
		fmt.Fprintf(&buf, "\n  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", c.Label())
		buf.WriteString("    style=\"filled,rounded\";\n")
		fmt.Fprintf(&buf, "    color=%q;\n", c.Color)
		buf.WriteString("    fontsize=12;\n")
		fmt.Fprintf(&buf, "    fontname=%q;\n", font)
		for _, n := range c.Nodes {
			fmt.Fprintf(&buf, "    %q [%s];\n", n.ID, strings.Join(nodeAttrs(n, font, opts.Detailed), ", "))
		}
		buf.WriteString("  }\n")
	}

	if len(plan.Edges) > 0 {
		buf.WriteString("\n")
	}
	for _, e := range plan.Edges {
		fmt.Fprintf(&buf, "  %q -> %q [color=black, arrowhead=normal];\n", e.Child, e.Parent)
	}
	for _, h := range plan.Hints {
		fmt.Fprintf(&buf, "  %q -> %q [style=invis, weight=%d];\n", h.From, h.To, h.Weight)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func graphName(plan *layout.Plan) string {
	if plan.Name == "" {
		return "G"
	}
	return plan.Name
}

// NodeLabel returns the label drawn inside a class node.
func NodeLabel(n layout.Node, detailed bool) string {
	label := n.Name + "\n" + Separator + "\n• " + n.Summary()
	if detailed {
		label += fmt.Sprintf("\ndepth: %d", n.Rank)
	}
	return label
}

func nodeAttrs(n layout.Node, font string, detailed bool) []string {
	return []string{
		fmt.Sprintf("label=%q", NodeLabel(n, detailed)),
		"shape=ellipse",
		fmt.Sprintf("fillcolor=%q", n.Color),
		"style=\"filled,rounded\"",
		"fontsize=10",
		fmt.Sprintf("fontname=%q", font),
	}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := renderFormat(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.PNG)
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

func renderFormat(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
