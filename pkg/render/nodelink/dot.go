package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/fwerkmann/stackflow/pkg/errors"
	"github.com/fwerkmann/stackflow/pkg/graph"
	"github.com/fwerkmann/stackflow/pkg/render"
	"github.com/fwerkmann/stackflow/pkg/render/svg"
)

// Options configures node-link diagram generation.
type Options struct {
	// Detailed adds flow assignment and metadata lines to node labels.
	// When false, labels show the display name and resource type only.
	Detailed bool
}

// ToDOT converts an infrastructure graph to Graphviz DOT format.
//
// Modules become cluster subgraphs with the root module's resources at the
// top level. Classified nodes are filled with their category accent color,
// support resources get dashed outlines, and cross-module edges are drawn
// dashed. Output is deterministic: modules, nodes, and edges are emitted in
// sorted order.
//
// The resulting DOT can be rendered with [RenderSVG], [RenderPDF], or
// [RenderPNG], or saved for external Graphviz tooling.
func ToDOT(g *graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	palette := svg.DefaultPalette()
	cluster := 0
	for _, mod := range g.ModuleNames() {
		nodes := slices.Clone(g.NodesInModule(mod))
		slices.SortFunc(nodes, func(a, b *graph.Node) int {
			return strings.Compare(a.ID, b.ID)
		})

		if mod == graph.RootModule {
			for _, n := range nodes {
				writeDOTNode(&buf, "  ", n, palette, opts.Detailed)
			}
			continue
		}

		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", cluster)
		fmt.Fprintf(&buf, "    label=%q;\n", mod)
		buf.WriteString("    style=rounded;\n")
		buf.WriteString("    color=\"#e9ecef\";\n")
		for _, n := range nodes {
			writeDOTNode(&buf, "    ", n, palette, opts.Detailed)
		}
		buf.WriteString("  }\n")
		cluster++
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		switch e.Kind {
		case graph.KindCrossModule:
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", e.From, e.To)
		case graph.KindInferred:
			fmt.Fprintf(&buf, "  %q -> %q [style=dotted];\n", e.From, e.To)
		default:
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeDOTNode(buf *bytes.Buffer, indent string, n *graph.Node, p svg.Palette, detailed bool) {
	fmt.Fprintf(buf, "%s%q [%s];\n", indent, n.ID, strings.Join(nodeAttrs(n, p, detailed), ", "))
}

func nodeAttrs(n *graph.Node, p svg.Palette, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", nodeLabel(n, detailed))}
	if n.Category != "" {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", p.Category(n.Category)), "fontcolor=white")
	}
	if n.Flow == graph.FlowSupport {
		attrs = append(attrs, `style="rounded,filled,dashed"`)
	}
	return attrs
}

// nodeLabel builds the multi-line DOT label. The \n escapes inside the
// quoted string are line breaks to Graphviz.
func nodeLabel(n *graph.Node, detailed bool) string {
	label := n.DisplayName()
	if n.Type != "" {
		label += "\n" + n.Type
	}
	if !detailed {
		return label
	}

	var parts []string
	if n.Flow != "" {
		parts = append(parts, fmt.Sprintf("flow: %s/%d", n.Flow, n.Position))
	}
	for _, k := range slices.Sorted(maps.Keys(n.Meta)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Meta[k]))
	}
	if len(parts) == 0 {
		return label
	}
	return label + "\n" + strings.Join(parts, "\n")
}

// RenderSVG renders a DOT graph to SVG using the embedded Graphviz engine.
// The returned bytes can be displayed directly or converted further with
// [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "render DOT")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the Graphviz svg tag so the viewBox origin is
// (0,0) and explicit pixel dimensions are present, which embeds cleanly in
// the preview page.
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

// RenderPNG renders a DOT graph as PNG via SVG conversion. A scale of 2.0
// produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
