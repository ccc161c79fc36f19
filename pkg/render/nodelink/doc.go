// Package nodelink renders infrastructure graphs as node-link diagrams.
//
// # Overview
//
// This package produces directed graph visualizations using Graphviz, where
// resources appear as boxes connected by arrows and modules become cluster
// subgraphs. It is the structural alternative to the styled diagram in
// [svg]: no flow rows, no actor figure, just the raw dependency shape.
// Useful for debugging classification and for graphs the flow layout cannot
// place yet.
//
// # Usage
//
// Convert a graph to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	out, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)  // 2x scale
//
// # DOT Format
//
// [ToDOT] produces Graphviz DOT source that can be:
//
//   - Rendered in process via [RenderSVG]
//   - Saved and processed with external Graphviz tools
//   - Fed back in through the DOT parser for a layout round trip
//
// Nodes carry their category accent color, support resources are dashed,
// and cross-module edges draw dashed to match the styled diagram.
//
// # Dependencies
//
// In-process SVG rendering uses [github.com/goccy/go-graphviz]. PDF and PNG
// conversion shell out to rsvg-convert (librsvg).
//
// [svg]: github.com/fwerkmann/stackflow/pkg/render/svg
package nodelink
