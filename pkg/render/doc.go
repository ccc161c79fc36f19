// Package render provides the output sinks for computed diagrams.
//
// # Overview
//
// Rendering is the last pipeline stage: it consumes the classified graph,
// the computed layout, and the routed plan, and produces bytes. This
// package holds:
//
//   - Generic format conversion (SVG to PDF/PNG)
//   - The styled architecture diagram (in [svg] subpackage)
//   - Node-link diagrams via Graphviz (in [nodelink] subpackage)
//   - Raw geometry export (in [jsonsink] subpackage)
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG to other formats using the external
// rsvg-convert tool (from librsvg). Both diagram sinks share them:
//
//	out, err := svg.RenderSVG(ctx, l, svg.WithGraph(g), svg.WithPlan(plan))
//	pdf, err := render.ToPDF(ctx, out)
//	png, err := render.ToPNG(ctx, out, 2.0)  // 2x scale
//
// # Styled Diagrams
//
// The [svg] subpackage draws the architecture diagram: module containers,
// category-colored node boxes, routed flow arrows, curved cross-module
// connectors, and the actor figure. It renders from geometry alone and
// never measures or routes itself.
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage renders the raw dependency shape through
// Graphviz, with modules as cluster subgraphs:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	out, err := nodelink.RenderSVG(ctx, dot)
//
// # Geometry Export
//
// The [jsonsink] subpackage serializes resolved geometry, labels, and
// connector waypoints for external tooling.
//
// [svg]: github.com/fwerkmann/stackflow/pkg/render/svg
// [nodelink]: github.com/fwerkmann/stackflow/pkg/render/nodelink
// [jsonsink]: github.com/fwerkmann/stackflow/pkg/render/jsonsink
package render
