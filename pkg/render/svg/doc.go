// Package svg renders computed diagram geometry as a styled SVG document.
//
// # Overview
//
// The renderer is a pure sink: it draws what [layout.Compute] and
// [route.BuildPlan] produced and measures nothing itself. One call renders
// one diagram:
//
//	out, err := svg.RenderSVG(ctx, l,
//	    svg.WithGraph(g),
//	    svg.WithPlan(plan),
//	)
//
// # Drawing Order
//
// Elements are emitted back to front: canvas background, title, module
// containers, node boxes, same-module arrows, cross-module connectors, and
// finally the actor figure with its entry connectors. Later elements draw
// over earlier ones, so arrows are never hidden behind module fills.
//
// # Options
//
//   - [WithGraph]: required; source of node types, names, and categories
//   - [WithPlan]: connector geometry; omit to render boxes only
//   - [WithPalette]: color overrides, defaults to [DefaultPalette]
//   - [WithoutActor]: hide the actor figure and its connectors
//   - [WithoutCrossModule]: hide the dashed cross-module connectors
//   - [WithFooter]: caption drawn in the bottom canvas margin
//
// Output is deterministic: identical inputs produce identical bytes, which
// keeps rendered artifacts content-addressable in the diagram cache.
//
// [layout.Compute]: github.com/fwerkmann/stackflow/pkg/layout.Compute
// [route.BuildPlan]: github.com/fwerkmann/stackflow/pkg/route.BuildPlan
package svg
