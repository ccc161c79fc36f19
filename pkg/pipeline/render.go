package pipeline

import (
	"context"
	"time"

	"github.com/fwerkmann/stackflow/pkg/errors"
	"github.com/fwerkmann/stackflow/pkg/graph"
	"github.com/fwerkmann/stackflow/pkg/layout"
	"github.com/fwerkmann/stackflow/pkg/observability"
	"github.com/fwerkmann/stackflow/pkg/render"
	"github.com/fwerkmann/stackflow/pkg/render/jsonsink"
	"github.com/fwerkmann/stackflow/pkg/render/nodelink"
	"github.com/fwerkmann/stackflow/pkg/render/svg"
	"github.com/fwerkmann/stackflow/pkg/route"
)

// RenderArtifacts renders a laid-out diagram into every requested format.
//
// The view decides how svg, png, and pdf are produced: the styled diagram
// sink or the Graphviz nodelink rendering. The json and dot formats are
// view-independent, json serializing the resolved geometry and dot the
// graph structure.
func RenderArtifacts(ctx context.Context, g *graph.Graph, l *layout.Layout, plan *route.Plan, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		hooks.OnRenderStart(ctx, format)
		start := time.Now()
		data, err := renderArtifact(ctx, g, l, plan, format, opts)
		hooks.OnRenderComplete(ctx, format, time.Since(start), err)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeRender, err, "render %s", format)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func renderArtifact(ctx context.Context, g *graph.Graph, l *layout.Layout, plan *route.Plan, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatJSON:
		return jsonsink.RenderJSON(l, jsonsink.WithGraph(g), jsonsink.WithPlan(plan))
	case FormatDOT:
		return []byte(nodelink.ToDOT(g, nodelink.Options{Detailed: opts.Detailed})), nil
	}

	if opts.IsNodelink() {
		dot := nodelink.ToDOT(g, nodelink.Options{Detailed: opts.Detailed})
		switch format {
		case FormatSVG:
			return nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			return nodelink.RenderPNG(ctx, dot, opts.Scale)
		case FormatPDF:
			return nodelink.RenderPDF(ctx, dot)
		}
	}

	svgData, err := svg.RenderSVG(ctx, l, buildSVGOptions(g, plan, opts)...)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatSVG:
		return svgData, nil
	case FormatPNG:
		return render.ToPNG(ctx, svgData, opts.Scale)
	case FormatPDF:
		return render.ToPDF(ctx, svgData)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported output format %q", format)
}

// buildSVGOptions maps pipeline options onto the diagram sink's options.
func buildSVGOptions(g *graph.Graph, plan *route.Plan, opts Options) []svg.Option {
	svgOpts := []svg.Option{svg.WithGraph(g), svg.WithPlan(plan)}
	if opts.HideActor {
		svgOpts = append(svgOpts, svg.WithoutActor())
	}
	if opts.HideCrossModule {
		svgOpts = append(svgOpts, svg.WithoutCrossModule())
	}
	if opts.Footer != "" {
		svgOpts = append(svgOpts, svg.WithFooter(opts.Footer))
	}
	return svgOpts
}
