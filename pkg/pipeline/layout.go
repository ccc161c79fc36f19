package pipeline

import (
	"context"
	"time"

	"github.com/fwerkmann/stackflow/pkg/graph"
	"github.com/fwerkmann/stackflow/pkg/layout"
	"github.com/fwerkmann/stackflow/pkg/observability"
	"github.com/fwerkmann/stackflow/pkg/route"
)

// ComputeDiagram runs the diagram stage: node geometry, then a routed
// connector for every drawable edge and entry point.
//
// Both steps are total. An empty graph produces a minimal canvas and an
// empty plan; a connector that finds no clear channel falls back to a
// midpoint crossing and is counted in the plan, never failed.
func ComputeDiagram(ctx context.Context, g *graph.Graph, opts Options) (*layout.Layout, *route.Plan) {
	opts.SetDiagramDefaults()
	hooks := observability.Pipeline()

	hooks.OnLayoutStart(ctx, g.NodeCount())
	start := time.Now()
	l := layout.Compute(g, opts.Layout)
	hooks.OnLayoutComplete(ctx, time.Since(start), nil)

	intra, cross := splitByKind(g.Edges())
	hooks.OnRouteStart(ctx, len(intra)+len(cross))
	start = time.Now()
	plan := route.BuildPlan(l, intra, cross, opts.Route)
	hooks.OnRouteComplete(ctx, plan.ConnectorCount(), time.Since(start), nil)

	return l, plan
}

// splitByKind separates the drawable edge set the way the router consumes
// it: cross-module connectors curve between modules, everything else routes
// orthogonally through the grid.
func splitByKind(edges []graph.Edge) (intra, cross []graph.Edge) {
	for _, e := range edges {
		if e.Kind == graph.KindCrossModule {
			cross = append(cross, e)
		} else {
			intra = append(intra, e)
		}
	}
	return intra, cross
}
