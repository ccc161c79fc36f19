package route

import (
	"github.com/fwerkmann/stackflow/pkg/graph"
	"github.com/fwerkmann/stackflow/pkg/layout"
)

// Vertical spacing between stacked actor connectors leaving the figure.
const actorFanStep = 12

// RoutedEdge couples one drawable edge with its connector geometry. For
// same-module edges the path is an orthogonal polyline; for cross-module
// edges it holds the four cubic control points from [CurvedPath].
type RoutedEdge struct {
	Edge graph.Edge `json:"edge" bson:"edge"`
	Path Path       `json:"path" bson:"path"`
}

// ActorConnector is the curved connector from the actor figure to one entry
// node, with the [ActorPath] control points.
type ActorConnector struct {
	NodeID string `json:"node_id" bson:"node_id"`
	Path   Path   `json:"path" bson:"path"`
}

// Plan holds every connector of one diagram, grouped the way the renderer
// draws them: orthogonal same-module arrows, curved cross-module
// connectors, and actor connectors into the entry points.
type Plan struct {
	Intra []RoutedEdge     `json:"intra,omitempty" bson:"intra,omitempty"`
	Cross []RoutedEdge     `json:"cross,omitempty" bson:"cross,omitempty"`
	Actor []ActorConnector `json:"actor,omitempty" bson:"actor,omitempty"`

	// Fallbacks counts routes that crossed at the midpoint height because
	// no clear channel was found. Surfaced in pipeline statistics.
	Fallbacks int `json:"fallbacks,omitempty" bson:"fallbacks,omitempty"`
}

// ConnectorCount returns the total number of connectors in the plan.
func (p *Plan) ConnectorCount() int {
	return len(p.Intra) + len(p.Cross) + len(p.Actor)
}

// Waypoints returns every routed edge path keyed by edge identity, intra and
// cross connectors alike. Actor connectors have no edge and are not included.
func (p *Plan) Waypoints() map[graph.EdgeKey]Path {
	points := make(map[graph.EdgeKey]Path, len(p.Intra)+len(p.Cross))
	for _, re := range p.Intra {
		points[re.Edge.Key()] = re.Path
	}
	for _, re := range p.Cross {
		points[re.Edge.Key()] = re.Path
	}
	return points
}

// Obstacles returns the rectangles the router must avoid: every node box
// plus each module's header band.
func Obstacles(l *layout.Layout) []layout.Rect {
	obstacles := l.NodeBoxes()
	for _, m := range l.Modules {
		obstacles = append(obstacles, m.Header(l.HeaderHeight))
	}
	return obstacles
}

// BuildPlan routes every drawable edge of a laid-out diagram.
//
// Same-module edges run through the occupancy grid and avoid collisions;
// cross-module edges and actor connectors use fixed curves exempt from the
// search. Edges whose endpoints carry no position, and self edges, are
// skipped. Iteration follows the order of the input slices, and routing
// itself is order-independent, so identical inputs give identical plans.
func BuildPlan(l *layout.Layout, intra, cross []graph.Edge, cfg Config) *Plan {
	grid := NewGrid(l.Width, l.Height, Obstacles(l), cfg)
	plan := &Plan{}

	for _, e := range intra {
		src, dst, ok := endpoints(l, e)
		if !ok {
			continue
		}
		from, to := Anchors(src, dst, DefaultArrowGap)
		plan.Intra = append(plan.Intra, RoutedEdge{Edge: e, Path: grid.Route(from, to)})
	}

	for _, e := range cross {
		src, dst, ok := endpoints(l, e)
		if !ok {
			continue
		}
		from, to := VerticalAnchors(src, dst, DefaultArrowGap)
		plan.Cross = append(plan.Cross, RoutedEdge{Edge: e, Path: CurvedPath(from, to)})
	}

	for i, entry := range l.Entries {
		from := Point{
			X: l.Actor.Right(),
			Y: l.Actor.CenterY() + (i-len(l.Entries)/2)*actorFanStep,
		}
		to := Point{X: entry.At.X - DefaultArrowGap, Y: entry.At.CenterY()}
		plan.Actor = append(plan.Actor, ActorConnector{NodeID: entry.NodeID, Path: ActorPath(from, to)})
	}

	plan.Fallbacks = grid.Fallbacks()
	return plan
}

func endpoints(l *layout.Layout, e graph.Edge) (src, dst layout.Rect, ok bool) {
	if e.From == e.To {
		return src, dst, false
	}
	src, okSrc := l.Positions[e.From]
	dst, okDst := l.Positions[e.To]
	return src, dst, okSrc && okDst
}
