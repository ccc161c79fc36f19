package route

import "github.com/fwerkmann/stackflow/pkg/layout"

// Control-point offset of the actor connector, three grid units right of
// the actor figure.
const actorCurveOffset = 24

// CurvedPath returns the four points of the cubic connector drawn for
// cross-module calls: start, two control points at the vertical midpoint,
// end. The curve leaves and enters vertically and skips collision search,
// which keeps long-range connectors readable on crowded canvases.
func CurvedPath(from, to Point) Path {
	midY := (from.Y + to.Y) / 2
	return Path{from, {X: from.X, Y: midY}, {X: to.X, Y: midY}, to}
}

// ActorPath returns the cubic connector from the actor figure to an entry
// node. Both control points sit just right of the actor, so stacked
// connectors leave horizontally and fan out to their entry heights.
func ActorPath(from, to Point) Path {
	ctrlX := from.X + actorCurveOffset
	return Path{from, {X: ctrlX, Y: from.Y}, {X: ctrlX, Y: to.Y}, to}
}

// VerticalAnchors returns the endpoints of a cross-module connector:
// bottom center of the source down to top center of the target, flipped
// when the source sits below the target.
func VerticalAnchors(src, dst layout.Rect, gap int) (Point, Point) {
	from := Point{X: src.CenterX(), Y: src.Bottom() + gap}
	to := Point{X: dst.CenterX(), Y: dst.Y - gap}
	if from.Y > to.Y {
		from.Y = src.Y - gap
		to.Y = dst.Bottom() + gap
	}
	return from, to
}
