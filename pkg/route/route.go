package route

import "github.com/fwerkmann/stackflow/pkg/layout"

// DefaultArrowGap is the distance between a node edge and the arrow
// endpoint, leaving room for the arrowhead marker.
const DefaultArrowGap = 4

// Point is one waypoint of a routed polyline, in canvas pixels.
type Point struct {
	X int `json:"x" bson:"x"`
	Y int `json:"y" bson:"y"`
}

// Path is an ordered waypoint sequence. Consecutive points always differ in
// exactly one coordinate, so every segment is horizontal or vertical.
type Path []Point

// Route computes an orthogonal polyline from one anchor to another.
//
// Preference order: a straight run when the corridor between the anchors is
// clear or holds no foreign obstacle, an L around the source column when
// that column is free, otherwise a Z through the nearest clear horizontal
// channel. When the bounded channel search fails the path deterministically
// crosses at the midpoint height instead; Route never fails.
//
// The returned path starts at from, ends at to, and is already simplified.
func (g *Grid) Route(from, to Point) Path {
	nearRow := abs(from.Y-to.Y) <= g.cfg.GridUnit

	if nearRow && g.clearH(from.Y, from.X, to.X) {
		return Simplify(directPath(from, to))
	}

	obstacle := g.obstacleBetween(from, to)
	if nearRow && !obstacle {
		return Simplify(directPath(from, to))
	}

	midX1 := from.X + g.cfg.HGap/3
	if !obstacle && g.clearV(midX1, from.Y, to.Y) {
		return Simplify(Path{
			from,
			{X: midX1, Y: from.Y},
			{X: midX1, Y: to.Y},
			to,
		})
	}

	above := min(from.Y, to.Y) - 2*g.cfg.Margin
	below := max(from.Y, to.Y) + 2*g.cfg.Margin
	var channelY int
	switch {
	case above > 0 && g.clearH(above, from.X, to.X):
		channelY = above
	case g.clearH(below, from.X, to.X):
		channelY = below
	default:
		y, ok := g.findChannel(from.Y, to.Y, from.X, to.X)
		if !ok {
			y = (from.Y + to.Y) / 2
			g.fallbacks.Add(1)
		}
		channelY = y
	}

	midX2 := to.X - g.cfg.HGap/3
	return Simplify(Path{
		from,
		{X: midX1, Y: from.Y},
		{X: midX1, Y: channelY},
		{X: midX2, Y: channelY},
		{X: midX2, Y: to.Y},
		to,
	})
}

// directPath connects two anchors at (near-)equal height. A slight height
// difference becomes a short vertical jog at the target so segments stay
// orthogonal.
func directPath(from, to Point) Path {
	if from.Y == to.Y {
		return Path{from, to}
	}
	return Path{from, {X: to.X, Y: from.Y}, to}
}

// Simplify removes zero-length segments and every interior waypoint whose
// incoming and outgoing segments run in the same direction. Simplifying
// twice yields the same path as simplifying once.
func Simplify(p Path) Path {
	if len(p) == 0 {
		return nil
	}

	dedup := Path{p[0]}
	for _, pt := range p[1:] {
		if pt != dedup[len(dedup)-1] {
			dedup = append(dedup, pt)
		}
	}
	if len(dedup) <= 2 {
		return dedup
	}

	result := Path{dedup[0]}
	for i := 1; i < len(dedup)-1; i++ {
		prev, cur, next := result[len(result)-1], dedup[i], dedup[i+1]
		straightH := cur.Y == prev.Y && next.Y == cur.Y
		straightV := cur.X == prev.X && next.X == cur.X
		if straightH || straightV {
			continue
		}
		result = append(result, cur)
	}
	return append(result, dedup[len(dedup)-1])
}

// Anchors returns the standard arrow endpoints between two node boxes: out
// of the source's right edge and into the target's left edge, both at the
// vertical center, offset by gap for the arrowhead.
func Anchors(src, dst layout.Rect, gap int) (Point, Point) {
	return Point{X: src.Right() + gap, Y: src.CenterY()},
		Point{X: dst.X - gap, Y: dst.CenterY()}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
