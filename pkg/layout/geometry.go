package layout

// Rect is an axis-aligned rectangle in canvas pixels. X and Y name the
// top-left corner; the y axis grows downward.
type Rect struct {
	X int `json:"x" bson:"x"`
	Y int `json:"y" bson:"y"`
	W int `json:"w" bson:"w"`
	H int `json:"h" bson:"h"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() int { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() int { return r.Y + r.H }

// CenterX returns the horizontal center.
func (r Rect) CenterX() int { return r.X + r.W/2 }

// CenterY returns the vertical center.
func (r Rect) CenterY() int { return r.Y + r.H/2 }

// Intersects reports whether r and o share any interior area. Rectangles
// that only touch along an edge do not intersect.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Snap rounds v down to the nearest multiple of unit.
func Snap(v, unit int) int {
	if unit <= 1 {
		return v
	}
	return v - v%unit
}
