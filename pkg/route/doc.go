// Package route computes collision-avoiding orthogonal polylines between
// node anchor points on a discretized canvas.
//
// A [Grid] divides the canvas into square cells and marks every cell touched
// by an obstacle rectangle, inflated by a clearance margin, as blocked. The
// blocked set is written once at construction and only read afterward, so a
// Grid is safe for concurrent [Grid.Route] calls and routing order never
// affects results.
//
// Each edge routes independently through a fixed preference ladder: a
// straight run when the corridor is clear, an L around the source when the
// vertical column is free, otherwise a Z through the nearest clear horizontal
// channel. The channel search widens outward in grid steps under an explicit
// iteration bound; when it exhausts, the route falls back to the midpoint
// height rather than failing, so a diagram is always produced.
package route
