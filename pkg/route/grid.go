package route

import (
	"sync/atomic"

	"github.com/fwerkmann/stackflow/pkg/layout"
)

// Config holds the routing geometry. Zero fields are replaced with the
// matching [DefaultConfig] value.
type Config struct {
	CellSize int `json:"cell_size" toml:"cell_size"` // Occupancy cell edge, a small multiple of GridUnit
	GridUnit int `json:"grid_unit" toml:"grid_unit"`
	Margin   int `json:"margin" toml:"margin"` // Clearance added around every obstacle

	// HGap mirrors the layout value; the router derives from it the length
	// of the stubs where an arrow leaves and enters a node.
	HGap int `json:"h_gap" toml:"h_gap"`

	// MaxChannelIterations bounds the channel search. Each iteration widens
	// the scanned band by one grid unit above and below.
	MaxChannelIterations int `json:"max_channel_iterations" toml:"max_channel_iterations"`
}

// DefaultConfig returns routing geometry matching [layout.DefaultConfig].
func DefaultConfig() Config {
	return Config{
		CellSize:             16,
		GridUnit:             8,
		Margin:               16,
		HGap:                 48,
		MaxChannelIterations: 64,
	}
}

// ConfigFor derives routing geometry from a layout configuration: cells and
// clearance margin are two grid units each.
func ConfigFor(lc layout.Config) Config {
	cfg := Config{
		GridUnit: lc.GridUnit,
		HGap:     lc.HGap,
	}
	if lc.GridUnit > 0 {
		cfg.CellSize = 2 * lc.GridUnit
		cfg.Margin = 2 * lc.GridUnit
	}
	return cfg.normalized()
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.CellSize <= 0 {
		c.CellSize = def.CellSize
	}
	if c.GridUnit <= 0 {
		c.GridUnit = def.GridUnit
	}
	if c.Margin <= 0 {
		c.Margin = def.Margin
	}
	if c.HGap <= 0 {
		c.HGap = def.HGap
	}
	if c.MaxChannelIterations <= 0 {
		c.MaxChannelIterations = def.MaxChannelIterations
	}
	return c
}

// Grid is the discretized occupancy map of one canvas. The blocked cells are
// fixed at construction; routing only reads them. The fallback counter is
// atomic, so concurrent Route calls stay safe.
type Grid struct {
	cfg       Config
	cols      int
	rows      int
	blocked   []bool // row-major, gy*cols+gx
	fallbacks atomic.Int64
}

// NewGrid discretizes a width-by-height canvas and blocks every cell the
// obstacle rectangles overlap, inflated by the configured margin. Obstacles
// are typically node boxes and module header bands.
func NewGrid(width, height int, obstacles []layout.Rect, cfg Config) *Grid {
	cfg = cfg.normalized()
	g := &Grid{
		cfg:  cfg,
		cols: width/cfg.CellSize + 1,
		rows: height/cfg.CellSize + 1,
	}
	g.blocked = make([]bool, g.cols*g.rows)
	for _, r := range obstacles {
		g.block(r)
	}
	return g
}

// Cols returns the number of cell columns.
func (g *Grid) Cols() int { return g.cols }

// Rows returns the number of cell rows.
func (g *Grid) Rows() int { return g.rows }

// CellSize returns the cell edge length in pixels.
func (g *Grid) CellSize() int { return g.cfg.CellSize }

// Fallbacks returns how many routes crossed at the midpoint height because
// the channel search exhausted its iteration bound. A non-zero count means
// the diagram may contain arrows passing close to an obstacle.
func (g *Grid) Fallbacks() int { return int(g.fallbacks.Load()) }

// Blocked reports whether cell (gx, gy) is occupied. Cells outside the grid
// are never blocked.
func (g *Grid) Blocked(gx, gy int) bool {
	if gx < 0 || gy < 0 || gx >= g.cols || gy >= g.rows {
		return false
	}
	return g.blocked[gy*g.cols+gx]
}

func (g *Grid) block(r layout.Rect) {
	m := g.cfg.Margin
	gx1 := floorDiv(r.X-m, g.cfg.CellSize)
	gy1 := floorDiv(r.Y-m, g.cfg.CellSize)
	gx2 := floorDiv(r.Right()+m, g.cfg.CellSize)
	gy2 := floorDiv(r.Bottom()+m, g.cfg.CellSize)
	for gx := max(0, gx1); gx <= min(g.cols-1, gx2); gx++ {
		for gy := max(0, gy1); gy <= min(g.rows-1, gy2); gy++ {
			g.blocked[gy*g.cols+gx] = true
		}
	}
}

// clearH reports whether the horizontal run at height y between x1 and x2
// crosses no blocked cell. The rows directly above and below also count, so
// a clear run keeps a full cell of daylight on both sides.
func (g *Grid) clearH(y, x1, x2 int) bool {
	gy := floorDiv(y, g.cfg.CellSize)
	lo, hi := min(x1, x2), max(x1, x2)
	for gx := floorDiv(lo, g.cfg.CellSize); gx <= floorDiv(hi, g.cfg.CellSize); gx++ {
		if g.Blocked(gx, gy) || g.Blocked(gx, gy-1) || g.Blocked(gx, gy+1) {
			return false
		}
	}
	return true
}

// clearV reports whether the vertical run at x between y1 and y2 crosses no
// blocked cell.
func (g *Grid) clearV(x, y1, y2 int) bool {
	gx := floorDiv(x, g.cfg.CellSize)
	lo, hi := min(y1, y2), max(y1, y2)
	for gy := floorDiv(lo, g.cfg.CellSize); gy <= floorDiv(hi, g.cfg.CellSize); gy++ {
		if g.Blocked(gx, gy) {
			return false
		}
	}
	return true
}

// findChannel searches for a clear horizontal run between the two heights,
// widening outward one grid unit per iteration and staying within two grid
// units of the [ymin, ymax] band. The second return is false when the bound
// exhausts without a hit; callers then fall back to the midpoint height.
func (g *Grid) findChannel(y1, y2, x1, x2 int) (int, bool) {
	ymin, ymax := min(y1, y2), max(y1, y2)
	band := 2 * g.cfg.GridUnit
	for i := 0; i < g.cfg.MaxChannelIterations; i++ {
		offset := i * g.cfg.GridUnit
		for _, y := range [2]int{ymin + offset, ymax - offset} {
			if y < ymin-band || y > ymax+band {
				continue
			}
			if g.clearH(y, x1, x2) {
				return y, true
			}
		}
	}
	return 0, false
}

// obstacleBetween reports whether a blocked cell lies strictly between the
// two anchors along the source row, outside the margin halo of either
// endpoint's own node.
func (g *Grid) obstacleBetween(from, to Point) bool {
	gy := floorDiv(from.Y, g.cfg.CellSize)
	lo := floorDiv(from.X+g.cfg.Margin, g.cfg.CellSize)
	hi := floorDiv(to.X-g.cfg.Margin, g.cfg.CellSize)
	for gx := lo + 1; gx < hi; gx++ {
		if g.Blocked(gx, gy) {
			return true
		}
	}
	return false
}

// floorDiv divides rounding toward negative infinity, so pixel coordinates
// left of or above the origin land in negative cells instead of cell zero.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
