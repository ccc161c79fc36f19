package layout

import (
	"slices"
	"strings"

	"github.com/fwerkmann/stackflow/pkg/graph"
)

// Actor figure dimensions, drawn in the lane left of the modules.
const (
	actorWidth  = 48
	actorHeight = 60
)

// Title band height and baseline, in grid units.
const (
	titleBandUnits     = 6
	titleBaselineUnits = 4
)

// Config holds every spacing constant the layout consults. All values are
// canvas pixels except GridUnit, which is the snapping quantum. Zero fields
// are replaced with the matching [DefaultConfig] value, so a zero Config is
// usable.
type Config struct {
	GridUnit           int `json:"grid_unit" toml:"grid_unit"`
	NodeWidth          int `json:"node_width" toml:"node_width"`
	NodeHeight         int `json:"node_height" toml:"node_height"`
	HGap               int `json:"h_gap" toml:"h_gap"`                 // Between nodes in a row
	VGap               int `json:"v_gap" toml:"v_gap"`                 // Between rows in a module
	ModuleGap          int `json:"module_gap" toml:"module_gap"`       // Between stacked modules
	ModulePadding      int `json:"module_padding" toml:"module_padding"`
	ModuleHeaderHeight int `json:"module_header" toml:"module_header"`
	CanvasPadding      int `json:"canvas_padding" toml:"canvas_padding"`
	ActorLaneWidth     int `json:"actor_lane" toml:"actor_lane"` // Reserved left of the modules

	// EntryTypes lists, per flow, the node types an external actor connects
	// to. Leave nil to mark no entry points.
	EntryTypes map[graph.Flow][]string `json:"-" toml:"-"`
}

// DefaultConfig returns the spacing constants every built-in diagram uses.
func DefaultConfig() Config {
	return Config{
		GridUnit:           8,
		NodeWidth:          112,
		NodeHeight:         104,
		HGap:               48,
		VGap:               24,
		ModuleGap:          80,
		ModulePadding:      24,
		ModuleHeaderHeight: 32,
		CanvasPadding:      64,
		ActorLaneWidth:     80,
	}
}

// normalized returns cfg with zero geometry fields filled from defaults.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.GridUnit <= 0 {
		c.GridUnit = def.GridUnit
	}
	if c.NodeWidth <= 0 {
		c.NodeWidth = def.NodeWidth
	}
	if c.NodeHeight <= 0 {
		c.NodeHeight = def.NodeHeight
	}
	if c.HGap <= 0 {
		c.HGap = def.HGap
	}
	if c.VGap <= 0 {
		c.VGap = def.VGap
	}
	if c.ModuleGap <= 0 {
		c.ModuleGap = def.ModuleGap
	}
	if c.ModulePadding <= 0 {
		c.ModulePadding = def.ModulePadding
	}
	if c.ModuleHeaderHeight <= 0 {
		c.ModuleHeaderHeight = def.ModuleHeaderHeight
	}
	if c.CanvasPadding <= 0 {
		c.CanvasPadding = def.CanvasPadding
	}
	if c.ActorLaneWidth <= 0 {
		c.ActorLaneWidth = def.ActorLaneWidth
	}
	return c
}

// ModuleBox is one module's drawn container.
type ModuleBox struct {
	Name   string `json:"name" bson:"name"`
	Label  string `json:"label" bson:"label"`
	Bounds Rect   `json:"bounds" bson:"bounds"`
}

// Header returns the title band at the top of the module box. The router
// treats it as an obstacle so arrows do not cut through module labels.
func (m ModuleBox) Header(headerHeight int) Rect {
	return Rect{X: m.Bounds.X, Y: m.Bounds.Y, W: m.Bounds.W, H: headerHeight}
}

// RowBand is the horizontal band one flow row occupies inside a module.
type RowBand struct {
	Module string     `json:"module" bson:"module"`
	Flow   graph.Flow `json:"flow" bson:"flow"`
	Bounds Rect       `json:"bounds" bson:"bounds"`
}

// EntryPoint marks where an external actor first touches a flow.
type EntryPoint struct {
	NodeID string     `json:"node_id" bson:"node_id"`
	Flow   graph.Flow `json:"flow" bson:"flow"`
	At     Rect       `json:"at" bson:"at"`
}

// Layout is the computed geometry for one diagram. Everything downstream,
// routing and rendering alike, reads from here and computes nothing anew.
type Layout struct {
	Positions map[string]Rect `json:"positions" bson:"positions"`
	Modules   []ModuleBox     `json:"modules,omitempty" bson:"modules,omitempty"`
	Rows      []RowBand       `json:"rows,omitempty" bson:"rows,omitempty"`
	Entries   []EntryPoint    `json:"entry_points,omitempty" bson:"entry_points,omitempty"`
	Actor     Rect            `json:"actor" bson:"actor"`
	Width     int             `json:"width" bson:"width"`
	Height    int             `json:"height" bson:"height"`
	Title     string          `json:"title,omitempty" bson:"title,omitempty"`
	TitleY    int             `json:"title_y,omitempty" bson:"title_y,omitempty"`
	Crossings int             `json:"crossings,omitempty" bson:"crossings,omitempty"`

	// HeaderHeight and Padding echo config values so consumers can
	// reconstruct module header bands and margin placement without
	// re-reading configuration.
	HeaderHeight int `json:"header_height" bson:"header_height"`
	Padding      int `json:"padding,omitempty" bson:"padding,omitempty"`
}

// NodeBoxes returns all node rectangles in ID order.
func (l *Layout) NodeBoxes() []Rect {
	ids := make([]string, 0, len(l.Positions))
	for id := range l.Positions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	boxes := make([]Rect, len(ids))
	for i, id := range ids {
		boxes[i] = l.Positions[id]
	}
	return boxes
}

// Compute lays out a classified graph.
//
// Modules stack top to bottom, root first, the rest in name order. Inside a
// module each present flow becomes one row; rows sort by (position, name)
// and center horizontally within the module box. The actor figure sits in
// the left lane at half canvas height. An empty graph yields a minimal
// canvas with no positions.
func Compute(g *graph.Graph, cfg Config) *Layout {
	cfg = cfg.normalized()

	title, _ := g.Meta()[graph.MetaTitle].(string)
	titleH := 0
	if title != "" {
		titleH = titleBandUnits * cfg.GridUnit
	}

	l := &Layout{
		Positions:    make(map[string]Rect),
		Title:        title,
		HeaderHeight: cfg.ModuleHeaderHeight,
		Padding:      cfg.CanvasPadding,
	}
	if title != "" {
		l.TitleY = cfg.CanvasPadding + titleBaselineUnits*cfg.GridUnit
	}

	modX := cfg.CanvasPadding + cfg.ActorLaneWidth
	y := cfg.CanvasPadding + titleH
	maxRight := 0
	rowOrders := make(map[int][]string)
	rowIndex := 0

	for _, modName := range g.ModuleNames() {
		rows := flowRows(g.NodesInModule(modName))
		if len(rows) == 0 {
			continue
		}

		maxPerRow := 0
		for _, row := range rows {
			maxPerRow = max(maxPerRow, len(row.nodes))
		}
		contentW := maxPerRow*cfg.NodeWidth + (maxPerRow-1)*cfg.HGap
		contentH := len(rows)*cfg.NodeHeight + (len(rows)-1)*cfg.VGap
		modW := contentW + 2*cfg.ModulePadding
		modH := contentH + 2*cfg.ModulePadding + cfg.ModuleHeaderHeight

		l.Modules = append(l.Modules, ModuleBox{
			Name:   modName,
			Label:  moduleLabel(modName),
			Bounds: Rect{X: modX, Y: y, W: modW, H: modH},
		})

		rowY := y + cfg.ModuleHeaderHeight + cfg.ModulePadding
		for _, row := range rows {
			rowW := len(row.nodes)*cfg.NodeWidth + (len(row.nodes)-1)*cfg.HGap
			x := modX + Snap((modW-rowW)/2, cfg.GridUnit)

			l.Rows = append(l.Rows, RowBand{
				Module: modName,
				Flow:   row.flow,
				Bounds: Rect{X: modX + cfg.ModulePadding, Y: rowY, W: contentW, H: cfg.NodeHeight},
			})

			entryFound := false
			for _, n := range row.nodes {
				box := Rect{X: x, Y: rowY, W: cfg.NodeWidth, H: cfg.NodeHeight}
				l.Positions[n.ID] = box
				if !entryFound && slices.Contains(cfg.EntryTypes[row.flow], n.Type) {
					l.Entries = append(l.Entries, EntryPoint{NodeID: n.ID, Flow: row.flow, At: box})
					entryFound = true
				}
				x += cfg.NodeWidth + cfg.HGap
			}

			rowOrders[rowIndex] = graph.NodeIDs(row.nodes)
			rowIndex++
			rowY += cfg.NodeHeight + cfg.VGap
		}

		maxRight = max(maxRight, modX+modW)
		y += modH + cfg.ModuleGap
	}

	if len(l.Modules) == 0 {
		l.Width = 2 * cfg.CanvasPadding
		l.Height = 2*cfg.CanvasPadding + titleH
		return l
	}

	l.Width = maxRight + cfg.CanvasPadding
	l.Height = y - cfg.ModuleGap + cfg.CanvasPadding
	actorY := cfg.CanvasPadding + titleH + (l.Height-titleH-2*cfg.CanvasPadding)/2 - actorHeight/2
	l.Actor = Rect{X: cfg.CanvasPadding, Y: actorY, W: actorWidth, H: actorHeight}
	l.Crossings = graph.CountCrossings(g, rowOrders)
	return l
}

// flowRow is one display row: a flow and its nodes in stage order.
type flowRow struct {
	flow  graph.Flow
	nodes []*graph.Node
}

// flowRows groups module nodes into display rows. Known flows come first in
// canonical order; any unknown flow values, which only occur on graphs that
// skipped classification, trail in name order so no node is lost.
func flowRows(nodes []*graph.Node) []flowRow {
	sorted := slices.Clone(nodes)
	slices.SortFunc(sorted, func(a, b *graph.Node) int {
		return strings.Compare(a.ID, b.ID)
	})

	byFlow := make(map[graph.Flow][]*graph.Node)
	for _, n := range sorted {
		byFlow[n.Flow] = append(byFlow[n.Flow], n)
	}

	var rows []flowRow
	for _, f := range graph.Flows() {
		if ns := byFlow[f]; len(ns) > 0 {
			graph.SortByStage(ns)
			rows = append(rows, flowRow{flow: f, nodes: ns})
			delete(byFlow, f)
		}
	}

	if len(byFlow) > 0 {
		rest := make([]graph.Flow, 0, len(byFlow))
		for f := range byFlow {
			rest = append(rest, f)
		}
		slices.Sort(rest)
		for _, f := range rest {
			ns := byFlow[f]
			graph.SortByStage(ns)
			rows = append(rows, flowRow{flow: f, nodes: ns})
		}
	}
	return rows
}

// moduleLabel renders "order_processing" as "Order Processing".
func moduleLabel(name string) string {
	if name == graph.RootModule {
		return "Root"
	}
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
