// Package jsonsink exports resolved diagram geometry as a JSON document.
//
// The output is the raw render boundary: node rectangles with display
// labels, module containers, and every routed connector with its waypoints.
// External tools can draw from it without knowing the classification tables
// or routing rules, and identical inputs marshal to identical bytes.
//
// For a round-trippable interchange document that keeps the graph itself,
// use [io.WriteJSON] instead.
//
// [io.WriteJSON]: github.com/fwerkmann/stackflow/pkg/io.WriteJSON
package jsonsink

import (
	"encoding/json"
	"slices"

	"github.com/fwerkmann/stackflow/pkg/classify"
	"github.com/fwerkmann/stackflow/pkg/graph"
	"github.com/fwerkmann/stackflow/pkg/layout"
	"github.com/fwerkmann/stackflow/pkg/route"
)

// Option configures JSON rendering via [RenderJSON].
type Option func(*jsonRenderer)

type jsonRenderer struct {
	graph *graph.Graph
	plan  *route.Plan
}

// WithGraph attaches the graph for node enrichment: display names, service
// labels, categories, and flows. Without it nodes carry geometry only.
func WithGraph(g *graph.Graph) Option { return func(r *jsonRenderer) { r.graph = g } }

// WithPlan includes the routed connectors in the output.
func WithPlan(p *route.Plan) Option { return func(r *jsonRenderer) { r.plan = p } }

type jsonOutput struct {
	Width     int          `json:"width"`
	Height    int          `json:"height"`
	Title     string       `json:"title,omitempty"`
	Modules   []jsonModule `json:"modules,omitempty"`
	Nodes     []jsonNode   `json:"nodes"`
	Arrows    []jsonArrow  `json:"arrows,omitempty"`
	Actor     *jsonActor   `json:"actor,omitempty"`
	Crossings int          `json:"crossings,omitempty"`
	Fallbacks int          `json:"fallbacks,omitempty"`
}

type jsonModule struct {
	Name   string      `json:"name"`
	Label  string      `json:"label"`
	Bounds layout.Rect `json:"bounds"`
}

type jsonNode struct {
	ID       string         `json:"id"`
	Name     string         `json:"name,omitempty"`
	Service  string         `json:"service,omitempty"`
	Type     string         `json:"type,omitempty"`
	Module   string         `json:"module,omitempty"`
	Flow     graph.Flow     `json:"flow,omitempty"`
	Category graph.Category `json:"category,omitempty"`
	Bounds   layout.Rect    `json:"bounds"`
}

type jsonArrow struct {
	From   string         `json:"from"`
	To     string         `json:"to"`
	Kind   graph.EdgeKind `json:"kind,omitempty"`
	Points route.Path     `json:"points"`
}

type jsonActor struct {
	Bounds     layout.Rect     `json:"bounds"`
	Connectors []jsonConnector `json:"connectors"`
}

type jsonConnector struct {
	NodeID string     `json:"node_id"`
	Points route.Path `json:"points"`
}

// RenderJSON exports the layout, and optionally the graph and routed plan,
// as a pretty-printed JSON document. Nodes are emitted in ID order and
// arrows in plan order, so the bytes are deterministic.
//
// RenderJSON modifies nothing and is safe to call concurrently.
func RenderJSON(l *layout.Layout, opts ...Option) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		Width:     l.Width,
		Height:    l.Height,
		Title:     l.Title,
		Nodes:     buildNodes(l, r.graph),
		Crossings: l.Crossings,
	}
	for _, m := range l.Modules {
		out.Modules = append(out.Modules, jsonModule{Name: m.Name, Label: m.Label, Bounds: m.Bounds})
	}
	if r.plan != nil {
		out.Arrows = buildArrows(r.plan)
		out.Fallbacks = r.plan.Fallbacks
		if len(r.plan.Actor) > 0 {
			out.Actor = buildActor(l, r.plan)
		}
	}

	return json.MarshalIndent(out, "", "  ")
}

func buildNodes(l *layout.Layout, g *graph.Graph) []jsonNode {
	ids := make([]string, 0, len(l.Positions))
	for id := range l.Positions {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	nodes := make([]jsonNode, 0, len(ids))
	for _, id := range ids {
		jn := jsonNode{ID: id, Bounds: l.Positions[id]}
		if g != nil {
			if n, ok := g.Node(id); ok {
				jn.Name = n.DisplayName()
				jn.Service = classify.Describe(n.Type).Label
				jn.Type = n.Type
				jn.Module = n.Module
				jn.Flow = n.Flow
				jn.Category = n.Category
			}
		}
		nodes = append(nodes, jn)
	}
	return nodes
}

func buildArrows(p *route.Plan) []jsonArrow {
	arrows := make([]jsonArrow, 0, len(p.Intra)+len(p.Cross))
	for _, re := range p.Intra {
		arrows = append(arrows, jsonArrow{From: re.Edge.From, To: re.Edge.To, Kind: re.Edge.Kind, Points: re.Path})
	}
	for _, re := range p.Cross {
		arrows = append(arrows, jsonArrow{From: re.Edge.From, To: re.Edge.To, Kind: re.Edge.Kind, Points: re.Path})
	}
	return arrows
}

func buildActor(l *layout.Layout, p *route.Plan) *jsonActor {
	actor := &jsonActor{Bounds: l.Actor}
	for _, c := range p.Actor {
		actor.Connectors = append(actor.Connectors, jsonConnector{NodeID: c.NodeID, Points: c.Path})
	}
	return actor
}
