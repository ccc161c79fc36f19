package classify

import (
	"slices"

	"github.com/fwerkmann/stackflow/pkg/graph"
)

// EdgePredicate decides whether a candidate arrow between two classified
// nodes is drawn. Predicates see explicit, adjacency, and inferred
// candidates alike.
type EdgePredicate func(from, to *graph.Node) bool

// ExcludeDNS rejects arrows out of DNS zones. A DNS lookup precedes the
// request rather than carrying its data, so some diagrams read better
// without those arrows. Install via [WithEdgePredicate].
func ExcludeDNS(from, to *graph.Node) bool {
	return from.Type != "aws_route53_zone"
}

// FlowEdges derives the arrows to draw from the raw dependency edge set.
//
// Terraform dependencies point from dependent to dependency, the reverse of
// the request path, so edges ordered against their stage positions are
// flipped. Arrows touching support services are dropped, as are same-module
// edges that cross flow rows. Duplicates collapse to a single arrow. Two
// kinds of arrows are then synthesized where the input is silent: adjacency
// arrows between consecutive stages of each row, and cross-module arrows
// from content origins to service entries.
//
// The two returned slices split same-module arrows from cross-module arrows,
// which render differently.
func (c *Classifier) FlowEdges(g *graph.Graph) (intra, cross []graph.Edge) {
	seen := make(map[graph.EdgeKey]bool)
	include := func(from, to *graph.Node) bool {
		return c.include == nil || c.include(from, to)
	}

	for _, e := range g.Edges() {
		from, ok := g.Node(e.From)
		if !ok {
			continue
		}
		to, ok := g.Node(e.To)
		if !ok {
			continue
		}
		if c.support[from.Type] || c.support[to.Type] {
			continue
		}
		crossModule := from.EffectiveModule() != to.EffectiveModule()
		if !crossModule && from.Flow != to.Flow {
			continue
		}
		if from.Position > to.Position {
			from, to = to, from
		}
		kind := e.Kind
		if kind == "" {
			kind = graph.KindReference
		}
		if crossModule {
			kind = graph.KindCrossModule
		}
		edge := graph.Edge{From: from.ID, To: to.ID, Kind: kind}
		if seen[edge.Key()] || !include(from, to) {
			continue
		}
		seen[edge.Key()] = true
		if crossModule {
			cross = append(cross, edge)
		} else {
			intra = append(intra, edge)
		}
	}

	intra = append(intra, c.adjacencyEdges(g, seen, include)...)
	cross = append(cross, c.callEdges(g, seen, include)...)
	return intra, cross
}

// adjacencyEdges connects consecutive stages within each (module, flow) row,
// so a row reads as a chain even when the input held no explicit edge
// between neighbors.
func (c *Classifier) adjacencyEdges(g *graph.Graph, seen map[graph.EdgeKey]bool, include func(from, to *graph.Node) bool) []graph.Edge {
	type rowKey struct {
		module string
		flow   graph.Flow
	}
	rows := make(map[rowKey][]*graph.Node)
	for _, n := range g.SortedNodes() {
		if c.support[n.Type] {
			continue
		}
		key := rowKey{n.EffectiveModule(), n.Flow}
		rows[key] = append(rows[key], n)
	}

	keys := make([]rowKey, 0, len(rows))
	for key := range rows {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b rowKey) int {
		if a.module != b.module {
			if a.module < b.module {
				return -1
			}
			return 1
		}
		return a.flow.Rank() - b.flow.Rank()
	})

	var result []graph.Edge
	for _, key := range keys {
		nodes := rows[key]
		if len(nodes) < 2 {
			continue
		}
		graph.SortByStage(nodes)
		for i := 0; i < len(nodes)-1; i++ {
			from, to := nodes[i], nodes[i+1]
			edge := graph.Edge{From: from.ID, To: to.ID, Kind: graph.KindInferred}
			if seen[edge.Key()] || !include(from, to) {
				continue
			}
			seen[edge.Key()] = true
			result = append(result, edge)
		}
	}
	return result
}

// callEdges infers cross-module calls: a content origin (bucket or
// distribution) in one module likely fetches from a service entry (function
// URL or gateway) in another. An arrow is added only when neither direction
// was already drawn.
func (c *Classifier) callEdges(g *graph.Graph, seen map[graph.EdgeKey]bool, include func(from, to *graph.Node) bool) []graph.Edge {
	var origins, entries []*graph.Node
	for _, n := range g.SortedNodes() {
		if c.support[n.Type] {
			continue
		}
		if contentOriginTypes[n.Type] {
			origins = append(origins, n)
		}
		if serviceEntryTypes[n.Type] {
			entries = append(entries, n)
		}
	}

	var result []graph.Edge
	for _, origin := range origins {
		for _, entry := range entries {
			if origin.EffectiveModule() == entry.EffectiveModule() {
				continue
			}
			edge := graph.Edge{From: origin.ID, To: entry.ID, Kind: graph.KindCrossModule}
			if seen[edge.Key()] || seen[edge.Reversed().Key()] || !include(origin, entry) {
				continue
			}
			seen[edge.Key()] = true
			result = append(result, edge)
		}
	}
	return result
}
