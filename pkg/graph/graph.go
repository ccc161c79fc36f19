package graph

import (
	"errors"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists in the graph. Node IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist in the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when an edge
	// references a node that doesn't exist. This indicates graph corruption.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")
)

// Graph is a directed graph of typed resources grouped into modules.
// Nodes are indexed by ID and by module, and adjacency lists are maintained
// for both directions. Unlike a strict DAG, cycles are permitted; callers
// that need acyclic input break cycles with the transform package.
//
// The zero value is not usable - use New to create a valid Graph instance.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	nodes    map[string]*Node
	edges    []Edge
	outgoing map[string][]string // nodeID -> children IDs
	incoming map[string][]string // nodeID -> parent IDs
	modules  map[string][]*Node  // module -> nodes in that module
	meta     Metadata
}

// New creates an empty Graph with optional graph-level metadata.
// The metadata parameter can be nil, in which case an empty map is created.
// Graph-level metadata is typically used to store the input source and title.
func New(meta Metadata) *Graph {
	if meta == nil {
		meta = Metadata{}
	}
	return &Graph{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		modules:  make(map[string][]*Node),
		meta:     meta,
	}
}

// Meta returns the graph-level metadata map.
// The returned map is never nil and can be safely modified.
func (g *Graph) Meta() Metadata { return g.meta }

// AddNode adds a node to the graph and indexes it by its effective module.
// Returns ErrInvalidNodeID if the node ID is empty, or ErrDuplicateNodeID
// if a node with the same ID already exists. The node's Meta field is
// automatically initialized to an empty map if nil.
//
// Node IDs must be unique across the entire graph, regardless of module.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	node := &n
	g.nodes[node.ID] = node
	mod := node.EffectiveModule()
	g.modules[mod] = append(g.modules[mod], node)
	return nil
}

// AddEdge adds a directed edge between two existing nodes.
// Returns ErrUnknownSourceNode if the From node doesn't exist, or
// ErrUnknownTargetNode if the To node doesn't exist.
//
// Multiple edges between the same nodes are allowed; classification
// deduplicates when deriving the drawable edge set.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], e.To)
	g.incoming[e.To] = append(g.incoming[e.To], e.From)
	return nil
}

// RemoveEdge removes all edges from→to if any exist.
// No error is returned if the edge does not exist.
func (g *Graph) RemoveEdge(from, to string) {
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool { return e.From == from && e.To == to })
	g.outgoing[from] = slices.DeleteFunc(g.outgoing[from], func(s string) bool { return s == to })
	g.incoming[to] = slices.DeleteFunc(g.incoming[to], func(s string) bool { return s == from })
}

// RemoveNode removes a node together with all its incident edges.
// No error is returned if the node does not exist. Classification uses this
// to drop nodes whose resource type cannot be placed on any flow.
func (g *Graph) RemoveNode(id string) {
	node, ok := g.nodes[id]
	if !ok {
		return
	}

	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool { return e.From == id || e.To == id })
	for _, child := range g.outgoing[id] {
		g.incoming[child] = slices.DeleteFunc(g.incoming[child], func(s string) bool { return s == id })
	}
	for _, parent := range g.incoming[id] {
		g.outgoing[parent] = slices.DeleteFunc(g.outgoing[parent], func(s string) bool { return s == id })
	}
	delete(g.outgoing, id)
	delete(g.incoming, id)

	mod := node.EffectiveModule()
	g.modules[mod] = slices.DeleteFunc(g.modules[mod], func(n *Node) bool { return n.ID == id })
	if len(g.modules[mod]) == 0 {
		delete(g.modules, mod)
	}
	delete(g.nodes, id)
}

// HasEdge reports whether at least one edge from→to exists.
func (g *Graph) HasEdge(from, to string) bool {
	return slices.Contains(g.outgoing[from], to)
}

// Nodes returns all nodes in the graph.
// The order is not guaranteed; use SortedNodes for deterministic iteration.
// The returned slice contains pointers to the actual node structs, so
// modifications affect the graph.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	return nodes
}

// SortedNodes returns all nodes sorted by ID.
// Every stage that iterates the whole graph uses this so that identical
// inputs produce identical outputs.
func (g *Graph) SortedNodes() []*Node {
	nodes := g.Nodes()
	slices.SortFunc(nodes, func(a, b *Node) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return nodes
}

// Edges returns a copy of all edges in the graph.
// The order matches insertion order. Modifications to the returned
// slice do not affect the graph.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Children returns the IDs of nodes that this node has edges to.
// Returns nil if the node has no children or doesn't exist. The returned
// slice should not be modified - use it as a read-only view.
func (g *Graph) Children(id string) []string { return g.outgoing[id] }

// Parents returns the IDs of nodes that have edges to this node.
// Returns nil if the node has no parents or doesn't exist. The returned
// slice should not be modified - use it as a read-only view.
func (g *Graph) Parents(id string) []string { return g.incoming[id] }

// OutDegree returns the number of outgoing edges from the node.
// Returns 0 if the node doesn't exist.
func (g *Graph) OutDegree(id string) int { return len(g.outgoing[id]) }

// InDegree returns the number of incoming edges to the node.
// Returns 0 if the node doesn't exist.
func (g *Graph) InDegree(id string) int { return len(g.incoming[id]) }

// Node returns the node with the given ID and true, or nil and false if not
// found. The returned pointer refers to the actual node in the graph, so
// modifications affect the graph.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodesInModule returns all nodes grouped under the given module name.
// Use [RootModule] for resources declared outside any module. Returns nil
// if the module is empty or doesn't exist. The order is insertion order.
func (g *Graph) NodesInModule(name string) []*Node { return g.modules[name] }

// ModuleCount returns the number of distinct module groupings.
func (g *Graph) ModuleCount() int { return len(g.modules) }

// ModuleNames returns all module names with [RootModule] first (when present)
// and the remaining names in sorted ascending order. This is the canonical
// top-to-bottom module order used by the layout.
func (g *Graph) ModuleNames() []string {
	names := make([]string, 0, len(g.modules))
	if _, ok := g.modules[RootModule]; ok {
		names = append(names, RootModule)
	}
	for _, name := range slices.Sorted(maps.Keys(g.modules)) {
		if name != RootModule {
			names = append(names, name)
		}
	}
	return names
}

// Sources returns nodes with no incoming edges.
// The order is not guaranteed. Returns nil for an empty graph.
func (g *Graph) Sources() []*Node {
	var sources []*Node
	for _, n := range g.nodes {
		if len(g.incoming[n.ID]) == 0 {
			sources = append(sources, n)
		}
	}
	return sources
}

// Sinks returns nodes with no outgoing edges.
// The order is not guaranteed. Returns nil for an empty graph.
func (g *Graph) Sinks() []*Node {
	var sinks []*Node
	for _, n := range g.nodes {
		if len(g.outgoing[n.ID]) == 0 {
			sinks = append(sinks, n)
		}
	}
	return sinks
}

// Validate checks graph integrity and returns nil if valid.
// It verifies that all edges connect existing nodes. Cycles are not an
// error; use HasCycle to detect them and transform.BreakCycles to remove
// them when a downstream consumer needs acyclic input.
func (g *Graph) Validate() error {
	for _, e := range g.edges {
		if _, ok := g.nodes[e.From]; !ok {
			return ErrInvalidEdgeEndpoint
		}
		if _, ok := g.nodes[e.To]; !ok {
			return ErrInvalidEdgeEndpoint
		}
	}
	return nil
}

// HasCycle reports whether the graph contains a directed cycle.
// Detection runs in O(N+E) time using depth-first search with
// white/gray/black coloring.
func (g *Graph) HasCycle() bool {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range g.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
				return
			}
		}
		color[id] = black
	}

	for id := range g.nodes {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return true
			}
		}
	}
	return false
}

// PosMap creates a position lookup map from a slice of node IDs.
// The returned map maps each ID to its index in the slice.
// This is commonly used to convert node orderings into fast position
// lookups for crossing calculations. Returns an empty map for a nil or
// empty slice.
func PosMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}

// NodeIDs extracts the ID from each node in a slice.
// Returns a new slice containing the IDs in the same order as the input.
// Returns an empty slice for a nil or empty input.
func NodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

// SortByStage stably orders nodes by (Position, Name), the canonical order of
// stages within a flow row. Ties keep their incoming order, so callers that
// start from [Graph.SortedNodes] get a fully deterministic result.
func SortByStage(nodes []*Node) {
	slices.SortStableFunc(nodes, func(a, b *Node) int {
		if a.Position != b.Position {
			return a.Position - b.Position
		}
		return strings.Compare(a.Name, b.Name)
	})
}
