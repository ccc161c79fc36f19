package transform

import "github.com/fwerkmann/stackflow/pkg/graph"

// BreakCycles removes back edges until the graph is acyclic and returns the
// number of edges removed. Traversal starts from source nodes so that edges
// pointing back toward the entry side of the graph are the ones dropped.
//
// The result depends on traversal order and is deterministic only up to the
// graph's internal map ordering; callers that need a stable edge set should
// treat removed edges as advisory, not canonical.
func BreakCycles(g *graph.Graph) int {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int)
	var backEdges [][2]string

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		for _, child := range g.Children(node) {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				backEdges = append(backEdges, [2]string{node, child})
			}
		}
		color[node] = black
	}

	for _, n := range g.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}

	for _, n := range g.Nodes() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}

	for _, e := range backEdges {
		g.RemoveEdge(e[0], e[1])
	}
	return len(backEdges)
}
