package transform

import "github.com/fwerkmann/stackflow/pkg/graph"

// SanitizeReport describes the repairs applied to a document.
type SanitizeReport struct {
	DuplicateNodes int // nodes dropped because their ID was already taken
	DuplicateEdges int // edges dropped because an identical edge existed
	DanglingEdges  int // edges dropped because an endpoint was missing
	SelfLoops      int // edges dropped because From == To
	EmptyIDs       int // nodes dropped because their ID was empty
}

// Clean reports whether no repairs were necessary.
func (r SanitizeReport) Clean() bool {
	return r == SanitizeReport{}
}

// Sanitize repairs a wire document in place so that it converts to a Graph
// without errors. The first occurrence of a node ID wins; subsequent
// duplicates are dropped. Edges are deduplicated by (From, To), and edges
// with missing endpoints or identical endpoints are removed.
//
// The relative order of surviving nodes and edges is preserved.
func Sanitize(doc *graph.Document) SanitizeReport {
	var report SanitizeReport

	seen := make(map[string]bool, len(doc.Nodes))
	nodes := doc.Nodes[:0]
	for _, n := range doc.Nodes {
		if n.ID == "" {
			report.EmptyIDs++
			continue
		}
		if seen[n.ID] {
			report.DuplicateNodes++
			continue
		}
		seen[n.ID] = true
		nodes = append(nodes, n)
	}
	doc.Nodes = nodes

	seenEdges := make(map[graph.EdgeKey]bool, len(doc.Edges))
	edges := doc.Edges[:0]
	for _, e := range doc.Edges {
		if !seen[e.From] || !seen[e.To] {
			report.DanglingEdges++
			continue
		}
		if e.From == e.To {
			report.SelfLoops++
			continue
		}
		if seenEdges[e.Key()] {
			report.DuplicateEdges++
			continue
		}
		seenEdges[e.Key()] = true
		edges = append(edges, e)
	}
	doc.Edges = edges

	return report
}
