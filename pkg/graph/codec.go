package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
)

// =============================================================================
// Document - Wire Format
// =============================================================================

// MetaTitle is the graph metadata key holding the diagram title.
// The codec promotes it to [Document.Title] on export and back on import.
const MetaTitle = "title"

// Document is the canonical serialization format for infrastructure graphs.
// Used for API responses, storage, caching, and cross-tool compatibility.
//
// The format is human-readable and designed for round-trip fidelity:
// import → transform → export → re-import produces identical results.
type Document struct {
	Title string   `json:"title,omitempty" bson:"title,omitempty"`
	Nodes []Node   `json:"nodes" bson:"nodes"`
	Edges []Edge   `json:"edges" bson:"edges"`
	Meta  Metadata `json:"meta,omitempty" bson:"meta,omitempty"`
}

// FromGraph converts a Graph to its serialization format.
// Nodes are sorted by ID for deterministic output. The title metadata key is
// promoted to the document's Title field and stripped from the emitted meta.
func FromGraph(g *Graph) Document {
	nodes := g.SortedNodes()

	out := Document{
		Nodes: make([]Node, len(nodes)),
		Edges: make([]Edge, 0, g.EdgeCount()),
		Meta:  cleanMeta(g.Meta(), MetaTitle),
	}
	out.Edges = append(out.Edges, g.Edges()...)
	if title, ok := g.Meta()[MetaTitle].(string); ok {
		out.Title = title
	}

	for i, n := range nodes {
		out.Nodes[i] = *n
		out.Nodes[i].Meta = cleanMeta(n.Meta)
	}

	return out
}

// ToGraph converts a Document to a Graph.
// Returns an error for duplicate node IDs or edges referencing unknown nodes.
// Use transform.Sanitize first when the document comes from an untrusted
// source and lenient handling is wanted.
func ToGraph(doc Document) (*Graph, error) {
	meta := doc.Meta
	if meta == nil {
		meta = Metadata{}
	}
	if doc.Title != "" {
		meta[MetaTitle] = doc.Title
	}
	g := New(meta)

	for _, n := range doc.Nodes {
		if err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("add node %s: %w", n.ID, err)
		}
	}

	for _, e := range doc.Edges {
		if err := g.AddEdge(e); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", e.From, e.To, err)
		}
	}

	return g, nil
}

// cleanMeta returns a copy of metadata without the given internal keys.
// Returns nil if the result would be empty, which keeps empty maps out of
// documents and makes the JSON output stable.
func cleanMeta(m Metadata, exclude ...string) Metadata {
	if len(m) == 0 {
		return nil
	}
	result := make(Metadata, len(m))
	for k, v := range m {
		if slices.Contains(exclude, k) {
			continue
		}
		result[k] = v
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// =============================================================================
// Graph Serialization API
// =============================================================================

// MarshalGraph converts a Graph to JSON bytes.
// Nodes are sorted by ID for deterministic output.
func MarshalGraph(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeGraphTo(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalGraph deserializes JSON bytes to a Document.
func UnmarshalGraph(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// WriteGraphFile writes a Graph to a JSON file.
// The file is created with 0644 permissions.
func WriteGraphFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeGraphTo(g, f)
}

// WriteGraph writes a Graph as JSON to an io.Writer.
// Use MarshalGraph for in-memory serialization or WriteGraphFile for files.
func WriteGraph(g *Graph, w io.Writer) error {
	return writeGraphTo(g, w)
}

// ReadGraphFile reads a JSON file and returns the decoded Graph.
// Returns validation errors for malformed documents.
func ReadGraphFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readGraphFrom(f)
}

// ReadGraph decodes a JSON graph from an io.Reader into a Graph.
// Use ReadGraphFile for files or pass bytes.NewReader for in-memory data.
func ReadGraph(r io.Reader) (*Graph, error) {
	return readGraphFrom(r)
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeGraphTo(g *Graph, w io.Writer) error {
	out := FromGraph(g)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readGraphFrom(r io.Reader) (*Graph, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return ToGraph(doc)
}

// SortEdges sorts edges by (From, To) in place and returns the slice.
// Documents produced by the pipeline keep edge insertion order; sorting is
// only applied where a canonical order is needed, such as cache keys.
func SortEdges(edges []Edge) []Edge {
	slices.SortFunc(edges, func(a, b Edge) int {
		if a.From != b.From {
			if a.From < b.From {
				return -1
			}
			return 1
		}
		if a.To < b.To {
			return -1
		}
		if a.To > b.To {
			return 1
		}
		return 0
	})
	return edges
}
