package io

import (
	"github.com/fwerkmann/stackflow/pkg/graph"
	"github.com/fwerkmann/stackflow/pkg/layout"
	"github.com/fwerkmann/stackflow/pkg/route"
)

// FormatVersion is the current document schema version. Readers accept only
// matching documents; bump it when the shape of any section changes.
const FormatVersion = 1

// Document is the diagram interchange format: the classified graph together
// with its computed geometry and routed connectors.
//
// Layout and Routes are optional so a graph-only export stays valid. The
// bson tags let the store persist documents without a parallel type.
type Document struct {
	Version int            `json:"version" bson:"version"`
	Graph   graph.Document `json:"graph" bson:"graph"`
	Layout  *layout.Layout `json:"layout,omitempty" bson:"layout,omitempty"`
	Routes  *route.Plan    `json:"routes,omitempty" bson:"routes,omitempty"`
}

// New assembles a document from pipeline results. The layout and plan may
// be nil for graph-only exports.
func New(g *graph.Graph, l *layout.Layout, p *route.Plan) Document {
	return Document{
		Version: FormatVersion,
		Graph:   graph.FromGraph(g),
		Layout:  l,
		Routes:  p,
	}
}

// BuildGraph reconstructs a Graph from the embedded wire form. It returns
// the same validation errors as [graph.ToGraph] for duplicate nodes or
// edges referencing unknown nodes.
func (d Document) BuildGraph() (*graph.Graph, error) {
	return graph.ToGraph(d.Graph)
}

// HasGeometry reports whether the document carries both layout and routes,
// meaning it can be rendered without re-running the pipeline.
func (d Document) HasGeometry() bool {
	return d.Layout != nil && d.Routes != nil
}
