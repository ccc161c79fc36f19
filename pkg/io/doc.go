// Package io provides JSON import and export for complete diagram documents.
//
// # Overview
//
// A [Document] bundles everything one rendered diagram is made of: the
// classified infrastructure graph, the computed layout geometry, and the
// routed connector plan. Serializing all three together means a document
// re-renders without re-running any pipeline stage. The format is used for:
//
//   - The "json" output format of the render command
//   - Persisting named diagrams in the store
//   - The diagram stage of the content-addressed cache
//   - Feeding externally produced geometry into custom renderers
//
// # JSON Format
//
// A document is a JSON object with a schema version, a graph, and optional
// geometry sections:
//
//	{
//	  "version": 1,
//	  "graph": {
//	    "nodes": [{"id": "aws_lambda_function.api", "type": "aws_lambda_function"}],
//	    "edges": []
//	  },
//	  "layout": {"positions": {...}, "modules": [...], "width": 688, "height": 620},
//	  "routes": {"intra": [...], "cross": [...], "actor": [...]}
//	}
//
// The graph section follows [graph.Document]; layout and routes mirror
// [layout.Layout] and [route.Plan]. A document carrying only the graph
// section is valid and re-enters the pipeline before the layout stage.
//
// # Import
//
// Use [ImportJSON] to read a document from a file path, or [ReadJSON] to
// read from any io.Reader:
//
//	doc, err := io.ImportJSON("diagram.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	g, err := doc.BuildGraph()
//
// Both functions reject documents whose schema version does not match
// [FormatVersion] and report malformed JSON with structured errors, so CLI
// and server map them to the right exit code or status.
//
// # Export
//
// Use [ExportJSON] to write a document to a file, or [WriteJSON] to write
// to any io.Writer. Node order inside the graph section is sorted by ID, so
// exporting the same diagram twice produces byte-identical files.
//
// [graph.Document]: github.com/fwerkmann/stackflow/pkg/graph.Document
// [layout.Layout]: github.com/fwerkmann/stackflow/pkg/layout.Layout
// [route.Plan]: github.com/fwerkmann/stackflow/pkg/route.Plan
package io
