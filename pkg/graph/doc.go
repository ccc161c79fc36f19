// Package graph provides the infrastructure graph model and its wire format.
//
// This package defines the canonical representation of a parsed infrastructure
// graph: typed resource nodes grouped into modules, connected by directed
// dependency edges. It is used by every pipeline stage as well as for JSON
// files, API responses, caching, and storage.
//
// # Architecture
//
// The package has two layers:
//
//   - [Graph]: mutable in-memory structure with adjacency indices, used by
//     classification, edge filtering, and layout
//   - [Document]: flat node-link serialization format for files and APIs
//
// Use [FromGraph]/[ToGraph] to convert between them.
//
// # Core Types
//
//   - [Node]: a typed resource with module grouping and flow assignment
//   - [Edge]: a directed dependency between two nodes
//   - [Flow]: the request path a node participates in (cdn, api, compute, support)
//
// # Graph Serialization
//
// Documents use a simple node-link JSON format:
//
//	{
//	  "nodes": [{"id": "aws_s3_bucket.site", "type": "aws_s3_bucket", "name": "site"}],
//	  "edges": [{"from": "aws_cloudfront_distribution.cdn", "to": "aws_s3_bucket.site"}]
//	}
//
// Common operations:
//
//	g, _ := graph.ReadGraphFile("infra.json")  // File → Graph
//	graph.WriteGraphFile(g, "output.json")     // Graph → File
//	data, _ := graph.MarshalGraph(g)           // Graph → []byte
//	doc, _ := graph.UnmarshalGraph(data)       // []byte → Document
//
// # Concurrency
//
// Graph is not safe for concurrent mutation. All serialization functions are
// safe for concurrent use on distinct values.
package graph
