// Package transform provides graph transformations that prepare an
// infrastructure graph for classification and layout.
//
// # Overview
//
// Graphs exported by real tooling rarely arrive clean. Terraform emits
// dependency edges between resources the diagram never shows, JSON documents
// written by hand carry duplicate nodes or edges to nothing, and provider
// quirks occasionally produce dependency cycles. This package normalizes all
// of that before the pipeline interprets the graph:
//
//   - [Sanitize] repairs a wire document in place: duplicate nodes and edges
//     are dropped, as are self-loops and edges whose endpoints don't exist
//   - [BreakCycles] removes back edges so downstream traversals terminate
//
// Both operations report what they changed so callers can log the repairs
// instead of failing on imperfect input.
package transform
