// Package classify assigns flows, stage positions, and categories to graph
// nodes from a static resource-type table, and derives the arrow set that the
// layout and routing stages consume.
//
// Classification is total. Types missing from the table fall back to a coarse
// tier guess (public ingress, private data tier, or unknown) and a trailing
// position so they sort after every known stage; they are reported but still
// drawn. Plumbing types that carry no architectural information, IAM roles
// and log groups and the like, are removed from the graph entirely.
//
// Edge derivation turns raw dependency edges into data-flow arrows: support
// services drop out, directions flip to follow the request path, duplicates
// collapse, and two kinds of arrows are synthesized where the input is
// silent: adjacency arrows between consecutive stages of a row, and
// cross-module arrows from content origins to service entries.
//
// All tables are replaceable through [Option] values, so the package works
// for non-AWS providers given an equivalent catalog.
package classify
