// Package layout turns a classified graph into canvas geometry: one
// grid-snapped rectangle per node, a container box per module, a header band
// per module, and overall canvas dimensions.
//
// Placement is arithmetic, not search. Nodes group by module, then by flow
// row; rows sort by (position, name) and are centered inside their module;
// modules stack vertically in name order with the root module first. Spacing
// constants come from an explicit [Config], so no two rectangles can overlap
// by construction.
//
// Layout never fails: an empty graph produces a minimal canvas, and nodes
// with missing classification still receive a position in a trailing row.
package layout
