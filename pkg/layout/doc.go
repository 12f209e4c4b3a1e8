// Package layout computes deterministic positions for a layer's nodes and
// routing lanes for its edges.
//
// Layout runs in independent passes: topological leveling, grid placement,
// board-children alignment and edge lane assignment. Every pass is a pure
// function of the graph; running twice on an unchanged layer moves nothing.
// Layout never fails: an empty or fully disconnected graph still produces a
// valid placement.
package layout
