// Package render exports topology layers as diagrams.
//
// # Overview
//
// The designer's own canvas draws layers interactively; this package covers
// the non-interactive outputs: Graphviz DOT source for external tooling and
// in-process SVG for reports and the inspection API.
//
// # Usage
//
// Convert a layer to DOT, then render to SVG:
//
//	dot := render.ToDOT(layer, filter, render.Options{Detailed: true})
//	svg, err := render.SVG(dot)
//
// The generated DOT uses top-to-bottom layout (rankdir=TB) matching the
// designer's single-line drawing convention: sources on top, boards in the
// middle, loads at the bottom.
//
// # Dependencies
//
// SVG rendering uses [github.com/goccy/go-graphviz], which embeds Graphviz;
// no external binary is required.
package render
