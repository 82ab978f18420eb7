// Package nodelink renders contact boards as node-link diagrams with Graphviz.
//
// # Overview
//
// A board is drawn as an undirected graph: contacts are nodes pinned at fixed
// layout coordinates, and each recorded connection is an edge. Because every
// node position is fixed, Graphviz's neato engine only has to route the edges
// (as splines), so the picture of the board never moves as connections are
// added.
//
// # Usage
//
// Describe the board as a [Diagram], convert it to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(nodelink.Diagram{
//	    AspectRatio: 1,
//	    Nodes: []nodelink.Node{{ID: "05", X: 0, Y: 4}, {ID: "06", X: 0, Y: 5}},
//	    Edges: []nodelink.Edge{{From: "05", To: "06", Color: "red", Width: 5}},
//	})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # DOT Format
//
// [ToDOT] output is deterministic for a given [Diagram]: nodes and edges are
// written in slice order and floats are formatted without locale or trailing
// zeros. Identical diagrams therefore render to identical SVG bytes with the
// same Graphviz version.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering;
// no Graphviz binaries need to be installed.
package nodelink
