package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
)

// Node is a pinned vertex of a [Diagram]. X and Y are layout coordinates in
// Graphviz inches.
type Node struct {
	ID    string
	Label string // defaults to ID when empty
	X, Y  float64
}

// Edge is an undirected connection between two nodes of a [Diagram].
type Edge struct {
	From  string
	To    string
	Color string
	Width float64 // pen width in points
}

// Diagram is the renderer-facing description of a board: every node keeps the
// position it was given, and edges are drawn in the order they appear.
type Diagram struct {
	Comment     string
	AspectRatio float64
	Nodes       []Node
	Edges       []Edge
}

// ToDOT converts a diagram to Graphviz DOT source for the neato engine.
// Node positions are pinned with the "!" suffix so the layout engine only
// routes edges. Output depends only on the diagram, never on map order.
func ToDOT(d Diagram) string {
	var buf bytes.Buffer
	if d.Comment != "" {
		fmt.Fprintf(&buf, "// %s\n", strings.ReplaceAll(d.Comment, "\n", " "))
	}
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	if d.AspectRatio > 0 {
		fmt.Fprintf(&buf, "  ratio=%q;\n", fmtFloat(d.AspectRatio))
	}
	buf.WriteString("  splines=spline;\n")
	buf.WriteString("\n")

	for _, n := range d.Nodes {
		label := n.Label
		if label == "" {
			label = n.ID
		}
		fmt.Fprintf(&buf, "  %q [label=%q, pos=%q];\n", n.ID, label, fmtPos(n.X, n.Y))
	}

	if len(d.Edges) > 0 {
		buf.WriteString("\n")
	}
	for _, e := range d.Edges {
		fmt.Fprintf(&buf, "  %q -- %q [%s];\n", e.From, e.To, strings.Join(fmtEdgeAttrs(e), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtPos(x, y float64) string {
	return fmtFloat(x) + "," + fmtFloat(y) + "!"
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func fmtEdgeAttrs(e Edge) []string {
	var attrs []string
	if e.Color != "" {
		attrs = append(attrs, fmt.Sprintf("color=%q", e.Color))
	}
	if e.Width > 0 {
		attrs = append(attrs, fmt.Sprintf("penwidth=%q", fmtFloat(e.Width)))
	}
	return attrs
}

// RenderSVG lays out DOT source with the neato engine and renders it to SVG.
// The svg element is rewritten by normalizeViewBox so the image scales to any
// viewport width.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
