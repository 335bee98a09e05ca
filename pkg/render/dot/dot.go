// Package dot exports a finished layout as Graphviz DOT with every vertex
// and port pinned to its computed position, and renders it with the
// in-process Graphviz from go-graphviz.
//
// Graphviz only routes the edges; the ranks, the vertex order and the port
// positions are the ones computed by the layered layout.
//
//	src := dot.ToDOT(d, dot.Options{Labels: true})
//	svg, err := dot.RenderSVG(ctx, src)
package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/portlayout/pkg/graph"
)

// pointsPerInch converts drawing units to the inches Graphviz sizes nodes in.
const pointsPerInch = 72.0

// Options configures DOT export.
type Options struct {
	// Labels shows vertex labels inside the boxes.
	Labels bool

	// Splines is the Graphviz edge routing mode. The default is "ortho".
	Splines string
}

// ToDOT converts a drawing to DOT. Graphviz puts the origin in the bottom
// left, so y coordinates are mirrored at the drawing height.
func ToDOT(d graph.Drawing, opts Options) string {
	splines := opts.Splines
	if splines == "" {
		splines = "ortho"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  notranslate=true;\n")
	buf.WriteString("  overlap=true;\n")
	fmt.Fprintf(&buf, "  splines=%q;\n", splines)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=filled, fillcolor=white, fixedsize=true, fontsize=10, margin=0];\n")
	buf.WriteString("  edge [arrowhead=none];\n")
	buf.WriteString("\n")

	for _, v := range d.Vertices {
		label := ""
		if opts.Labels {
			label = v.Label
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", "v:"+v.ID, strings.Join(placed(d, v.Rect, label), ", "))
	}
	for _, p := range d.Ports {
		attrs := append(placed(d, p.Rect, ""), `fillcolor="#3b6ea8"`, "color=none")
		fmt.Fprintf(&buf, "  %q [%s];\n", "p:"+p.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range d.Edges {
		if len(e.Ports) < 2 {
			continue
		}
		// Hyperedges fan out from their first port.
		for _, to := range e.Ports[1:] {
			fmt.Fprintf(&buf, "  %q -> %q [id=%q];\n", "p:"+e.Ports[0], "p:"+to, e.ID)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func placed(d graph.Drawing, r graph.Rect, label string) []string {
	cx := r.X + r.W/2
	cy := d.Height - (r.Y + r.H/2)
	return []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf(`pos="%s,%s!"`, num(cx), num(cy)),
		"width=" + num(r.W/pointsPerInch),
		"height=" + num(r.H/pointsPerInch),
	}
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RenderSVG renders DOT source to SVG with Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

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

// normalizeViewBox replaces the Graphviz root element, whose size is given
// in points, with one sized in drawing units.
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
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
