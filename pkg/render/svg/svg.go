// Package svg draws a finished layout as a standalone SVG document.
//
// Vertices are drawn as rectangles with their ports as small filled boxes on
// the top and bottom edges. Edges are orthogonal polylines; hyperedges draw
// one polyline per branch. Vertex groups are drawn as dashed frames behind
// their members.
//
//	d := graph.NewDrawing(g)
//	data := svg.Render(d, svg.WithLabels())
package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/matzehuels/portlayout/pkg/fonts"
	"github.com/matzehuels/portlayout/pkg/graph"
)

const styleCSS = `
    .vertex { fill: #ffffff; stroke: #222222; stroke-width: 1.5; }
    .group { fill: #f4f6fa; stroke: #8a94a6; stroke-width: 1; stroke-dasharray: 4 3; }
    .port { fill: #3b6ea8; stroke: none; }
    .edge { fill: none; stroke: #444444; stroke-width: 1.2; }
    .edge:hover { stroke: #d0421b; stroke-width: 2; }
    text { font-family: %s; fill: #222222; }`

// Option configures [Render].
type Option func(*renderer)

type renderer struct {
	labels     bool
	portLabels bool
	margin     float64
	fontSize   float64
}

// WithLabels draws vertex and group labels.
func WithLabels() Option { return func(r *renderer) { r.labels = true } }

// WithPortLabels draws port labels next to their ports.
func WithPortLabels() Option { return func(r *renderer) { r.portLabels = true } }

// WithMargin sets the empty border around the drawing. The default is 10.
func WithMargin(m float64) Option { return func(r *renderer) { r.margin = m } }

// WithFontSize sets the label size in drawing units. The default is 10.
func WithFontSize(s float64) Option { return func(r *renderer) { r.fontSize = s } }

// Render returns the SVG document of d.
func Render(d graph.Drawing, opts ...Option) []byte {
	r := renderer{margin: 10, fontSize: 10}
	for _, opt := range opts {
		opt(&r)
	}

	w, h := d.Width+2*r.margin, d.Height+2*r.margin
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n", w, h, w, h)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", fmt.Sprintf(styleCSS, fonts.FallbackFontFamily))
	fmt.Fprintf(&buf, `  <g transform="translate(%.1f %.1f)">`+"\n", r.margin, r.margin)

	for _, grp := range d.Groups {
		r.rect(&buf, "group", "group-"+grp.ID, grp.Rect)
	}
	for _, v := range d.Vertices {
		r.rect(&buf, "vertex", "vertex-"+v.ID, v.Rect)
	}
	for _, e := range d.Edges {
		for i, path := range e.Paths {
			renderPath(&buf, fmt.Sprintf("edge-%s-%d", e.ID, i), path)
		}
	}
	for _, p := range d.Ports {
		r.rect(&buf, "port", "port-"+p.ID, p.Rect)
	}

	if r.labels {
		for _, grp := range d.Groups {
			if grp.Label != "" {
				r.text(&buf, grp.Label, grp.Rect.X+2, grp.Rect.Y-2, "start")
			}
		}
		for _, v := range d.Vertices {
			if v.Label != "" {
				r.text(&buf, v.Label, v.Rect.X+v.Rect.W/2, v.Rect.Y+v.Rect.H/2+r.fontSize/3, "middle")
			}
		}
	}
	if r.portLabels {
		for _, p := range d.Ports {
			if p.Label != "" {
				r.text(&buf, p.Label, p.Rect.X+p.Rect.W+1, p.Rect.Y+p.Rect.H, "start")
			}
		}
	}

	buf.WriteString("  </g>\n</svg>\n")
	return buf.Bytes()
}

func (r *renderer) rect(buf *bytes.Buffer, class, id string, rc graph.Rect) {
	fmt.Fprintf(buf, `    <rect id="%s" class="%s" x="%.2f" y="%.2f" width="%.2f" height="%.2f"/>`+"\n",
		escape(id), class, rc.X, rc.Y, rc.W, rc.H)
}

func (r *renderer) text(buf *bytes.Buffer, s string, x, y float64, anchor string) {
	fmt.Fprintf(buf, `    <text x="%.2f" y="%.2f" font-size="%.1f" text-anchor="%s">%s</text>`+"\n",
		x, y, r.fontSize, anchor, escape(s))
}

func renderPath(buf *bytes.Buffer, id string, path []graph.Point) {
	if len(path) < 2 {
		return
	}
	pts := make([]string, len(path))
	for i, p := range path {
		pts[i] = fmt.Sprintf("%.2f,%.2f", p.X, p.Y)
	}
	fmt.Fprintf(buf, `    <polyline id="%s" class="edge" points="%s"/>`+"\n", escape(id), strings.Join(pts, " "))
}

func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
