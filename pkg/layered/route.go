package layered

import (
	"maps"
	"slices"

	"github.com/matzehuels/portlayout/pkg/portgraph"
)

// RouteEdges draws every edge as an orthogonal path along its route of
// ports and writes the drawing into the caller's graph. Unless SkipRestore
// is set, every normalization is undone: replaced ports, grouped vertices,
// hyperedges and self-loops get their geometry back. With SkipRestore the
// caller's graph is replaced by the normalized graph carrying the drawing.
func (l *Layouter) RouteEdges() error {
	if err := l.require(StagePlaced); err != nil {
		return err
	}
	l.paths = map[portgraph.EdgeID][]portgraph.Path{}
	for _, e := range slices.Sorted(maps.Keys(l.routes)) {
		path := l.trace(l.routes[e])
		l.paths[e] = []portgraph.Path{path}
		if edge := l.g.Edge(e); edge != nil {
			edge.Paths = l.paths[e]
		}
	}
	for _, de := range slices.Sorted(maps.Keys(l.dummyEdges)) {
		if edge := l.g.Edge(de); edge != nil {
			edge.Paths = []portgraph.Path{l.trace(edge.Ports)}
		}
	}

	if l.cfg.SkipRestore {
		l.transplantNormalized()
	} else {
		l.restore()
	}
	l.stage = StageRouted
	l.log.Debug("routed edges", "edges", len(l.paths), "restored", !l.cfg.SkipRestore)
	return nil
}

// attach is the point where an edge meets port p: the middle of its outer
// edge.
func (l *Layouter) attach(p portgraph.PortID) portgraph.Point {
	r := l.g.Port(p).Shape
	if l.side[p] == Bottom {
		return portgraph.Point{X: r.CenterX(), Y: r.Bottom()}
	}
	return portgraph.Point{X: r.CenterX(), Y: r.Y}
}

// trace builds the path through a route. Steps between ranks jog in the
// middle of the gap, steps through a dummy vertex jog at its center and
// turns at a turning dummy dip into the dummy's ports.
func (l *Layouter) trace(route []portgraph.PortID) portgraph.Path {
	if len(route) == 0 {
		return nil
	}
	path := portgraph.Path{l.attach(route[0])}
	for i := 0; i+1 < len(route); i++ {
		p, q := route[i], route[i+1]
		a, b := l.attach(p), l.attach(q)
		pp, qp := l.g.Port(p), l.g.Port(q)

		var y float64
		switch {
		case pp.Vertex != qp.Vertex:
			y = (a.Y + b.Y) / 2
		case l.side[p] != l.side[q]:
			y = l.g.Vertex(pp.Vertex).Shape.CenterY()
		case l.side[p] == Top:
			y = pp.Shape.Bottom()
		default:
			y = pp.Shape.Y
		}
		path = append(path, portgraph.Point{X: a.X, Y: y}, portgraph.Point{X: b.X, Y: y}, b)
	}
	return path.Simplify()
}

// =============================================================================
// Restore
// =============================================================================

// restore copies the drawing of the working graph onto the caller's graph.
func (l *Layouter) restore() {
	orig, g := l.orig, l.g

	for _, v := range orig.Vertices() {
		if wv := g.Vertex(v); wv != nil && wv.Shape != nil {
			orig.Vertex(v).Shape = cloneRect(wv.Shape)
		}
	}

	// Replacement chains end in ports of the caller's graph.
	replacements := map[portgraph.PortID][]portgraph.PortID{}
	for _, q := range slices.Sorted(maps.Keys(l.replacedPorts)) {
		if wp := g.Port(q); wp == nil || wp.Shape == nil {
			continue
		}
		root := l.replacedPorts[q]
		for {
			next, ok := l.replacedPorts[root]
			if !ok {
				break
			}
			root = next
		}
		replacements[root] = append(replacements[root], q)
	}
	for _, p := range orig.Ports() {
		if wp := g.Port(p); wp != nil && wp.Shape != nil {
			orig.Port(p).Shape = cloneRect(wp.Shape)
			continue
		}
		if qs := replacements[p]; len(qs) > 0 {
			r := *g.Port(qs[0]).Shape
			for _, q := range qs[1:] {
				r = r.Union(*g.Port(q).Shape)
			}
			orig.Port(p).Shape = &r
		}
	}

	l.restoreGroups()

	for _, v := range orig.Vertices() {
		l.spreadMissingPorts(v)
	}

	for _, e := range orig.Edges() {
		if paths, ok := l.paths[e]; ok {
			orig.Edge(e).Paths = paths
		}
	}
	for _, rep := range slices.Sorted(maps.Keys(l.hyperEdges)) {
		var paths []portgraph.Path
		for _, part := range slices.Sorted(maps.Keys(l.hyperParts)) {
			if l.hyperParts[part] == rep {
				paths = append(paths, l.paths[part]...)
			}
		}
		if edge := orig.Edge(l.hyperEdges[rep]); edge != nil {
			edge.Paths = paths
		}
	}
}

// restoreGroups gives every member of a collapsed vertex group the width of
// its ports and the height of the representative. The group itself gets the
// representative's rectangle.
func (l *Layouter) restoreGroups() {
	orig, g := l.orig, l.g
	reps := maps.Clone(l.groupReps)
	maps.Copy(reps, l.plugs)
	for _, rep := range slices.Sorted(maps.Keys(reps)) {
		rv := g.Vertex(rep)
		if rv == nil || rv.Shape == nil {
			continue
		}
		box := *rv.Shape
		for _, m := range l.members[rep] {
			r := box
			x0, x1, found := 0.0, 0.0, false
			for _, p := range orig.PortsOf(m) {
				s := orig.Port(p).Shape
				if s == nil {
					continue
				}
				if !found {
					x0, x1, found = s.X, s.Right(), true
				}
				x0, x1 = min(x0, s.X), max(x1, s.Right())
			}
			if found {
				pad := l.cfg.Drawing.delta() / 2
				r.X, r.W = x0-pad, x1-x0+2*pad
			}
			orig.Vertex(m).Shape = &r
		}
		l.shapeGroup(reps[rep], box)
	}
}

func (l *Layouter) shapeGroup(vg portgraph.VertexGroupID, box portgraph.Rect) {
	group := l.orig.VertexGroup(vg)
	if group == nil {
		return
	}
	r := box
	group.Shape = &r
	for _, sub := range group.Groups {
		l.shapeGroup(sub, box)
	}
}

// spreadMissingPorts places the ports of v that were dropped during
// normalization evenly along the top edge of v.
func (l *Layouter) spreadMissingPorts(v portgraph.VertexID) {
	vx := l.orig.Vertex(v)
	if vx.Shape == nil {
		return
	}
	var missing []portgraph.PortID
	for _, p := range l.orig.PortsOf(v) {
		if l.orig.Port(p).Shape == nil {
			missing = append(missing, p)
		}
	}
	d := l.cfg.Drawing
	step := vx.Shape.W / float64(len(missing)+1)
	for i, p := range missing {
		cx := vx.Shape.X + step*float64(i+1)
		l.orig.Port(p).Shape = &portgraph.Rect{X: cx - d.PortWidth/2, Y: vx.Shape.Y - d.PortHeight, W: d.PortWidth, H: d.PortHeight}
	}
}

// transplantNormalized replaces the caller's graph with the normalized
// graph and the drawing of the working graph.
func (l *Layouter) transplantNormalized() {
	n := l.normalized.Clone()
	for _, v := range n.Vertices() {
		if wv := l.g.Vertex(v); wv != nil {
			n.Vertex(v).Shape = cloneRect(wv.Shape)
		}
	}
	for _, p := range n.Ports() {
		if wp := l.g.Port(p); wp != nil {
			n.Port(p).Shape = cloneRect(wp.Shape)
		}
	}
	for _, e := range n.Edges() {
		n.Edge(e).Paths = l.paths[e]
	}
	l.orig.CopyFrom(n)
}

func cloneRect(r *portgraph.Rect) *portgraph.Rect {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
