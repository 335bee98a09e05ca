package graph

import (
	"github.com/matzehuels/portlayout/pkg/portgraph"
)

// NewDrawing captures the geometry of a laid-out graph. Elements without a
// shape are skipped. Width and height cover every shape and path; ranks,
// crossings and the run ID are left for the caller.
func NewDrawing(g *portgraph.Graph) Drawing {
	var d Drawing
	grow := func(r Rect) {
		d.Width = max(d.Width, r.X+r.W)
		d.Height = max(d.Height, r.Y+r.H)
	}

	for _, v := range g.Vertices() {
		vx := g.Vertex(v)
		if vx.Shape == nil {
			continue
		}
		s := VertexShape{ID: VertexName(g, v), Label: vx.MainLabel(), Rect: rect(vx.Shape)}
		grow(s.Rect)
		d.Vertices = append(d.Vertices, s)
	}
	for _, p := range g.Ports() {
		port := g.Port(p)
		if port.Shape == nil {
			continue
		}
		s := PortShape{ID: PortName(g, p), Label: port.Label, Rect: rect(port.Shape)}
		if port.Vertex != portgraph.NoVertex {
			s.Vertex = VertexName(g, port.Vertex)
		}
		grow(s.Rect)
		d.Ports = append(d.Ports, s)
	}
	for _, e := range g.Edges() {
		edge := g.Edge(e)
		if len(edge.Paths) == 0 {
			continue
		}
		s := EdgeShape{ID: EdgeName(g, e), Label: edge.Label}
		for _, p := range edge.Ports {
			s.Ports = append(s.Ports, PortName(g, p))
		}
		for _, path := range edge.Paths {
			pts := make([]Point, len(path))
			for i, pt := range path {
				pts[i] = Point{X: pt.X, Y: pt.Y}
				grow(Rect{X: pt.X, Y: pt.Y})
			}
			s.Paths = append(s.Paths, pts)
		}
		d.Edges = append(d.Edges, s)
	}
	for _, id := range g.VertexGroups() {
		grp := g.VertexGroup(id)
		if grp.Shape == nil {
			continue
		}
		s := GroupShape{ID: GroupName(g, id), Label: grp.Label, Rect: rect(grp.Shape)}
		grow(s.Rect)
		d.Groups = append(d.Groups, s)
	}
	return d
}

func rect(r *portgraph.Rect) Rect {
	return Rect{X: r.X, Y: r.Y, W: r.W, H: r.H}
}

// Vertex returns the shape of the vertex with the given ID.
func (d *Drawing) Vertex(id string) (VertexShape, bool) {
	for _, v := range d.Vertices {
		if v.ID == id {
			return v, true
		}
	}
	return VertexShape{}, false
}

// Port returns the shape of the port with the given ID.
func (d *Drawing) Port(id string) (PortShape, bool) {
	for _, p := range d.Ports {
		if p.ID == id {
			return p, true
		}
	}
	return PortShape{}, false
}

// ApplyDrawing copies the shapes and paths of d onto the elements of g with
// matching IDs. Elements of d unknown to g are ignored. It returns the number
// of elements updated.
func ApplyDrawing(g *portgraph.Graph, d Drawing) int {
	n := 0
	vertices := map[string]portgraph.VertexID{}
	for _, v := range g.Vertices() {
		vertices[VertexName(g, v)] = v
	}
	for _, s := range d.Vertices {
		if v, ok := vertices[s.ID]; ok {
			g.Vertex(v).Shape = modelRect(s.Rect)
			n++
		}
	}

	ports := map[string]portgraph.PortID{}
	for _, p := range g.Ports() {
		ports[PortName(g, p)] = p
	}
	for _, s := range d.Ports {
		if p, ok := ports[s.ID]; ok {
			g.Port(p).Shape = modelRect(s.Rect)
			n++
		}
	}

	edges := map[string]portgraph.EdgeID{}
	for _, e := range g.Edges() {
		edges[EdgeName(g, e)] = e
	}
	for _, s := range d.Edges {
		e, ok := edges[s.ID]
		if !ok {
			continue
		}
		paths := make([]portgraph.Path, len(s.Paths))
		for i, pts := range s.Paths {
			paths[i] = make(portgraph.Path, len(pts))
			for j, pt := range pts {
				paths[i][j] = portgraph.Point{X: pt.X, Y: pt.Y}
			}
		}
		g.Edge(e).Paths = paths
		n++
	}

	groups := map[string]portgraph.VertexGroupID{}
	for _, id := range g.VertexGroups() {
		groups[GroupName(g, id)] = id
	}
	for _, s := range d.Groups {
		if id, ok := groups[s.ID]; ok {
			g.VertexGroup(id).Shape = modelRect(s.Rect)
			n++
		}
	}
	return n
}

func modelRect(r Rect) *portgraph.Rect {
	return &portgraph.Rect{X: r.X, Y: r.Y, W: r.W, H: r.H}
}
